package sbr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nasa/cFE-sub018/pkg/sb"
)

var (
	// ErrNilConfig is returned when a nil config is provided
	ErrNilConfig = errors.New("config cannot be nil")
	// ErrInvalidMaxRoutes is returned when the route capacity is out of bounds
	ErrInvalidMaxRoutes = errors.New("max routes must be between 1 and 16777216")
	// ErrDirectMapTooLarge is returned when the message id range is too wide for direct indexing
	ErrDirectMapTooLarge = errors.New("message id range too large for direct map")
	// ErrHashSizeNotPowerOfTwo is returned when the hash table size is not a power of two
	ErrHashSizeNotPowerOfTwo = errors.New("hash map size must be a power of two")
	// ErrHashMultiplierTooSmall is returned when the hash table would have no free slot left
	ErrHashMultiplierTooSmall = errors.New("hash multiplier must be at least 2")
	// ErrUnknownStrategy is returned when a map strategy name is not recognized
	ErrUnknownStrategy = errors.New("unknown map strategy")
)

const (
	// DefaultMaxRoutes matches the platform default of 256 distinct message ids
	DefaultMaxRoutes = 256

	// DefaultHashMultiplier sizes the hash map at four slots per route
	DefaultHashMultiplier = 4

	maxRouteLimit   = 1 << 24
	maxDirectMapLen = 1 << 24
)

// Strategy selects how message ids are mapped to routes.
type Strategy int

const (
	// DirectStrategy indexes an array by message id
	DirectStrategy Strategy = iota

	// HashStrategy uses an open-addressed hash table sized from the route capacity
	HashStrategy
)

// String returns the configuration name of the strategy.
func (s Strategy) String() string {
	switch s {
	case DirectStrategy:
		return "direct"
	case HashStrategy:
		return "hash"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// ParseStrategy converts a configuration name into a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "direct":
		return DirectStrategy, nil
	case "hash":
		return HashStrategy, nil
	default:
		return DirectStrategy, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// Config holds the platform configuration of a route table.
type Config struct {
	// MaxRoutes is the route table capacity (distinct message ids that can ever be routed)
	MaxRoutes int

	// HighestValidMsgID is the largest accepted message id. The zero value means unset and
	// SetDefaults replaces it with sb.DefaultHighestValidMsgID, so a ceiling of 0 is not expressible.
	HighestValidMsgID sb.MsgID

	// Strategy selects the message id map implementation
	Strategy Strategy

	// HashMultiplier sets the hash map size as a multiple of MaxRoutes
	HashMultiplier int

	// NextSequence computes the sequence count that follows a given count
	NextSequence func(sb.SequenceCount) sb.SequenceCount
}

// DefaultConfig returns the platform default configuration using the direct map.
func DefaultConfig() *Config {
	config := &Config{}
	config.SetDefaults()
	return config
}

// SetDefaults sets sensible default values for unset configuration fields
func (c *Config) SetDefaults() {
	if c.MaxRoutes <= 0 {
		c.MaxRoutes = DefaultMaxRoutes
	}
	if c.HighestValidMsgID == 0 {
		c.HighestValidMsgID = sb.DefaultHighestValidMsgID
	}
	if c.HashMultiplier <= 0 {
		c.HashMultiplier = DefaultHashMultiplier
	}
	if c.NextSequence == nil {
		c.NextSequence = sb.NextSequenceCount
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.MaxRoutes <= 0 || c.MaxRoutes > maxRouteLimit {
		return ErrInvalidMaxRoutes
	}

	switch c.Strategy {
	case DirectStrategy:
		if c.MsgIDRange().Size() > maxDirectMapLen {
			return fmt.Errorf("%w: %d entries", ErrDirectMapTooLarge, c.MsgIDRange().Size())
		}
	case HashStrategy:
		if c.HashMultiplier < 2 {
			return ErrHashMultiplierTooSmall
		}
		if !isPowerOfTwo(c.HashSize()) {
			return fmt.Errorf("%w: %d", ErrHashSizeNotPowerOfTwo, c.HashSize())
		}
	default:
		return fmt.Errorf("%w: %v", ErrUnknownStrategy, c.Strategy)
	}

	return nil
}

// MsgIDRange returns the range of message ids accepted by the table.
func (c *Config) MsgIDRange() sb.MsgIDRange {
	return sb.MsgIDRange{Highest: c.HighestValidMsgID}
}

// HashSize returns the number of hash map slots.
func (c *Config) HashSize() int {
	return c.HashMultiplier * c.MaxRoutes
}

// WithMaxRoutes sets the route table capacity
func (c *Config) WithMaxRoutes(n int) *Config {
	c.MaxRoutes = n
	return c
}

// WithHighestValidMsgID sets the message id ceiling
func (c *Config) WithHighestValidMsgID(id sb.MsgID) *Config {
	c.HighestValidMsgID = id
	return c
}

// WithStrategy sets the message id map strategy
func (c *Config) WithStrategy(s Strategy) *Config {
	c.Strategy = s
	return c
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

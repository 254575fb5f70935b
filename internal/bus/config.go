package bus

import (
	"errors"
	"fmt"

	"github.com/nasa/cFE-sub018/internal/sbr"
)

var (
	// ErrInvalidMaxDestinations is returned when the destination pool size is invalid
	ErrInvalidMaxDestinations = errors.New("max destinations must be positive")
	// ErrInvalidMaxDestPerRoute is returned when the per-route destination limit is invalid
	ErrInvalidMaxDestPerRoute = errors.New("max destinations per route must be positive")
)

const (
	// DefaultMaxDestinations is the size of the destination node pool shared by all routes
	DefaultMaxDestinations = 1024

	// DefaultMaxDestPerRoute is the maximum number of pipes subscribed to one message id
	DefaultMaxDestPerRoute = 16
)

// Config represents configuration for a Bus
type Config struct {
	// Routing configures the route table and message id map
	Routing *sbr.Config

	// MaxDestinations is the number of destination nodes available to all routes
	MaxDestinations int

	// MaxDestPerRoute limits the destinations on a single route
	MaxDestPerRoute int
}

// NewConfig creates a new Bus configuration with safe defaults
func NewConfig() *Config {
	config := &Config{}
	config.SetDefaults()
	return config
}

// SetDefaults sets sensible default values for unset configuration fields
func (c *Config) SetDefaults() {
	if c.Routing == nil {
		c.Routing = sbr.DefaultConfig()
	} else {
		c.Routing.SetDefaults()
	}
	if c.MaxDestinations <= 0 {
		c.MaxDestinations = DefaultMaxDestinations
	}
	if c.MaxDestPerRoute <= 0 {
		c.MaxDestPerRoute = DefaultMaxDestPerRoute
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	if c.MaxDestinations <= 0 {
		return ErrInvalidMaxDestinations
	}
	if c.MaxDestPerRoute <= 0 {
		return ErrInvalidMaxDestPerRoute
	}

	if c.Routing != nil {
		if err := c.Routing.Validate(); err != nil {
			return fmt.Errorf("invalid routing config: %w", err)
		}
	}

	return nil
}

// WithRoutingConfig sets the route table configuration
func (c *Config) WithRoutingConfig(config *sbr.Config) *Config {
	c.Routing = config
	return c
}

// WithMaxDestinations sets the destination pool size
func (c *Config) WithMaxDestinations(n int) *Config {
	c.MaxDestinations = n
	return c
}

// WithMaxDestPerRoute sets the per-route destination limit
func (c *Config) WithMaxDestPerRoute(n int) *Config {
	c.MaxDestPerRoute = n
	return c
}

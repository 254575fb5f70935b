package inspect

import (
	"errors"
	"time"
)

var (
	// ErrEmptyListenAddress is returned when no listen address is configured
	ErrEmptyListenAddress = errors.New("listen address cannot be empty")
	// ErrEmptySecretKey is returned when authentication is enabled without a secret
	ErrEmptySecretKey = errors.New("secret key cannot be empty unless no-auth mode is enabled")
	// ErrEmptyDumpDir is returned when no dump directory is configured
	ErrEmptyDumpDir = errors.New("dump directory cannot be empty")
)

const (
	// DefaultListenAddress is the inspection service address
	DefaultListenAddress = "localhost:9190"

	// DefaultListChunk is the number of routes read per table visit while streaming
	DefaultListChunk = 16

	// DefaultTokenTTL is how long issued tokens stay valid
	DefaultTokenTTL = 24 * time.Hour
)

// Config holds configuration for the inspection server
type Config struct {
	// ListenAddress is the host:port the gRPC server listens on
	ListenAddress string

	// SecretKey signs and verifies HS256 bearer tokens
	SecretKey string

	// NoAuth disables authentication for everything except admin methods (development only)
	NoAuth bool

	// DumpDir is where WriteMapInfo places dump files
	DumpDir string

	// ListChunk limits how many routes ListRoutes snapshots per lock hold
	ListChunk uint32

	// TokenTTL is the lifetime of tokens issued by the server's JWTAuth
	TokenTTL time.Duration
}

// NewConfig creates a new configuration with safe defaults
func NewConfig(secretKey string) *Config {
	config := &Config{SecretKey: secretKey}
	config.SetDefaults()
	return config
}

// SetDefaults sets sensible default values for unset configuration fields
func (c *Config) SetDefaults() {
	if c.ListenAddress == "" {
		c.ListenAddress = DefaultListenAddress
	}
	if c.DumpDir == "" {
		c.DumpDir = "."
	}
	if c.ListChunk == 0 {
		c.ListChunk = DefaultListChunk
	}
	if c.TokenTTL <= 0 {
		c.TokenTTL = DefaultTokenTTL
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.ListenAddress == "" {
		return ErrEmptyListenAddress
	}
	if c.SecretKey == "" && !c.NoAuth {
		return ErrEmptySecretKey
	}
	if c.DumpDir == "" {
		return ErrEmptyDumpDir
	}
	return nil
}

// WithNoAuth enables or disables development mode
func (c *Config) WithNoAuth(noAuth bool) *Config {
	c.NoAuth = noAuth
	return c
}

// WithDumpDir sets the dump directory
func (c *Config) WithDumpDir(dir string) *Config {
	c.DumpDir = dir
	return c
}

// WithListenAddress sets the listen address
func (c *Config) WithListenAddress(addr string) *Config {
	c.ListenAddress = addr
	return c
}

package inspectclient

import (
	"time"

	"google.golang.org/grpc"
)

// Config holds client configuration
type Config struct {
	// Address is the host:port of the route inspection service (e.g., "localhost:9190")
	Address string

	// Token is the bearer token sent with every call; empty for no-auth servers
	Token string

	// Timeout bounds each unary call
	Timeout time.Duration

	// DialOptions are appended to the client's own dial options
	DialOptions []grpc.DialOption
}

// SetDefaults sets reasonable default values for the config
func (c *Config) SetDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
}

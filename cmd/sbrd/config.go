package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nasa/cFE-sub018/internal/bus"
	"github.com/nasa/cFE-sub018/internal/catalog"
	"github.com/nasa/cFE-sub018/internal/inspect"
	"github.com/nasa/cFE-sub018/internal/mapdump"
	"github.com/nasa/cFE-sub018/internal/sbr"
	"github.com/nasa/cFE-sub018/pkg/sb"
)

// ErrZeroHighestMsgID is returned when highest_valid_msgid is explicitly set to 0
var ErrZeroHighestMsgID = errors.New("highest_valid_msgid must be greater than 0")

// FileConfig is the YAML configuration file of the daemon.
type FileConfig struct {
	Routing       RoutingConfig        `yaml:"routing"`
	Destinations  DestinationConfig    `yaml:"destinations"`
	Inspect       InspectConfig        `yaml:"inspect"`
	Catalog       string               `yaml:"catalog"`
	Housekeeping  HousekeepingConfig   `yaml:"housekeeping"`
	Subscriptions []SubscriptionConfig `yaml:"subscriptions"`
	TraceLevel    string               `yaml:"trace_level"`
}

// RoutingConfig configures the route table.
type RoutingConfig struct {
	MaxRoutes         int       `yaml:"max_routes"`
	HighestValidMsgID *sb.MsgID `yaml:"highest_valid_msgid"` // nil selects the platform default
	Strategy          string    `yaml:"strategy"`
	HashMultiplier    int       `yaml:"hash_multiplier"`
}

// DestinationConfig configures the destination pool.
type DestinationConfig struct {
	Max      int `yaml:"max"`
	PerRoute int `yaml:"per_route"`
}

// InspectConfig configures the inspection service.
type InspectConfig struct {
	Listen    string        `yaml:"listen"`
	SecretKey string        `yaml:"secret_key"`
	NoAuth    bool          `yaml:"no_auth"`
	DumpDir   string        `yaml:"dump_dir"`
	ListChunk uint32        `yaml:"list_chunk"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// HousekeepingConfig configures the periodic map dump.
type HousekeepingConfig struct {
	Interval time.Duration `yaml:"interval"`
	Database string        `yaml:"database"`
	Kind     string        `yaml:"kind"`
}

// SubscriptionConfig subscribes pipes to a message id at startup.
// MsgID may be a catalog name or a number.
type SubscriptionConfig struct {
	MsgID string      `yaml:"msgid"`
	Pipes []sb.PipeID `yaml:"pipes"`
}

// loadConfig reads a configuration file. An empty path yields the defaults.
func loadConfig(path string) (*FileConfig, error) {
	config := &FileConfig{}
	if path == "" {
		return config, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return config, nil
}

// busConfig builds the bus configuration.
func (c *FileConfig) busConfig() (*bus.Config, error) {
	strategy, err := sbr.ParseStrategy(c.Routing.Strategy)
	if err != nil {
		return nil, err
	}

	routing := &sbr.Config{
		MaxRoutes:      c.Routing.MaxRoutes,
		Strategy:       strategy,
		HashMultiplier: c.Routing.HashMultiplier,
	}
	if highest := c.Routing.HighestValidMsgID; highest != nil {
		// The route table treats 0 as unset, so an explicit 0 cannot be honoured
		if *highest == 0 {
			return nil, ErrZeroHighestMsgID
		}
		routing.HighestValidMsgID = *highest
	}
	routing.SetDefaults()

	config := bus.NewConfig().
		WithRoutingConfig(routing).
		WithMaxDestinations(c.Destinations.Max).
		WithMaxDestPerRoute(c.Destinations.PerRoute)
	config.SetDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// inspectConfig builds the inspection server configuration.
func (c *FileConfig) inspectConfig() *inspect.Config {
	config := &inspect.Config{
		ListenAddress: c.Inspect.Listen,
		SecretKey:     c.Inspect.SecretKey,
		NoAuth:        c.Inspect.NoAuth,
		DumpDir:       c.Inspect.DumpDir,
		ListChunk:     c.Inspect.ListChunk,
		TokenTTL:      c.Inspect.TokenTTL,
	}
	config.SetDefaults()
	return config
}

// housekeepingKind returns the dump kind written by housekeeping; map info by default.
func (c *FileConfig) housekeepingKind() (mapdump.Kind, error) {
	if c.Housekeeping.Kind == "" {
		return mapdump.MapInfo, nil
	}
	return mapdump.ParseKind(c.Housekeeping.Kind)
}

// loadCatalog loads the configured catalog, or returns an empty one.
func (c *FileConfig) loadCatalog(valid sb.MsgIDRange) (*catalog.Catalog, error) {
	if c.Catalog == "" {
		return catalog.New(valid), nil
	}
	return catalog.LoadFile(c.Catalog, valid)
}

// applySubscriptions subscribes the configured pipes and returns how many subscriptions were made.
func applySubscriptions(ctx context.Context, b *bus.Bus, names *catalog.Catalog, subs []SubscriptionConfig) (int, error) {
	count := 0
	for _, sub := range subs {
		id, err := names.Resolve(sub.MsgID)
		if err != nil {
			return count, err
		}
		for _, pipe := range sub.Pipes {
			if _, err := b.Subscribe(ctx, id, pipe); err != nil {
				return count, fmt.Errorf("subscribe %s pipe %d: %w", sub.MsgID, pipe, err)
			}
			count++
		}
	}
	return count, nil
}

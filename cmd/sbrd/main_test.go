package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nasa/cFE-sub018/internal/bus"
	"github.com/nasa/cFE-sub018/internal/catalog"
	"github.com/nasa/cFE-sub018/internal/mapdump"
	"github.com/nasa/cFE-sub018/internal/sbr"
	"github.com/nasa/cFE-sub018/pkg/sb"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	catalogPath := writeFile(t, dir, "msgids.yaml", `
messages:
  - name: CFE_SB_HK_TLM_MID
    msgid: 0x0803
`)
	configPath := writeFile(t, dir, "sbrd.yaml", `
routing:
  max_routes: 64
  highest_valid_msgid: 0xFFFF
  strategy: hash
destinations:
  max: 128
  per_route: 4
inspect:
  listen: 127.0.0.1:0
  secret_key: s3cret
  list_chunk: 8
  token_ttl: 2h
catalog: `+catalogPath+`
housekeeping:
  interval: 30s
  database: `+filepath.Join(dir, "hk.db")+`
subscriptions:
  - msgid: CFE_SB_HK_TLM_MID
    pipes: [1, 2]
  - msgid: 0x1803
    pipes: [3]
trace_level: debug
`)

	config, err := loadConfig(configPath)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if config.Routing.MaxRoutes != 64 || config.Routing.HighestValidMsgID == nil || *config.Routing.HighestValidMsgID != 0xFFFF {
		t.Errorf("Unexpected routing config %+v", config.Routing)
	}
	if config.Inspect.TokenTTL != 2*time.Hour {
		t.Errorf("Expected token ttl 2h, got %v", config.Inspect.TokenTTL)
	}
	if config.Housekeeping.Interval != 30*time.Second {
		t.Errorf("Expected interval 30s, got %v", config.Housekeeping.Interval)
	}
	if len(config.Subscriptions) != 2 || config.Subscriptions[1].MsgID != "0x1803" {
		t.Errorf("Unexpected subscriptions %+v", config.Subscriptions)
	}

	busConfig, err := config.busConfig()
	if err != nil {
		t.Fatalf("busConfig failed: %v", err)
	}
	if busConfig.Routing.Strategy != sbr.HashStrategy {
		t.Errorf("Expected hash strategy, got %v", busConfig.Routing.Strategy)
	}
	if busConfig.Routing.HashMultiplier != sbr.DefaultHashMultiplier {
		t.Errorf("Expected default hash multiplier, got %d", busConfig.Routing.HashMultiplier)
	}
	if busConfig.MaxDestinations != 128 || busConfig.MaxDestPerRoute != 4 {
		t.Errorf("Unexpected destination limits %d/%d", busConfig.MaxDestinations, busConfig.MaxDestPerRoute)
	}

	inspectConfig := config.inspectConfig()
	if inspectConfig.ListenAddress != "127.0.0.1:0" || inspectConfig.ListChunk != 8 {
		t.Errorf("Unexpected inspect config %+v", inspectConfig)
	}

	b, err := bus.New(busConfig)
	if err != nil {
		t.Fatalf("bus.New failed: %v", err)
	}
	defer b.Close()

	names, err := config.loadCatalog(busConfig.Routing.MsgIDRange())
	if err != nil {
		t.Fatalf("loadCatalog failed: %v", err)
	}

	count, err := applySubscriptions(context.Background(), b, names, config.Subscriptions)
	if err != nil {
		t.Fatalf("applySubscriptions failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 subscriptions, got %d", count)
	}

	delivery, err := b.Route(context.Background(), 0x0803, false)
	if err != nil {
		t.Fatalf("Route failed: %v", err)
	}
	if len(delivery.Pipes) != 2 {
		t.Errorf("Expected 2 pipes for 0x0803, got %v", delivery.Pipes)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	config, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	busConfig, err := config.busConfig()
	if err != nil {
		t.Fatalf("busConfig failed: %v", err)
	}
	if busConfig.Routing.Strategy != sbr.DirectStrategy || busConfig.Routing.MaxRoutes != sbr.DefaultMaxRoutes {
		t.Errorf("Unexpected default routing %+v", busConfig.Routing)
	}

	kind, err := config.housekeepingKind()
	if err != nil || kind != mapdump.MapInfo {
		t.Errorf("Expected map info housekeeping, got %v (%v)", kind, err)
	}

	names, err := config.loadCatalog(sb.DefaultMsgIDRange())
	if err != nil || names.Len() != 0 {
		t.Errorf("Expected empty catalog, got %v (%v)", names, err)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := loadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}

	bad := writeFile(t, dir, "bad.yaml", "routing: [")
	if _, err := loadConfig(bad); err == nil {
		t.Error("Expected parse error")
	}

	config := &FileConfig{Routing: RoutingConfig{Strategy: "tree"}}
	if _, err := config.busConfig(); !errors.Is(err, sbr.ErrUnknownStrategy) {
		t.Errorf("Expected ErrUnknownStrategy, got %v", err)
	}

	config = &FileConfig{Routing: RoutingConfig{Strategy: "hash", MaxRoutes: 100}}
	if _, err := config.busConfig(); !errors.Is(err, sbr.ErrHashSizeNotPowerOfTwo) {
		t.Errorf("Expected ErrHashSizeNotPowerOfTwo, got %v", err)
	}
}

func TestBusConfig_HighestValidMsgID(t *testing.T) {
	dir := t.TempDir()

	zero := writeFile(t, dir, "zero.yaml", "routing:\n  highest_valid_msgid: 0\n")
	config, err := loadConfig(zero)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if _, err := config.busConfig(); !errors.Is(err, ErrZeroHighestMsgID) {
		t.Errorf("Expected ErrZeroHighestMsgID, got %v", err)
	}

	unset := writeFile(t, dir, "unset.yaml", "routing:\n  max_routes: 16\n")
	config, err = loadConfig(unset)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	busConfig, err := config.busConfig()
	if err != nil {
		t.Fatalf("busConfig failed: %v", err)
	}
	if busConfig.Routing.HighestValidMsgID != sb.DefaultHighestValidMsgID {
		t.Errorf("Expected default ceiling %v, got %v", sb.DefaultHighestValidMsgID, busConfig.Routing.HighestValidMsgID)
	}

	one := writeFile(t, dir, "one.yaml", "routing:\n  highest_valid_msgid: 1\n")
	config, err = loadConfig(one)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	busConfig, err = config.busConfig()
	if err != nil {
		t.Fatalf("busConfig failed: %v", err)
	}
	if busConfig.Routing.HighestValidMsgID != 1 {
		t.Errorf("Expected ceiling 1, got %v", busConfig.Routing.HighestValidMsgID)
	}
}

func TestApplySubscriptions_UnknownName(t *testing.T) {
	b, err := bus.New(bus.NewConfig())
	if err != nil {
		t.Fatalf("bus.New failed: %v", err)
	}
	defer b.Close()

	names := catalog.New(sb.DefaultMsgIDRange())
	subs := []SubscriptionConfig{{MsgID: "NOT_A_NAME", Pipes: []sb.PipeID{1}}}
	if _, err := applySubscriptions(context.Background(), b, names, subs); !errors.Is(err, catalog.ErrUnknownName) {
		t.Errorf("Expected catalog.ErrUnknownName, got %v", err)
	}
}

func TestHousekeeping_WritesDumps(t *testing.T) {
	b, err := bus.New(bus.NewConfig())
	if err != nil {
		t.Fatalf("bus.New failed: %v", err)
	}
	defer b.Close()
	if _, err := b.Subscribe(context.Background(), 0x0803, 1); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	sink, err := mapdump.OpenSQLiteSink(filepath.Join(t.TempDir(), "hk.db"))
	if err != nil {
		t.Fatalf("OpenSQLiteSink failed: %v", err)
	}
	defer sink.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		housekeeping(ctx, b, sink, mapdump.MapInfo, 10*time.Millisecond)
		close(done)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for {
		var sessions int
		if err := sink.DB().QueryRow(`SELECT COUNT(*) FROM dump_sessions WHERE records = 1`).Scan(&sessions); err == nil && sessions >= 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Expected at least two housekeeping dumps")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("housekeeping did not stop")
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nasa/cFE-sub018/internal/bus"
	"github.com/nasa/cFE-sub018/internal/inspect"
	"github.com/nasa/cFE-sub018/internal/mapdump"
)

const (
	// Application info
	appName    = "SBR"
	appVersion = "0.1.0"
)

func main() {
	// Command-line flags
	var (
		configPath  = flag.String("config", "", "Path to YAML configuration file")
		listenAddr  = flag.String("listen", "", "Listen address for the route inspector (overrides config)")
		noAuth      = flag.Bool("no-auth", false, "Disable authentication for read-only calls (development only)")
		traceLevel  = flag.String("trace", "", "Trace level: error, info or debug (overrides config)")
		showVersion = flag.Bool("version", false, "Show version and exit")
	)
	flag.Parse()

	// Handle version flag
	if *showVersion {
		fmt.Printf("%s v%s\n", appName, appVersion)
		os.Exit(0)
	}

	config, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}
	if *listenAddr != "" {
		config.Inspect.Listen = *listenAddr
	}
	if *noAuth {
		config.Inspect.NoAuth = true
	}
	if *traceLevel != "" {
		config.TraceLevel = *traceLevel
	}

	// Configure logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	setupTracing(config.TraceLevel)
	log.Printf("🚀 Starting %s v%s", appName, appVersion)

	busConfig, err := config.busConfig()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	log.Printf("📋 Routes: %d (%s map), highest msgid %v",
		busConfig.Routing.MaxRoutes, busConfig.Routing.Strategy, busConfig.Routing.HighestValidMsgID)

	// Create the bus
	b, err := bus.New(busConfig)
	if err != nil {
		log.Fatalf("❌ Failed to create bus: %v", err)
	}
	defer func() {
		log.Printf("🛑 Closing bus...")
		if err := b.Close(); err != nil {
			log.Printf("⚠️  Error closing bus: %v", err)
		}
	}()

	names, err := config.loadCatalog(busConfig.Routing.MsgIDRange())
	if err != nil {
		log.Fatalf("❌ Failed to load catalog: %v", err)
	}
	log.Printf("📖 Catalog: %d message names", names.Len())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	count, err := applySubscriptions(ctx, b, names, config.Subscriptions)
	if err != nil {
		log.Fatalf("❌ Startup subscriptions failed: %v", err)
	}
	log.Printf("🔗 Startup subscriptions: %d", count)

	// Create the route inspector
	inspectConfig := config.inspectConfig()
	server, err := inspect.NewServer(b, inspectConfig, names)
	if err != nil {
		log.Fatalf("❌ Failed to create route inspector: %v", err)
	}
	if inspectConfig.NoAuth {
		log.Printf("⚠️  No-auth mode: read-only calls are not authenticated")
	}

	go func() {
		log.Printf("🔌 Route inspector listening on %s", inspectConfig.ListenAddress)
		if err := server.Start(); err != nil {
			log.Printf("❌ Route inspector stopped: %v", err)
			cancel()
		}
	}()

	// Periodic housekeeping dump
	if config.Housekeeping.Interval > 0 && config.Housekeeping.Database != "" {
		kind, err := config.housekeepingKind()
		if err != nil {
			log.Fatalf("❌ Invalid housekeeping configuration: %v", err)
		}
		sink, err := mapdump.OpenSQLiteSink(config.Housekeeping.Database)
		if err != nil {
			log.Fatalf("❌ Failed to open housekeeping database: %v", err)
		}
		defer sink.Close()

		log.Printf("🧹 Housekeeping: %s dump every %v to %s", kind, config.Housekeeping.Interval, config.Housekeeping.Database)
		go housekeeping(ctx, b, sink, kind, config.Housekeeping.Interval)
	}

	// Set up graceful shutdown
	setupGracefulShutdown(ctx, cancel, server)

	log.Printf("✅ %s started successfully!", appName)
	log.Printf("💡 Use Ctrl+C to shutdown gracefully")

	// Wait for shutdown signal
	<-ctx.Done()
	log.Printf("👋 %s stopped", appName)
}

// setupGracefulShutdown configures signal handling for graceful shutdown
func setupGracefulShutdown(ctx context.Context, cancel context.CancelFunc, server *inspect.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		select {
		case sig := <-sigChan:
			log.Printf("🛑 Received signal %v, shutting down gracefully...", sig)
		case <-ctx.Done():
		}

		// Create shutdown timeout context
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Stop(shutdownCtx); err != nil {
			log.Printf("⚠️  Error during graceful stop: %v", err)
		}

		// Cancel main context to exit
		cancel()
	}()
}

// housekeeping writes a dump every interval until ctx is done
func housekeeping(ctx context.Context, b *bus.Bus, sink mapdump.Sink, kind mapdump.Kind, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			summary, err := mapdump.Dump(ctx, b, sink, kind)
			if err != nil {
				log.Printf("⚠️  Housekeeping dump failed: %v", err)
				continue
			}
			log.Printf("🧹 %s dump %s: %d routes, %d records", kind, summary.Session, summary.Routes, summary.Records)
		}
	}
}

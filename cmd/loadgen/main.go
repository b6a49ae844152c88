// Command loadgen drives concurrent lending traffic against a ledger and checks the lending invariants
// while it runs. Flags after "--" configure the engine like ledgerd, e.g.
//
//	loadgen -workers=32 -duration=1m -- -engine=sqlite -sqlite-path=/tmp/ledger.db
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/AntonStoeckl/lending-ledger/eventstore/oteladapters"
	"github.com/AntonStoeckl/lending-ledger/ledger"
	"github.com/AntonStoeckl/lending-ledger/ledger/config"
)

func main() {
	settings := parseFlags()

	cfg, err := config.Load(config.DefaultEnvFile, flag.Args())
	if err != nil {
		log.Fatalf("loadgen: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := oteladapters.NewSlogBridgeLoggerWithHandler(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}),
	)

	engine, err := cfg.OpenEngine(ctx, config.Observability{})
	if err != nil {
		log.Fatalf("loadgen: open %s engine: %v", cfg.Engine, err)
	}
	defer func() { _ = engine.Close() }()

	l, err := ledger.New(engine.EventStore, ledger.WithPolicy(cfg.Policy))
	if err != nil {
		log.Fatalf("loadgen: %v", err)
	}

	generator, err := NewGenerator(l, settings, logger)
	if err != nil {
		log.Fatalf("loadgen: %v", err)
	}

	report, err := generator.Run(ctx)
	if err != nil {
		log.Fatalf("loadgen: %v", err)
	}

	report.Log(ctx, logger)

	if len(report.Violations) > 0 {
		os.Exit(1)
	}
}

func parseFlags() Settings {
	settings := DefaultSettings()

	flag.IntVar(&settings.Workers, "workers", settings.Workers, "number of concurrent workers")
	flag.DurationVar(&settings.Duration, "duration", settings.Duration, "how long to generate traffic")
	flag.IntVar(&settings.Users, "users", settings.Users, "number of users to register")
	flag.IntVar(&settings.Books, "books", settings.Books, "number of books to register")
	flag.IntVar(&settings.Copies, "copies", settings.Copies, "copies per book")
	flag.DurationVar(&settings.CheckInterval, "check-interval", settings.CheckInterval, "interval of the live invariant check")
	flag.Parse()

	return settings
}


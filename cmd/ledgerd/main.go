// Command ledgerd runs the background side of the lending ledger: the daily overdue sweep,
// the notification dispatcher and the Prometheus /metrics endpoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/AntonStoeckl/lending-ledger/eventstore/oteladapters"
	"github.com/AntonStoeckl/lending-ledger/eventstore/promadapters"
	"github.com/AntonStoeckl/lending-ledger/ledger"
	"github.com/AntonStoeckl/lending-ledger/ledger/config"
	"github.com/AntonStoeckl/lending-ledger/ledger/fulfillment"
	"github.com/AntonStoeckl/lending-ledger/ledger/shell"
	"github.com/AntonStoeckl/lending-ledger/ledger/sweep"
)

const (
	serviceName              = "ledgerd"
	telemetryShutdownTimeout = 5 * time.Second
	metricsShutdownTimeout   = 5 * time.Second
	metricsReadHeaderTimeout = 5 * time.Second
)

func main() {
	cfg, err := config.Load(config.DefaultEnvFile, os.Args[1:])
	if err != nil {
		log.Fatalf("ledgerd: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("ledgerd: %v", err)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	obs := config.Observability{ContextualLogger: logger, MetricsCollector: promadapters.NewMetricsCollector(registry)}

	telemetry, err := cfg.SetupTelemetry(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("set up telemetry: %w", err)
	}
	if telemetry != nil {
		defer shutdownTelemetry(ctx, telemetry, logger)

		exported := telemetry.Observability(serviceName)
		obs.MetricsCollector = metricsFanOut{obs.MetricsCollector, exported.MetricsCollector}
		obs.TracingCollector = exported.TracingCollector
	}

	engine, err := cfg.OpenEngine(ctx, obs)
	if err != nil {
		return fmt.Errorf("open %s engine: %w", cfg.Engine, err)
	}
	defer func() {
		if closeErr := engine.Close(); closeErr != nil {
			logger.ErrorContext(ctx, "closing engine failed", "error", closeErr.Error())
		}
	}()

	dispatcher, err := fulfillment.NewDispatcher(
		fulfillment.NewLogSink(logger.Slog()),
		fulfillment.WithBufferSize(cfg.NotificationBufferSize),
		fulfillment.WithDispatcherContextualLogger(logger),
		fulfillment.WithDispatcherMetrics(obs.MetricsCollector),
	)
	if err != nil {
		return err
	}

	l, err := ledger.New(engine.EventStore,
		ledger.WithPolicy(cfg.Policy),
		ledger.WithNotifications(dispatcher),
		ledger.WithMetrics(obs.MetricsCollector),
		ledger.WithTracing(obs.TracingCollector),
		ledger.WithContextualLogger(logger),
	)
	if err != nil {
		return err
	}

	scheduler, err := newScheduler(l, cfg, logger)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "ledgerd started",
		"engine", string(engine.Name),
		"telemetry", telemetry != nil,
		"sweep_at", cfg.SweepAt.String(),
		"timezone", cfg.Timezone,
		"metrics_addr", cfg.MetricsAddr,
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return dispatcher.Run(groupCtx) })
	group.Go(func() error { return scheduler.Run(groupCtx) })

	if cfg.MetricsAddr != "" {
		server := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metricsHandler(registry),
			ReadHeaderTimeout: metricsReadHeaderTimeout,
		}
		group.Go(func() error { return serve(groupCtx, server) })
	}

	err = group.Wait()
	logger.InfoContext(ctx, "ledgerd stopped", "pending_notifications", dispatcher.Pending())

	return err
}

func newScheduler(l *ledger.Ledger, cfg config.Config, logger shell.ContextualLogger) (*sweep.Scheduler, error) {
	sweeper, err := l.NewSweeper()
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	return sweep.NewScheduler(sweeper, cfg.SweepAt, shell.SystemClock(),
		sweep.WithLocation(loc),
		sweep.WithSchedulerContextualLogger(logger),
	)
}

func shutdownTelemetry(ctx context.Context, telemetry *config.Telemetry, logger shell.ContextualLogger) {
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), telemetryShutdownTimeout)
	defer cancel()

	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.ErrorContext(ctx, "telemetry shutdown failed", "error", err.Error())
	}
}

func metricsHandler(registry *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return mux
}

func serve(ctx context.Context, server *http.Server) error {
	errs := make(chan error, 1)
	go func() {
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return fmt.Errorf("metrics endpoint: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), metricsShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	}
}

package ledger

import (
	"errors"

	"github.com/AntonStoeckl/lending-ledger/ledger/core"
	"github.com/AntonStoeckl/lending-ledger/ledger/fulfillment"
	"github.com/AntonStoeckl/lending-ledger/ledger/shell"
	"github.com/AntonStoeckl/lending-ledger/ledger/shell/observable"
)

// ErrNilOption is returned when an option gets a nil dependency.
var ErrNilOption = errors.New("ledger option must not be nil")

type config struct {
	clock            shell.Clock
	policy           core.Policy
	retryOptions     []shell.RetryOption
	enqueuer         fulfillment.Enqueuer
	metricsCollector shell.MetricsCollector
	tracingCollector shell.TracingCollector
	logger           shell.Logger
	contextualLogger shell.ContextualLogger
}

// Option configures a Ledger.
type Option func(*config) error

// WithClock sets the clock which provides "now" for every command. The system clock is the default.
func WithClock(clock shell.Clock) Option {
	return func(c *config) error {
		if clock == nil {
			return ErrNilOption
		}

		c.clock = clock

		return nil
	}
}

// WithPolicy sets the lending rules. core.DefaultPolicy() is the default.
func WithPolicy(policy core.Policy) Option {
	return func(c *config) error {
		if err := policy.Validate(); err != nil {
			return err
		}

		c.policy = policy

		return nil
	}
}

// WithRetryOptions configures the retries after concurrency conflicts.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(c *config) error {
		c.retryOptions = append(c.retryOptions, opts...)
		return nil
	}
}

// WithNotifications sets where reservation notifications go, usually a *fulfillment.Dispatcher.
// Without it notifications are discarded.
func WithNotifications(enqueuer fulfillment.Enqueuer) Option {
	return func(c *config) error {
		if enqueuer == nil {
			return ErrNilOption
		}

		c.enqueuer = enqueuer

		return nil
	}
}

// WithMetrics sets the metrics collector of all handlers.
func WithMetrics(collector shell.MetricsCollector) Option {
	return func(c *config) error {
		c.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector of all handlers.
func WithTracing(collector shell.TracingCollector) Option {
	return func(c *config) error {
		c.tracingCollector = collector
		return nil
	}
}

// WithLogger sets the logger of all handlers and of the coordinator.
func WithLogger(logger shell.Logger) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}

// WithContextualLogger sets a context-aware logger, it takes precedence over the plain logger.
func WithContextualLogger(logger shell.ContextualLogger) Option {
	return func(c *config) error {
		c.contextualLogger = logger
		return nil
	}
}

func (c config) handlerOptions() []shell.HandlerOption {
	return []shell.HandlerOption{
		shell.WithPolicy(c.policy),
		shell.WithRetryOptions(c.retryOptions...),
	}
}

func wrapCommand[C shell.Command](handler shell.CommandHandler[C], c config) (shell.CommandHandler[C], error) {
	return observable.NewCommandWrapper(handler,
		observable.WithCommandMetrics[C](c.metricsCollector),
		observable.WithCommandTracing[C](c.tracingCollector),
		observable.WithCommandLogging[C](c.logger),
		observable.WithCommandContextualLogging[C](c.contextualLogger),
	)
}

func wrapQuery[Q shell.Query, R any](handler shell.QueryHandler[Q, R], c config) (shell.QueryHandler[Q, R], error) {
	return observable.NewQueryWrapper(handler,
		observable.WithQueryMetrics[Q, R](c.metricsCollector),
		observable.WithQueryTracing[Q, R](c.tracingCollector),
		observable.WithQueryLogging[Q, R](c.logger),
		observable.WithQueryContextualLogging[Q, R](c.contextualLogger),
	)
}

package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AntonStoeckl/lending-ledger/ledger/shell"
)

const (
	// DefaultBufferSize is the number of notifications the Dispatcher holds before it drops new ones.
	DefaultBufferSize = 256

	// NotificationsDeliveredMetric counts notifications the sink accepted.
	NotificationsDeliveredMetric = "ledger_notifications_delivered_total"

	// NotificationsFailedMetric counts notifications the sink rejected.
	NotificationsFailedMetric = "ledger_notifications_failed_total"

	// NotificationsDroppedMetric counts notifications dropped because the buffer was full.
	NotificationsDroppedMetric = "ledger_notifications_dropped_total"

	deliveryTimeout = 5 * time.Second
)

var (
	// ErrNilSink is returned when a Dispatcher is created without a Sink.
	ErrNilSink = errors.New("notification sink must not be nil")

	// ErrInvalidBufferSize is returned for a buffer size below 1.
	ErrInvalidBufferSize = errors.New("notification buffer size must be positive")
)

// Dispatcher decouples notification delivery from the commands which cause it.
// Enqueue never blocks. A single worker, started with Run, hands the notifications to the Sink in order.
type Dispatcher struct {
	queue            chan Notification
	sink             Sink
	logger           shell.Logger
	contextualLogger shell.ContextualLogger
	metricsCollector shell.MetricsCollector
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*dispatcherConfig) error

type dispatcherConfig struct {
	bufferSize       int
	logger           shell.Logger
	contextualLogger shell.ContextualLogger
	metricsCollector shell.MetricsCollector
}

// WithBufferSize sets the capacity of the notification buffer.
func WithBufferSize(size int) DispatcherOption {
	return func(c *dispatcherConfig) error {
		if size < 1 {
			return fmt.Errorf("%w: %d", ErrInvalidBufferSize, size)
		}

		c.bufferSize = size

		return nil
	}
}

// WithDispatcherLogger sets the logger for dropped and failed notifications.
func WithDispatcherLogger(logger shell.Logger) DispatcherOption {
	return func(c *dispatcherConfig) error {
		c.logger = logger
		return nil
	}
}

// WithDispatcherContextualLogger sets a context-aware logger, it takes precedence over the plain logger.
func WithDispatcherContextualLogger(logger shell.ContextualLogger) DispatcherOption {
	return func(c *dispatcherConfig) error {
		c.contextualLogger = logger
		return nil
	}
}

// WithDispatcherMetrics sets the metrics collector.
func WithDispatcherMetrics(collector shell.MetricsCollector) DispatcherOption {
	return func(c *dispatcherConfig) error {
		c.metricsCollector = collector
		return nil
	}
}

// NewDispatcher creates a Dispatcher delivering to sink.
func NewDispatcher(sink Sink, opts ...DispatcherOption) (*Dispatcher, error) {
	if sink == nil {
		return nil, ErrNilSink
	}

	config := dispatcherConfig{bufferSize: DefaultBufferSize}
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return nil, err
		}
	}

	return &Dispatcher{
		queue:            make(chan Notification, config.bufferSize),
		sink:             sink,
		logger:           config.logger,
		contextualLogger: config.contextualLogger,
		metricsCollector: config.metricsCollector,
	}, nil
}

// Enqueue buffers the notification for delivery. It returns false, and logs, if the buffer is full.
func (d *Dispatcher) Enqueue(ctx context.Context, notification Notification) bool {
	select {
	case d.queue <- notification:
		return true
	default:
		shell.IncrementCounter(ctx, d.metricsCollector, NotificationsDroppedMetric, nil)
		shell.LogWarn(ctx, d.logger, d.contextualLogger, "notification dropped, buffer is full",
			"user_id", notification.UserID,
			"book_id", notification.BookID,
			"reservation_id", notification.ReservationID,
		)

		return false
	}
}

// Pending returns the number of buffered notifications.
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

// Run delivers notifications until ctx is done, then delivers what is still buffered and returns nil.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case notification := <-d.queue:
			d.deliver(ctx, notification)

		case <-ctx.Done():
			d.drain()
			return nil
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case notification := <-d.queue:
			d.deliver(context.Background(), notification)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, notification Notification) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliveryTimeout)
	defer cancel()

	if err := d.sink.Deliver(ctx, notification); err != nil {
		shell.IncrementCounter(ctx, d.metricsCollector, NotificationsFailedMetric, nil)
		shell.LogError(ctx, d.logger, d.contextualLogger, "notification delivery failed",
			"user_id", notification.UserID,
			"reservation_id", notification.ReservationID,
			shell.LogAttrError, err.Error(),
		)

		return
	}

	shell.IncrementCounter(ctx, d.metricsCollector, NotificationsDeliveredMetric, nil)
}

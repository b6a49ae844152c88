package fulfillment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/AntonStoeckl/lending-ledger/ledger/core"
)

// Notification tells a waiting user that a copy of the reserved book came back.
type Notification struct {
	UserID        core.UserIDString
	BookID        core.BookIDString
	ReservationID core.ReservationIDString
	Message       string
	CreatedAt     time.Time
}

// Sink delivers notifications to users.
type Sink interface {
	Deliver(ctx context.Context, notification Notification) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, notification Notification) error

// Deliver calls f.
func (f SinkFunc) Deliver(ctx context.Context, notification Notification) error {
	return f(ctx, notification)
}

// LogSink writes notifications to a structured log.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink. A nil logger means slog.Default().
func NewLogSink(logger *slog.Logger) LogSink {
	if logger == nil {
		logger = slog.Default()
	}

	return LogSink{logger: logger}
}

// Deliver logs the notification at info level.
func (s LogSink) Deliver(ctx context.Context, notification Notification) error {
	s.logger.InfoContext(ctx, "notification delivered",
		slog.String("user_id", notification.UserID),
		slog.String("book_id", notification.BookID),
		slog.String("reservation_id", notification.ReservationID),
		slog.String("message", notification.Message),
	)

	return nil
}

// FanOut delivers every notification to all of its sinks.
type FanOut []Sink

// Deliver tries every sink and joins their errors.
func (f FanOut) Deliver(ctx context.Context, notification Notification) error {
	var errs []error

	for _, sink := range f {
		if err := sink.Deliver(ctx, notification); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

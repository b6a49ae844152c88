package sweep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AntonStoeckl/lending-ledger/ledger/shell"
)

// ErrInvalidTimeOfDay is returned for a time of day not in HH:MM format.
var ErrInvalidTimeOfDay = errors.New("invalid time of day, expected HH:MM")

// TimeOfDay is a wall clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" in 24-hour format.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}

	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// NextRun returns the first instant at the time of day in loc which is strictly after now.
func NextRun(now time.Time, at TimeOfDay, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), at.Hour, at.Minute, 0, 0, loc)

	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}

	return next
}

// Runner runs one sweep. *Sweeper implements it.
type Runner interface {
	Run(ctx context.Context, today time.Time) (Report, error)
}

// Scheduler runs a sweep once a day at a fixed time of day.
type Scheduler struct {
	runner           Runner
	at               TimeOfDay
	location         *time.Location
	clock            shell.Clock
	after            func(d time.Duration) <-chan time.Time
	logger           shell.Logger
	contextualLogger shell.ContextualLogger
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithLocation sets the time zone of the time of day and of the calendar day handed to the runner, UTC by default.
func WithLocation(loc *time.Location) SchedulerOption {
	return func(s *Scheduler) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithTimer replaces time.After, e.g. to drive the Scheduler from a fake clock.
func WithTimer(after func(d time.Duration) <-chan time.Time) SchedulerOption {
	return func(s *Scheduler) {
		s.after = after
	}
}

// WithSchedulerLogger sets the logger.
func WithSchedulerLogger(logger shell.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithSchedulerContextualLogger sets a context-aware logger, it takes precedence over the plain logger.
func WithSchedulerContextualLogger(logger shell.ContextualLogger) SchedulerOption {
	return func(s *Scheduler) {
		s.contextualLogger = logger
	}
}

// NewScheduler creates a Scheduler firing runner daily at the given time of day.
func NewScheduler(runner Runner, at TimeOfDay, clock shell.Clock, opts ...SchedulerOption) (*Scheduler, error) {
	if runner == nil || clock == nil {
		return nil, ErrMissingDependency
	}

	s := &Scheduler{
		runner:   runner,
		at:       at,
		location: time.UTC,
		clock:    clock,
		after:    time.After,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Run blocks until ctx is done and returns nil then. A failed sweep is logged and the next one is scheduled.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		now := s.clock.Now()
		next := NextRun(now, s.at, s.location)

		shell.LogInfo(ctx, s.logger, s.contextualLogger, "overdue sweep scheduled",
			"next_run", next.Format(time.RFC3339),
		)

		select {
		case <-ctx.Done():
			return nil

		case <-s.after(next.Sub(now)):
			if _, err := s.runner.Run(ctx, s.clock.Now().In(s.location)); err != nil {
				if ctx.Err() != nil {
					return nil
				}

				shell.LogError(ctx, s.logger, s.contextualLogger, "overdue sweep failed",
					shell.LogAttrError, err.Error(),
				)
			}
		}
	}
}

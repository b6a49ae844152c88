package sweep

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger/eventstore"
	"github.com/AntonStoeckl/lending-ledger/ledger/core"
	"github.com/AntonStoeckl/lending-ledger/ledger/features/command/markloanoverdue"
	"github.com/AntonStoeckl/lending-ledger/ledger/shell"
)

const (
	// SweepDurationMetric tracks the duration of a sweep.
	SweepDurationMetric = "ledger_sweep_duration_seconds"

	// SweepLoansMetric tracks the loans of a sweep by outcome: marked, skipped or failed.
	SweepLoansMetric = "ledger_sweep_loans"

	logMsgSweepCompleted = "overdue sweep completed"
	logMsgMarkFailed     = "marking loan overdue failed"
)

// ErrMissingDependency is returned when a Sweeper is created without one of its collaborators.
var ErrMissingDependency = errors.New("sweep dependency must not be nil")

// Report summarizes one sweep.
type Report struct {
	Today    time.Time
	Scanned  int
	Marked   int
	Skipped  int
	Failed   int
	Duration time.Duration
}

type markOverdueHandler = shell.CommandHandler[markloanoverdue.Command]

// Sweeper finds past-due loans and marks them OVERDUE. It never changes the available copies of a book.
type Sweeper struct {
	eventStore       shell.QueriesEvents
	markOverdue      markOverdueHandler
	clock            shell.Clock
	logger           shell.Logger
	contextualLogger shell.ContextualLogger
	metricsCollector shell.MetricsCollector
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithLogger sets the logger.
func WithLogger(logger shell.Logger) Option {
	return func(s *Sweeper) {
		s.logger = logger
	}
}

// WithContextualLogger sets a context-aware logger, it takes precedence over the plain logger.
func WithContextualLogger(logger shell.ContextualLogger) Option {
	return func(s *Sweeper) {
		s.contextualLogger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(collector shell.MetricsCollector) Option {
	return func(s *Sweeper) {
		s.metricsCollector = collector
	}
}

// NewSweeper creates a Sweeper.
func NewSweeper(
	eventStore shell.QueriesEvents,
	markOverdue markOverdueHandler,
	clock shell.Clock,
	opts ...Option,
) (*Sweeper, error) {

	if eventStore == nil || markOverdue == nil || clock == nil {
		return nil, ErrMissingDependency
	}

	s := &Sweeper{eventStore: eventStore, markOverdue: markOverdue, clock: clock}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Run marks all loans which are LOANED and due before today.
// Failures of single loans are counted and logged. An error is returned only if the loans cannot be read
// or ctx ends during the sweep, the report then covers the loans handled so far.
func (s *Sweeper) Run(ctx context.Context, today time.Time) (Report, error) {
	start := time.Now()
	report := Report{Today: core.ToCalendarDate(today)}

	history, err := shell.QueryDomainEventsEventually(ctx, s.eventStore, BuildEventFilter())
	if err != nil {
		return report, shell.ClassifyError(err)
	}

	loans := core.ProjectLoans(history)
	report.Scanned = len(loans)

	for _, loan := range loans {
		if err := ctx.Err(); err != nil {
			report.Duration = time.Since(start)
			return report, shell.ClassifyError(err)
		}

		if !loan.IsOverdueOn(report.Today) {
			report.Skipped++
			continue
		}

		s.mark(ctx, loan, &report)
	}

	report.Duration = time.Since(start)
	s.record(ctx, report)

	return report, nil
}

func (s *Sweeper) mark(ctx context.Context, loan core.Loan, report *Report) {
	loanID, err := uuid.Parse(loan.LoanID)
	if err == nil {
		var result shell.HandlerResult

		result, err = s.markOverdue.Handle(ctx, markloanoverdue.BuildCommand(loanID, report.Today, s.clock.Now()))
		if err == nil {
			if result.Idempotent {
				report.Skipped++
			} else {
				report.Marked++
			}

			return
		}
	}

	report.Failed++
	shell.LogError(ctx, s.logger, s.contextualLogger, logMsgMarkFailed,
		"loan_id", loan.LoanID,
		shell.LogAttrErrorKind, core.KindOf(err),
		shell.LogAttrError, err.Error(),
	)
}

func (s *Sweeper) record(ctx context.Context, report Report) {
	shell.RecordDuration(ctx, s.metricsCollector, SweepDurationMetric, report.Duration, nil)

	if s.metricsCollector != nil {
		s.metricsCollector.RecordValue(SweepLoansMetric, float64(report.Marked), map[string]string{"outcome": "marked"})
		s.metricsCollector.RecordValue(SweepLoansMetric, float64(report.Skipped), map[string]string{"outcome": "skipped"})
		s.metricsCollector.RecordValue(SweepLoansMetric, float64(report.Failed), map[string]string{"outcome": "failed"})
	}

	shell.LogInfo(ctx, s.logger, s.contextualLogger, logMsgSweepCompleted,
		"today", report.Today.Format(time.DateOnly),
		"scanned", report.Scanned,
		"marked", report.Marked,
		"skipped", report.Skipped,
		"failed", report.Failed,
		shell.LogAttrDurationMS, shell.ToMilliseconds(report.Duration),
	)
}

// BuildEventFilter creates the filter for reading all loans.
func BuildEventFilter() eventstore.Filter {
	types := core.LoanEventTypes()

	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(types[0], types[1:]...).
		Finalize()
}

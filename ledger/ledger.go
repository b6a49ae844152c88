package ledger

import (
	"github.com/AntonStoeckl/lending-ledger/ledger/core"
	"github.com/AntonStoeckl/lending-ledger/ledger/features/command/cancelreservation"
	"github.com/AntonStoeckl/lending-ledger/ledger/features/command/completereservation"
	"github.com/AntonStoeckl/lending-ledger/ledger/features/command/completereservationforloan"
	"github.com/AntonStoeckl/lending-ledger/ledger/features/command/createloan"
	"github.com/AntonStoeckl/lending-ledger/ledger/features/command/createreservation"
	"github.com/AntonStoeckl/lending-ledger/ledger/features/command/extendloan"
	"github.com/AntonStoeckl/lending-ledger/ledger/features/command/markloanoverdue"
	"github.com/AntonStoeckl/lending-ledger/ledger/features/command/registerbook"
	"github.com/AntonStoeckl/lending-ledger/ledger/features/command/registeruser"
	"github.com/AntonStoeckl/lending-ledger/ledger/features/command/removebook"
	"github.com/AntonStoeckl/lending-ledger/ledger/features/command/returnloan"
	"github.com/AntonStoeckl/lending-ledger/ledger/features/query/bookavailability"
	"github.com/AntonStoeckl/lending-ledger/ledger/features/query/loansbyuser"
	"github.com/AntonStoeckl/lending-ledger/ledger/features/query/reservationqueue"
	"github.com/AntonStoeckl/lending-ledger/ledger/features/query/reservationsbyuser"
	"github.com/AntonStoeckl/lending-ledger/ledger/fulfillment"
	"github.com/AntonStoeckl/lending-ledger/ledger/shell"
	"github.com/AntonStoeckl/lending-ledger/ledger/sweep"
)

// Ledger is the entry point for all lending and reservation operations. It is safe for concurrent use.
type Ledger struct {
	eventStore shell.EventStore
	config     config

	registerBook               shell.CommandHandler[registerbook.Command]
	removeBook                 shell.CommandHandler[removebook.Command]
	registerUser               shell.CommandHandler[registeruser.Command]
	createLoan                 shell.CommandHandler[createloan.Command]
	returnLoan                 shell.CommandHandler[returnloan.Command]
	extendLoan                 shell.CommandHandler[extendloan.Command]
	markLoanOverdue            shell.CommandHandler[markloanoverdue.Command]
	createReservation          shell.CommandHandler[createreservation.Command]
	cancelReservation          shell.CommandHandler[cancelreservation.Command]
	completeReservation        shell.CommandHandler[completereservation.Command]
	completeReservationForLoan shell.CommandHandler[completereservationforloan.Command]

	loansByUser        shell.QueryHandler[loansbyuser.Query, loansbyuser.LoansByUser]
	reservationsByUser shell.QueryHandler[reservationsbyuser.Query, reservationsbyuser.ReservationsByUser]
	reservationQueue   shell.QueryHandler[reservationqueue.Query, reservationqueue.ReservationQueue]
	bookAvailability   shell.QueryHandler[bookavailability.Query, bookavailability.BookAvailability]

	coordinator *fulfillment.Coordinator
}

// New creates a Ledger on top of eventStore.
func New(eventStore shell.EventStore, opts ...Option) (*Ledger, error) {
	if eventStore == nil {
		return nil, shell.ErrNilEventStore
	}

	c := config{
		clock:    shell.SystemClock(),
		policy:   core.DefaultPolicy(),
		enqueuer: fulfillment.Discard,
	}

	for _, opt := range opts {
		if err := opt(&c); err != nil {
			return nil, err
		}
	}

	l := &Ledger{eventStore: eventStore, config: c}

	if err := l.buildCommandHandlers(); err != nil {
		return nil, err
	}

	if err := l.buildQueryHandlers(); err != nil {
		return nil, err
	}

	coordinator, err := fulfillment.NewCoordinator(
		l.completeReservationForLoan,
		l.reservationQueue,
		c.enqueuer,
		c.clock,
		fulfillment.WithCoordinatorLogger(c.logger),
		fulfillment.WithCoordinatorContextualLogger(c.contextualLogger),
	)
	if err != nil {
		return nil, err
	}

	l.coordinator = coordinator

	return l, nil
}

// Policy returns the lending rules of the Ledger.
func (l *Ledger) Policy() core.Policy {
	return l.config.policy
}

// NewSweeper creates the Overdue Sweep for this Ledger.
func (l *Ledger) NewSweeper() (*sweep.Sweeper, error) {
	return sweep.NewSweeper(l.eventStore, l.markLoanOverdue, l.config.clock,
		sweep.WithLogger(l.config.logger),
		sweep.WithContextualLogger(l.config.contextualLogger),
		sweep.WithMetrics(l.config.metricsCollector),
	)
}

//nolint:funlen
func (l *Ledger) buildCommandHandlers() error {
	es, c, opts := l.eventStore, l.config, l.config.handlerOptions()

	registerBook, err := registerbook.NewCommandHandler(es, opts...)
	if err != nil {
		return err
	}
	if l.registerBook, err = wrapCommand[registerbook.Command](registerBook, c); err != nil {
		return err
	}

	removeBook, err := removebook.NewCommandHandler(es, opts...)
	if err != nil {
		return err
	}
	if l.removeBook, err = wrapCommand[removebook.Command](removeBook, c); err != nil {
		return err
	}

	registerUser, err := registeruser.NewCommandHandler(es, opts...)
	if err != nil {
		return err
	}
	if l.registerUser, err = wrapCommand[registeruser.Command](registerUser, c); err != nil {
		return err
	}

	createLoan, err := createloan.NewCommandHandler(es, opts...)
	if err != nil {
		return err
	}
	if l.createLoan, err = wrapCommand[createloan.Command](createLoan, c); err != nil {
		return err
	}

	returnLoan, err := returnloan.NewCommandHandler(es, opts...)
	if err != nil {
		return err
	}
	if l.returnLoan, err = wrapCommand[returnloan.Command](returnLoan, c); err != nil {
		return err
	}

	extendLoan, err := extendloan.NewCommandHandler(es, opts...)
	if err != nil {
		return err
	}
	if l.extendLoan, err = wrapCommand[extendloan.Command](extendLoan, c); err != nil {
		return err
	}

	markLoanOverdue, err := markloanoverdue.NewCommandHandler(es, opts...)
	if err != nil {
		return err
	}
	if l.markLoanOverdue, err = wrapCommand[markloanoverdue.Command](markLoanOverdue, c); err != nil {
		return err
	}

	createReservation, err := createreservation.NewCommandHandler(es, opts...)
	if err != nil {
		return err
	}
	if l.createReservation, err = wrapCommand[createreservation.Command](createReservation, c); err != nil {
		return err
	}

	cancelReservation, err := cancelreservation.NewCommandHandler(es, opts...)
	if err != nil {
		return err
	}
	if l.cancelReservation, err = wrapCommand[cancelreservation.Command](cancelReservation, c); err != nil {
		return err
	}

	completeReservation, err := completereservation.NewCommandHandler(es, opts...)
	if err != nil {
		return err
	}
	if l.completeReservation, err = wrapCommand[completereservation.Command](completeReservation, c); err != nil {
		return err
	}

	completeReservationForLoan, err := completereservationforloan.NewCommandHandler(es, opts...)
	if err != nil {
		return err
	}
	l.completeReservationForLoan, err = wrapCommand[completereservationforloan.Command](completeReservationForLoan, c)

	return err
}

func (l *Ledger) buildQueryHandlers() error {
	es, c := l.eventStore, l.config

	loansByUser, err := loansbyuser.NewQueryHandler(es)
	if err != nil {
		return err
	}
	if l.loansByUser, err = wrapQuery[loansbyuser.Query, loansbyuser.LoansByUser](loansByUser, c); err != nil {
		return err
	}

	reservationsByUser, err := reservationsbyuser.NewQueryHandler(es)
	if err != nil {
		return err
	}
	l.reservationsByUser, err = wrapQuery[reservationsbyuser.Query, reservationsbyuser.ReservationsByUser](reservationsByUser, c)
	if err != nil {
		return err
	}

	reservationQueue, err := reservationqueue.NewQueryHandler(es)
	if err != nil {
		return err
	}
	l.reservationQueue, err = wrapQuery[reservationqueue.Query, reservationqueue.ReservationQueue](reservationQueue, c)
	if err != nil {
		return err
	}

	bookAvailability, err := bookavailability.NewQueryHandler(es)
	if err != nil {
		return err
	}
	l.bookAvailability, err = wrapQuery[bookavailability.Query, bookavailability.BookAvailability](bookAvailability, c)

	return err
}

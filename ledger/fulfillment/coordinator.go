package fulfillment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger/ledger/core"
	"github.com/AntonStoeckl/lending-ledger/ledger/features/command/completereservationforloan"
	"github.com/AntonStoeckl/lending-ledger/ledger/features/query/reservationqueue"
	"github.com/AntonStoeckl/lending-ledger/ledger/shell"
)

// ErrMissingDependency is returned when a Coordinator is created without one of its collaborators.
var ErrMissingDependency = errors.New("fulfillment coordinator dependency must not be nil")

// Enqueuer accepts notifications for asynchronous delivery. *Dispatcher implements it.
type Enqueuer interface {
	Enqueue(ctx context.Context, notification Notification) bool
}

type (
	completeForLoanHandler = shell.CommandHandler[completereservationforloan.Command]
	queueQueryHandler      = shell.QueryHandler[reservationqueue.Query, reservationqueue.ReservationQueue]
)

// Coordinator runs the follow-ups of committed loans and returns.
// Its hooks never fail the operation which triggered them, errors are logged.
type Coordinator struct {
	completeForLoan  completeForLoanHandler
	queue            queueQueryHandler
	enqueuer         Enqueuer
	clock            shell.Clock
	logger           shell.Logger
	contextualLogger shell.ContextualLogger
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithCoordinatorLogger sets the logger.
func WithCoordinatorLogger(logger shell.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithCoordinatorContextualLogger sets a context-aware logger, it takes precedence over the plain logger.
func WithCoordinatorContextualLogger(logger shell.ContextualLogger) CoordinatorOption {
	return func(c *Coordinator) {
		c.contextualLogger = logger
	}
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(
	completeForLoan completeForLoanHandler,
	queue queueQueryHandler,
	enqueuer Enqueuer,
	clock shell.Clock,
	opts ...CoordinatorOption,
) (*Coordinator, error) {

	if completeForLoan == nil || queue == nil || enqueuer == nil || clock == nil {
		return nil, ErrMissingDependency
	}

	c := &Coordinator{
		completeForLoan: completeForLoan,
		queue:           queue,
		enqueuer:        enqueuer,
		clock:           clock,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// LoanCreated completes the open reservation the borrower holds for the lent book, if any.
// Reservations of other users stay untouched.
func (c *Coordinator) LoanCreated(ctx context.Context, loan core.Loan) {
	userID, bookID, err := parseIDs(loan)
	if err != nil {
		c.logFailure(ctx, "completing reservation for loan failed", loan, err)
		return
	}

	command := completereservationforloan.BuildCommand(userID, bookID, c.clock.Now())
	if _, err := c.completeForLoan.Handle(ctx, command); err != nil {
		c.logFailure(ctx, "completing reservation for loan failed", loan, err)
	}
}

// BookReturned notifies the first user in the reservation queue of the returned book.
// The reservation itself is not changed, the user still has to borrow or complete it.
func (c *Coordinator) BookReturned(ctx context.Context, loan core.Loan) {
	bookID, err := uuid.Parse(loan.BookID)
	if err != nil {
		c.logFailure(ctx, "reading reservation queue failed", loan, err)
		return
	}

	queue, err := c.queue.Handle(ctx, reservationqueue.BuildQuery(bookID))
	if err != nil {
		c.logFailure(ctx, "reading reservation queue failed", loan, err)
		return
	}

	head, ok := queue.Head()
	if !ok {
		return
	}

	c.enqueuer.Enqueue(ctx, Notification{
		UserID:        head.UserID,
		BookID:        head.BookID,
		ReservationID: head.ReservationID,
		Message:       fmt.Sprintf("a copy of book %s is available for your reservation %s", head.BookID, head.ReservationID),
		CreatedAt:     c.clock.Now(),
	})
}

func (c *Coordinator) logFailure(ctx context.Context, msg string, loan core.Loan, err error) {
	shell.LogError(ctx, c.logger, c.contextualLogger, msg,
		"loan_id", loan.LoanID,
		"user_id", loan.UserID,
		"book_id", loan.BookID,
		shell.LogAttrErrorKind, core.KindOf(err),
		shell.LogAttrError, err.Error(),
	)
}

func parseIDs(loan core.Loan) (uuid.UUID, uuid.UUID, error) {
	userID, err := uuid.Parse(loan.UserID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}

	bookID, err := uuid.Parse(loan.BookID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}

	return userID, bookID, nil
}

// Discard is an Enqueuer which drops every notification.
var Discard Enqueuer = discard{}

type discard struct{}

func (discard) Enqueue(context.Context, Notification) bool { return false }

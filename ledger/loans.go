package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger/ledger/core"
	"github.com/AntonStoeckl/lending-ledger/ledger/features/command/createloan"
	"github.com/AntonStoeckl/lending-ledger/ledger/features/command/extendloan"
	"github.com/AntonStoeckl/lending-ledger/ledger/features/command/markloanoverdue"
	"github.com/AntonStoeckl/lending-ledger/ledger/features/command/returnloan"
	"github.com/AntonStoeckl/lending-ledger/ledger/features/query/loansbyuser"
	"github.com/AntonStoeckl/lending-ledger/ledger/shell"
)

// CreateLoanRequest describes a loan to create.
// A nil LoanID gets a new random one. A LoanID which was already used for the same user and book
// returns the existing loan instead of lending a second copy.
// A zero LoanDate means today, a zero DueDate means LoanDate plus the default loan period.
type CreateLoanRequest struct {
	LoanID   uuid.UUID
	UserID   uuid.UUID
	BookID   uuid.UUID
	LoanDate time.Time
	DueDate  time.Time
}

// CreateLoan lends a copy of the book to the user and completes the user's own open reservation for it.
func (l *Ledger) CreateLoan(ctx context.Context, request CreateLoanRequest) (core.Loan, error) {
	now := l.config.clock.Now()

	loanID := request.LoanID
	if loanID == uuid.Nil {
		loanID = uuid.New()
	}

	loanDate := request.LoanDate
	if loanDate.IsZero() {
		loanDate = now
	}

	command := createloan.BuildCommand(loanID, request.UserID, request.BookID, loanDate, request.DueDate, now)

	result, err := l.createLoan.Handle(ctx, command)
	if err != nil {
		return core.Loan{}, err
	}

	loan, err := l.loadLoan(ctx, loanID)
	if err != nil {
		return core.Loan{}, err
	}

	if !result.Idempotent {
		l.coordinator.LoanCreated(ctx, loan)
	}

	return loan, nil
}

// ReturnLoan takes the copy back and notifies the first user waiting for the book.
// A zero returnedAt means now.
func (l *Ledger) ReturnLoan(ctx context.Context, loanID uuid.UUID, returnedAt time.Time) (core.Loan, error) {
	now := l.config.clock.Now()

	if _, err := l.returnLoan.Handle(ctx, returnloan.BuildCommand(loanID, returnedAt, now)); err != nil {
		return core.Loan{}, err
	}

	loan, err := l.loadLoan(ctx, loanID)
	if err != nil {
		return core.Loan{}, err
	}

	l.coordinator.BookReturned(ctx, loan)

	return loan, nil
}

// ExtendLoan moves the due date of a LOANED loan by days, which must be positive.
func (l *Ledger) ExtendLoan(ctx context.Context, loanID uuid.UUID, days int) (core.Loan, error) {
	if _, err := l.extendLoan.Handle(ctx, extendloan.BuildCommand(loanID, days, l.config.clock.Now())); err != nil {
		return core.Loan{}, err
	}

	return l.loadLoan(ctx, loanID)
}

// ExtendLoanByDefault extends a LOANED loan by the default extension period of the policy.
func (l *Ledger) ExtendLoanByDefault(ctx context.Context, loanID uuid.UUID) (core.Loan, error) {
	return l.ExtendLoan(ctx, loanID, l.config.policy.DefaultExtensionPeriodDays)
}

// MarkLoanOverdue marks a single loan OVERDUE if it is LOANED and past due on today.
// It reports whether the loan was changed.
func (l *Ledger) MarkLoanOverdue(ctx context.Context, loanID uuid.UUID, today time.Time) (bool, error) {
	result, err := l.markLoanOverdue.Handle(ctx, markloanoverdue.BuildCommand(loanID, today, l.config.clock.Now()))
	if err != nil {
		return false, err
	}

	return !result.Idempotent, nil
}

// GetLoan returns the current state of a loan.
func (l *Ledger) GetLoan(ctx context.Context, loanID uuid.UUID) (core.Loan, error) {
	return l.loadLoan(ctx, loanID)
}

// LoansByUser lists the loans of a user in creation order, optionally only the active ones.
func (l *Ledger) LoansByUser(ctx context.Context, userID uuid.UUID, activeOnly bool) (loansbyuser.LoansByUser, error) {
	return l.loansByUser.Handle(ctx, loansbyuser.BuildQuery(userID, activeOnly))
}

func (l *Ledger) loadLoan(ctx context.Context, loanID uuid.UUID) (core.Loan, error) {
	history, _, err := shell.QueryDomainEvents(ctx, l.eventStore, markloanoverdue.BuildEventFilter(loanID))
	if err != nil {
		return core.Loan{}, shell.ClassifyError(err)
	}

	loan, found := core.ProjectLoan(history, loanID.String())
	if !found {
		return core.Loan{}, core.ErrLoanNotFound
	}

	return loan, nil
}

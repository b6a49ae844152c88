package createloan

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger/eventstore"
	"github.com/AntonStoeckl/lending-ledger/ledger/catalog"
	"github.com/AntonStoeckl/lending-ledger/ledger/core"
)

// Decide determines whether a copy of the book can be lent to the user.
//
//	GIVEN: a registered user and a book with an available copy
//	WHEN: CreateLoan is received
//	THEN: BookLent is generated, which decrements the available copies
//	ERROR: ErrLoanIDAlreadyUsed if LoanID belongs to another user or book
//	ERROR: ErrInvalidDueDate if the due date is before the loan date
//	ERROR: ErrUserNotFound, ErrBookNotFound for unknown identities
//	ERROR: ErrMaxLoansExceeded if the user holds MaxBooksPerUser active loans
//	ERROR: ErrNoCopiesAvailable if all copies are lent
//	IDEMPOTENCY: LoanID exists for the same user and book
func Decide(history core.DomainEvents, command Command, policy core.Policy) core.DecisionResult {
	loanID, userID, bookID := command.LoanID.String(), command.UserID.String(), command.BookID.String()
	loans := core.ProjectLoans(history)

	for _, loan := range loans {
		if loan.LoanID != loanID {
			continue
		}

		if loan.UserID == userID && loan.BookID == bookID {
			return core.IdempotentDecision()
		}

		return fail(loanID, core.ErrLoanIDAlreadyUsed, command)
	}

	dueDate := command.DueDate
	if dueDate.IsZero() {
		dueDate = core.AddDays(command.LoanDate, policy.DefaultLoanPeriodDays)
	}

	if dueDate.Before(command.LoanDate) {
		return fail(loanID, core.ErrInvalidDueDate, command)
	}

	if !core.IsUserRegistered(history, userID) {
		return fail(loanID, core.ErrUserNotFound, command)
	}

	stock := catalog.ProjectStock(history, bookID)
	if !stock.Registered {
		return fail(loanID, core.ErrBookNotFound, command)
	}

	if core.CountActiveLoans(loans, userID) >= policy.MaxBooksPerUser {
		return fail(loanID, core.ErrMaxLoansExceeded, command)
	}

	if _, err := stock.TryDecrement(); err != nil {
		return fail(loanID, err, command)
	}

	return core.SuccessDecision(
		core.BuildBookLent(loanID, bookID, userID, command.LoanDate, dueDate, command.OccurredAt),
	)
}

func fail(loanID core.LoanIDString, err error, command Command) core.DecisionResult {
	event := core.BuildLendingBookFailed(loanID, err.Error(), command.OccurredAt)

	return core.ErrorDecision(event, fmt.Errorf("%s: %w", event.IsEventType(), err))
}

// BuildEventFilter creates the filter for everything a loan decision depends on:
// the stock of the book, the registration and the loans of the user, and the loan with loanID.
func BuildEventFilter(loanID uuid.UUID, userID uuid.UUID, bookID uuid.UUID) eventstore.Filter {
	types := append(catalog.StockEventTypes(), core.LoanEventTypes()...)
	types = append(types, core.UserRegisteredEventType)

	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(types[0], types[1:]...).
		AndAnyPredicateOf(
			eventstore.P(core.BookIDKey, bookID.String()),
			eventstore.P(core.UserIDKey, userID.String()),
			eventstore.P(core.LoanIDKey, loanID.String()),
		).
		Finalize()
}

package returnloan

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger/eventstore"
	"github.com/AntonStoeckl/lending-ledger/ledger/catalog"
	"github.com/AntonStoeckl/lending-ledger/ledger/core"
)

// Decide determines whether the loan can be returned.
//
//	GIVEN: a loan which is LOANED or OVERDUE
//	WHEN: ReturnLoan is received
//	THEN: BookReturned is generated, which increments the available copies
//	ERROR: ErrLoanNotFound if the loan does not exist
//	ERROR: ErrAlreadyReturned if the loan is RETURNED
func Decide(history core.DomainEvents, command Command) core.DecisionResult {
	loanID := command.LoanID.String()

	loan, found := core.ProjectLoan(history, loanID)
	if !found {
		return fail(loanID, core.ErrLoanNotFound, command)
	}

	if loan.Status == core.LoanStatusReturned {
		return fail(loanID, core.ErrAlreadyReturned, command)
	}

	if _, err := catalog.ProjectStock(history, loan.BookID).Increment(); err != nil {
		return fail(loanID, err, command)
	}

	return core.SuccessDecision(
		core.BuildBookReturned(loanID, loan.BookID, loan.UserID, command.ReturnedAt, command.OccurredAt),
	)
}

func fail(loanID core.LoanIDString, err error, command Command) core.DecisionResult {
	event := core.BuildReturningBookFailed(loanID, err.Error(), command.OccurredAt)

	return core.ErrorDecision(event, fmt.Errorf("%s: %w", event.IsEventType(), err))
}

// BuildLocateFilter creates the filter for the events of the loan alone.
func BuildLocateFilter(loanID uuid.UUID) eventstore.Filter {
	types := core.LoanEventTypes()

	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(types[0], types[1:]...).
		AndAnyPredicateOf(eventstore.P(core.LoanIDKey, loanID.String())).
		Finalize()
}

// BuildEventFilter creates the filter for the loan and the stock of its book.
func BuildEventFilter(loanID uuid.UUID, bookID core.BookIDString) eventstore.Filter {
	types := append(catalog.StockEventTypes(), core.LoanEventTypes()...)

	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(types[0], types[1:]...).
		AndAnyPredicateOf(
			eventstore.P(core.LoanIDKey, loanID.String()),
			eventstore.P(core.BookIDKey, bookID),
		).
		Finalize()
}

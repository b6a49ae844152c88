package markloanoverdue

import (
	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger/eventstore"
	"github.com/AntonStoeckl/lending-ledger/ledger/core"
)

// Decide determines whether the loan is overdue.
//
//	GIVEN: a LOANED loan with DueDate before today
//	WHEN: MarkLoanOverdue is received
//	THEN: LoanMarkedOverdue is generated
//	ERROR: ErrLoanNotFound if the loan does not exist, no failure event is recorded
//	IDEMPOTENCY: the loan is RETURNED, already OVERDUE, or not yet due
func Decide(history core.DomainEvents, command Command) core.DecisionResult {
	loanID := command.LoanID.String()

	loan, found := core.ProjectLoan(history, loanID)
	if !found {
		return core.RejectionDecision(core.ErrLoanNotFound)
	}

	if !loan.IsOverdueOn(command.Today) {
		return core.IdempotentDecision()
	}

	return core.SuccessDecision(
		core.BuildLoanMarkedOverdue(loanID, loan.BookID, loan.UserID, loan.DueDate, command.OccurredAt),
	)
}

// BuildEventFilter creates the filter for the events of the loan.
func BuildEventFilter(loanID uuid.UUID) eventstore.Filter {
	types := core.LoanEventTypes()

	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(types[0], types[1:]...).
		AndAnyPredicateOf(eventstore.P(core.LoanIDKey, loanID.String())).
		Finalize()
}

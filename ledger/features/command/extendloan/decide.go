package extendloan

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger/eventstore"
	"github.com/AntonStoeckl/lending-ledger/ledger/core"
)

// Decide determines whether the loan can be extended.
//
//	GIVEN: a LOANED loan with fewer than MaxExtensions extensions
//	WHEN: ExtendLoan is received
//	THEN: LoanExtended is generated with DueDate + days
//	ERROR: ErrInvalidDays unless days is positive
//	ERROR: ErrLoanNotFound if the loan does not exist
//	ERROR: ErrLoanNotExtendable unless the loan is LOANED
//	ERROR: ErrMaxExtensionsExceeded if the loan was extended MaxExtensions times
func Decide(history core.DomainEvents, command Command, policy core.Policy) core.DecisionResult {
	loanID := command.LoanID.String()

	days := command.Days
	if days <= 0 {
		return fail(loanID, core.ErrInvalidDays, command)
	}

	loan, found := core.ProjectLoan(history, loanID)
	if !found {
		return fail(loanID, core.ErrLoanNotFound, command)
	}

	if loan.Status != core.LoanStatusLoaned {
		return fail(loanID, core.ErrLoanNotExtendable, command)
	}

	if loan.ExtensionCount >= policy.MaxExtensions {
		return fail(loanID, core.ErrMaxExtensionsExceeded, command)
	}

	return core.SuccessDecision(
		core.BuildLoanExtended(loanID, loan.BookID, loan.UserID, days, core.AddDays(loan.DueDate, days), command.OccurredAt),
	)
}

func fail(loanID core.LoanIDString, err error, command Command) core.DecisionResult {
	event := core.BuildExtendingLoanFailed(loanID, err.Error(), command.OccurredAt)

	return core.ErrorDecision(event, fmt.Errorf("%s: %w", event.IsEventType(), err))
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

package loansbyuser

import (
	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger/eventstore"
	"github.com/AntonStoeckl/lending-ledger/ledger/core"
)

// ProjectLoansByUser replays the loan events of the user.
//
//	GIVEN: a user with UserID
//	WHEN: LoansByUser is executed
//	THEN: all loans of the user in creation order
//	EXCLUDES: returned loans if ActiveOnly is set
func ProjectLoansByUser(history core.DomainEvents, query Query) LoansByUser {
	userID := query.UserID.String()
	loans := make([]core.Loan, 0)
	active := 0

	for _, loan := range core.ProjectLoans(history) {
		if loan.UserID != userID {
			continue
		}

		if loan.IsActive() {
			active++
		} else if query.ActiveOnly {
			continue
		}

		loans = append(loans, loan)
	}

	return LoansByUser{
		UserID:      userID,
		Loans:       loans,
		Count:       len(loans),
		ActiveCount: active,
	}
}

// BuildEventFilter creates the filter for querying the loan events of the user.
func BuildEventFilter(userID uuid.UUID) eventstore.Filter {
	types := core.LoanEventTypes()

	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(types[0], types[1:]...).
		AndAnyPredicateOf(eventstore.P(core.UserIDKey, userID.String())).
		Finalize()
}

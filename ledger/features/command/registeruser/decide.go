package registeruser

import (
	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger/eventstore"
	"github.com/AntonStoeckl/lending-ledger/ledger/core"
)

// Decide registers the user unless it is registered already, which is idempotent.
func Decide(history core.DomainEvents, command Command) core.DecisionResult {
	if core.IsUserRegistered(history, command.UserID.String()) {
		return core.IdempotentDecision()
	}

	return core.SuccessDecision(core.BuildUserRegistered(command.UserID.String(), command.Name, command.OccurredAt))
}

// BuildEventFilter creates the filter for the registration of userID.
func BuildEventFilter(userID uuid.UUID) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(core.UserRegisteredEventType).
		AndAnyPredicateOf(eventstore.P(core.UserIDKey, userID.String())).
		Finalize()
}

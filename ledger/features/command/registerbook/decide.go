package registerbook

import (
	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger/eventstore"
	"github.com/AntonStoeckl/lending-ledger/ledger/catalog"
	"github.com/AntonStoeckl/lending-ledger/ledger/core"
)

// Decide determines whether the book should be registered.
//
//	GIVEN: a book which is not in the catalog
//	WHEN: RegisterBook is received
//	THEN: BookRegistered is generated
//	ERROR: ErrInvalidCopies if copies is negative
//	IDEMPOTENCY: the book is already in the catalog
func Decide(history core.DomainEvents, command Command) core.DecisionResult {
	if command.Copies < 0 {
		return core.RejectionDecision(core.ErrInvalidCopies)
	}

	stock := catalog.ProjectStock(history, command.BookID.String())
	if stock.Registered {
		return core.IdempotentDecision()
	}

	return core.SuccessDecision(
		core.BuildBookRegistered(command.BookID.String(), command.Title, command.Copies, command.OccurredAt),
	)
}

// BuildEventFilter creates the filter for the registration state of bookID.
func BuildEventFilter(bookID uuid.UUID) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(
			core.BookRegisteredEventType,
			core.BookRemovedFromCatalogEventType,
		).
		AndAnyPredicateOf(eventstore.P(core.BookIDKey, bookID.String())).
		Finalize()
}

package removebook

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger/eventstore"
	"github.com/AntonStoeckl/lending-ledger/ledger/catalog"
	"github.com/AntonStoeckl/lending-ledger/ledger/core"
)

type state struct {
	stock       catalog.Stock
	wasRemoved  bool
	queueLength int
}

// Decide determines whether the book can be removed from the catalog.
//
//	GIVEN: a registered book
//	WHEN: RemoveBook is received
//	THEN: BookRemovedFromCatalog is generated
//	ERROR: ErrBookNotFound if the book was never registered
//	ERROR: ErrBookHasActiveLoans if a copy is lent
//	ERROR: ErrBookHasActiveReservations if a reservation is RESERVED
//	IDEMPOTENCY: the book was removed already
func Decide(history core.DomainEvents, command Command) core.DecisionResult {
	bookID := command.BookID.String()
	s := project(history, bookID)

	if !s.stock.Registered && s.wasRemoved {
		return core.IdempotentDecision()
	}

	if !s.stock.Registered {
		return fail(bookID, core.ErrBookNotFound, command)
	}

	if s.stock.Lent > 0 {
		return fail(bookID, core.ErrBookHasActiveLoans, command)
	}

	if s.queueLength > 0 {
		return fail(bookID, core.ErrBookHasActiveReservations, command)
	}

	return core.SuccessDecision(core.BuildBookRemovedFromCatalog(bookID, command.OccurredAt))
}

func project(history core.DomainEvents, bookID core.BookIDString) state {
	wasRemoved := slices.ContainsFunc(history, func(event core.DomainEvent) bool {
		e, ok := event.(core.BookRemovedFromCatalog)
		return ok && e.BookID == bookID
	})

	return state{
		stock:       catalog.ProjectStock(history, bookID),
		wasRemoved:  wasRemoved,
		queueLength: len(core.Queue(core.ProjectReservations(history), bookID)),
	}
}

func fail(bookID core.BookIDString, err error, command Command) core.DecisionResult {
	event := core.BuildRemovingBookFailed(bookID, err.Error(), command.OccurredAt)

	return core.ErrorDecision(event, fmt.Errorf("%s: %w", event.IsEventType(), err))
}

// BuildEventFilter creates the filter for the stock and the reservations of bookID.
func BuildEventFilter(bookID uuid.UUID) eventstore.Filter {
	types := append(catalog.StockEventTypes(), core.ReservationEventTypes()...)

	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(types[0], types[1:]...).
		AndAnyPredicateOf(eventstore.P(core.BookIDKey, bookID.String())).
		Finalize()
}

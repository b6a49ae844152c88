package bookavailability

import (
	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger/eventstore"
	"github.com/AntonStoeckl/lending-ledger/ledger/catalog"
	"github.com/AntonStoeckl/lending-ledger/ledger/core"
)

// ProjectBookAvailability replays the stock and reservation events of the book.
//
//	GIVEN: a book with BookID
//	WHEN: BookAvailability is executed
//	THEN: available copies, active loans and the length of the reservation queue
//	ERROR: ErrBookNotFound if the book is not registered
func ProjectBookAvailability(history core.DomainEvents, query Query) (BookAvailability, error) {
	bookID := query.BookID.String()

	stock := catalog.ProjectStock(history, bookID)
	if !stock.Registered {
		return BookAvailability{}, core.ErrBookNotFound
	}

	return BookAvailability{
		BookID:          bookID,
		Title:           stock.Title,
		CopiesAvailable: stock.Available(),
		ActiveLoans:     stock.Lent,
		QueueLength:     len(core.Queue(core.ProjectReservations(history), bookID)),
	}, nil
}

// BuildEventFilter creates the filter for querying the stock and reservation events of the book.
func BuildEventFilter(bookID uuid.UUID) eventstore.Filter {
	types := append(catalog.StockEventTypes(), core.ReservationEventTypes()...)

	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(types[0], types[1:]...).
		AndAnyPredicateOf(eventstore.P(core.BookIDKey, bookID.String())).
		Finalize()
}

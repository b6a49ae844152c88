package reservationqueue

import (
	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger/eventstore"
	"github.com/AntonStoeckl/lending-ledger/ledger/core"
)

// ProjectReservationQueue replays the reservation events of the book.
//
//	GIVEN: a book with BookID
//	WHEN: ReservationQueue is executed
//	THEN: the RESERVED reservations in FIFO order
//	EXCLUDES: cancelled and completed reservations
func ProjectReservationQueue(history core.DomainEvents, query Query) ReservationQueue {
	bookID := query.BookID.String()
	queue := core.Queue(core.ProjectReservations(history), bookID)

	return ReservationQueue{
		BookID:  bookID,
		Entries: queue,
		Length:  len(queue),
	}
}

// BuildEventFilter creates the filter for querying the reservation events of the book.
func BuildEventFilter(bookID uuid.UUID) eventstore.Filter {
	types := core.ReservationEventTypes()

	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(types[0], types[1:]...).
		AndAnyPredicateOf(eventstore.P(core.BookIDKey, bookID.String())).
		Finalize()
}

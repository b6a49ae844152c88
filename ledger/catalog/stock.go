// Package catalog is the Catalog Store of the ledger: the available-copy counter of a book,
// projected from the book's events.
//
// TryDecrement and Increment are pure. They become atomic for a book because every command using them
// appends its outcome conditioned on the book's events being unchanged since they were read.
package catalog

import (
	"github.com/AntonStoeckl/lending-ledger/eventstore"
	"github.com/AntonStoeckl/lending-ledger/ledger/core"
)

// Stock is the projection of one book's copies.
type Stock struct {
	BookID     core.BookIDString
	Title      string
	Registered bool
	Copies     int
	Lent       int
}

// Available returns the number of copies which can be lent right now.
func (s Stock) Available() int {
	return s.Copies - s.Lent
}

// TryDecrement lends one copy.
func (s Stock) TryDecrement() (Stock, error) {
	if !s.Registered {
		return s, core.ErrBookNotFound
	}

	if s.Available() <= 0 {
		return s, core.ErrNoCopiesAvailable
	}

	s.Lent++

	return s, nil
}

// Increment takes one lent copy back.
func (s Stock) Increment() (Stock, error) {
	if !s.Registered {
		return s, core.ErrBookNotFound
	}

	s.Lent--

	return s, nil
}

// ProjectStock replays the events of bookID. Removing a book unregisters it, registering it again starts over.
func ProjectStock(history core.DomainEvents, bookID core.BookIDString) Stock {
	s := Stock{BookID: bookID}

	for _, event := range history {
		switch e := event.(type) {
		case core.BookRegistered:
			if e.BookID == bookID {
				s.Registered = true
				s.Title = e.Title
				s.Copies = e.Copies
			}

		case core.BookRemovedFromCatalog:
			if e.BookID == bookID {
				s.Registered = false
			}

		case core.BookLent:
			if e.BookID == bookID {
				s.Lent++
			}

		case core.BookReturned:
			if e.BookID == bookID {
				s.Lent--
			}
		}
	}

	return s
}

// StockEventTypes returns the event types ProjectStock reads.
func StockEventTypes() []string {
	return []string{
		core.BookRegisteredEventType,
		core.BookRemovedFromCatalogEventType,
		core.BookLentEventType,
		core.BookReturnedEventType,
	}
}

// BuildEventFilter creates the filter for all events which change the stock of bookID.
func BuildEventFilter(bookID core.BookIDString) eventstore.Filter {
	types := StockEventTypes()

	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(types[0], types[1:]...).
		AndAnyPredicateOf(eventstore.P(core.BookIDKey, bookID)).
		Finalize()
}

package core

import (
	"time"
)

// BookRegisteredEventType is the event type identifier.
const BookRegisteredEventType = "BookRegistered"

// BookRegistered represents when a book with a number of physical copies was added to the catalog.
type BookRegistered struct {
	BookID     BookIDString
	Title      string
	Copies     int
	OccurredAt OccurredAtTS
}

// BuildBookRegistered creates a new BookRegistered event.
func BuildBookRegistered(bookID BookIDString, title string, copies int, occurredAt time.Time) BookRegistered {
	return BookRegistered{
		BookID:     bookID,
		Title:      title,
		Copies:     copies,
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

func (e BookRegistered) IsEventType() string      { return BookRegisteredEventType }
func (e BookRegistered) HasOccurredAt() time.Time { return e.OccurredAt }
func (e BookRegistered) IsErrorEvent() bool       { return false }

// BookRemovedFromCatalogEventType is the event type identifier.
const BookRemovedFromCatalogEventType = "BookRemovedFromCatalog"

// BookRemovedFromCatalog represents when a book was removed from the catalog.
type BookRemovedFromCatalog struct {
	BookID     BookIDString
	OccurredAt OccurredAtTS
}

// BuildBookRemovedFromCatalog creates a new BookRemovedFromCatalog event.
func BuildBookRemovedFromCatalog(bookID BookIDString, occurredAt time.Time) BookRemovedFromCatalog {
	return BookRemovedFromCatalog{
		BookID:     bookID,
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

func (e BookRemovedFromCatalog) IsEventType() string      { return BookRemovedFromCatalogEventType }
func (e BookRemovedFromCatalog) HasOccurredAt() time.Time { return e.OccurredAt }
func (e BookRemovedFromCatalog) IsErrorEvent() bool       { return false }

package core

import (
	"time"
)

const (
	// BookReservedEventType is the event type identifier.
	BookReservedEventType = "BookReserved"

	// ReservationCanceledEventType is the event type identifier.
	ReservationCanceledEventType = "ReservationCanceled"

	// ReservationCompletedEventType is the event type identifier.
	ReservationCompletedEventType = "ReservationCompleted"
)

// Values of ReservationCompleted.CompletedVia.
const (
	CompletedDirectly = "direct"
	CompletedViaLoan  = "loan"
)

// ReservationEventTypes returns all event types which change a Reservation.
func ReservationEventTypes() []string {
	return []string{BookReservedEventType, ReservationCanceledEventType, ReservationCompletedEventType}
}

// BookReserved represents when a user queued up for a book without available copies.
type BookReserved struct {
	ReservationID   ReservationIDString
	BookID          BookIDString
	UserID          UserIDString
	ReservationDate time.Time
	ExpirationDate  time.Time
	OccurredAt      OccurredAtTS
}

// BuildBookReserved creates a new BookReserved event.
func BuildBookReserved(
	reservationID ReservationIDString,
	bookID BookIDString,
	userID UserIDString,
	reservationDate time.Time,
	expirationDate time.Time,
	occurredAt time.Time,
) BookReserved {

	return BookReserved{
		ReservationID:   reservationID,
		BookID:          bookID,
		UserID:          userID,
		ReservationDate: ToOccurredAt(reservationDate),
		ExpirationDate:  ToOccurredAt(expirationDate),
		OccurredAt:      ToOccurredAt(occurredAt),
	}
}

func (e BookReserved) IsEventType() string      { return BookReservedEventType }
func (e BookReserved) HasOccurredAt() time.Time { return e.OccurredAt }
func (e BookReserved) IsErrorEvent() bool       { return false }

// ReservationCanceled represents when a user gave up a reservation.
type ReservationCanceled struct {
	ReservationID ReservationIDString
	BookID        BookIDString
	UserID        UserIDString
	OccurredAt    OccurredAtTS
}

// BuildReservationCanceled creates a new ReservationCanceled event.
func BuildReservationCanceled(
	reservationID ReservationIDString,
	bookID BookIDString,
	userID UserIDString,
	occurredAt time.Time,
) ReservationCanceled {

	return ReservationCanceled{
		ReservationID: reservationID,
		BookID:        bookID,
		UserID:        userID,
		OccurredAt:    ToOccurredAt(occurredAt),
	}
}

func (e ReservationCanceled) IsEventType() string      { return ReservationCanceledEventType }
func (e ReservationCanceled) HasOccurredAt() time.Time { return e.OccurredAt }
func (e ReservationCanceled) IsErrorEvent() bool       { return false }

// ReservationCompleted represents when a reservation was fulfilled,
// either directly or because its user borrowed the book.
type ReservationCompleted struct {
	ReservationID ReservationIDString
	BookID        BookIDString
	UserID        UserIDString
	CompletedVia  string
	OccurredAt    OccurredAtTS
}

// BuildReservationCompleted creates a new ReservationCompleted event.
func BuildReservationCompleted(
	reservationID ReservationIDString,
	bookID BookIDString,
	userID UserIDString,
	completedVia string,
	occurredAt time.Time,
) ReservationCompleted {

	return ReservationCompleted{
		ReservationID: reservationID,
		BookID:        bookID,
		UserID:        userID,
		CompletedVia:  completedVia,
		OccurredAt:    ToOccurredAt(occurredAt),
	}
}

func (e ReservationCompleted) IsEventType() string      { return ReservationCompletedEventType }
func (e ReservationCompleted) HasOccurredAt() time.Time { return e.OccurredAt }
func (e ReservationCompleted) IsErrorEvent() bool       { return false }

package core

import (
	"slices"
	"time"
)

// ReservationStatus is the lifecycle state of a Reservation.
type ReservationStatus string

// Reservation states. CANCELLED and COMPLETED are terminal.
const (
	ReservationStatusReserved  ReservationStatus = "RESERVED"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
	ReservationStatusCompleted ReservationStatus = "COMPLETED"
)

// Reservation is the projection of one reservation from its events.
type Reservation struct {
	ReservationID   ReservationIDString
	BookID          BookIDString
	UserID          UserIDString
	ReservationDate time.Time
	ExpirationDate  time.Time
	Status          ReservationStatus
	CompletedVia    string
}

// IsReserved reports whether the reservation is still open.
func (r Reservation) IsReserved() bool {
	return r.Status == ReservationStatusReserved
}

// IsExpiredAt reports whether now is past the expiration date.
// Expiry is evaluated lazily, an expired reservation stays RESERVED.
func (r Reservation) IsExpiredAt(now time.Time) bool {
	return now.After(r.ExpirationDate)
}

// ProjectReservations replays history and returns all reservations in the order they were created.
// Terminal reservations ignore further events.
func ProjectReservations(history DomainEvents) []Reservation {
	reservations := make([]Reservation, 0)
	index := make(map[ReservationIDString]int)

	for _, event := range history {
		switch e := event.(type) {
		case BookReserved:
			if _, exists := index[e.ReservationID]; exists {
				continue
			}

			index[e.ReservationID] = len(reservations)
			reservations = append(reservations, Reservation{
				ReservationID:   e.ReservationID,
				BookID:          e.BookID,
				UserID:          e.UserID,
				ReservationDate: e.ReservationDate,
				ExpirationDate:  e.ExpirationDate,
				Status:          ReservationStatusReserved,
			})

		case ReservationCanceled:
			if i, exists := index[e.ReservationID]; exists && reservations[i].IsReserved() {
				reservations[i].Status = ReservationStatusCancelled
			}

		case ReservationCompleted:
			if i, exists := index[e.ReservationID]; exists && reservations[i].IsReserved() {
				reservations[i].Status = ReservationStatusCompleted
				reservations[i].CompletedVia = e.CompletedVia
			}
		}
	}

	return reservations
}

// ProjectReservation returns the reservation with reservationID, or false if history does not contain it.
func ProjectReservation(history DomainEvents, reservationID ReservationIDString) (Reservation, bool) {
	for _, reservation := range ProjectReservations(history) {
		if reservation.ReservationID == reservationID {
			return reservation, true
		}
	}

	return Reservation{}, false
}

// Queue returns the RESERVED reservations for bookID in FIFO order:
// earliest ReservationDate first, ties in creation order.
func Queue(reservations []Reservation, bookID BookIDString) []Reservation {
	queue := make([]Reservation, 0)

	for _, r := range reservations {
		if r.BookID == bookID && r.IsReserved() {
			queue = append(queue, r)
		}
	}

	slices.SortStableFunc(queue, func(a, b Reservation) int {
		return a.ReservationDate.Compare(b.ReservationDate)
	})

	return queue
}

// FIFOHead returns the first reservation in the queue of bookID, or false if nobody is waiting.
func FIFOHead(reservations []Reservation, bookID BookIDString) (Reservation, bool) {
	queue := Queue(reservations, bookID)
	if len(queue) == 0 {
		return Reservation{}, false
	}

	return queue[0], true
}

// CountOpenReservations counts the RESERVED reservations of userID.
func CountOpenReservations(reservations []Reservation, userID UserIDString) int {
	count := 0

	for _, r := range reservations {
		if r.UserID == userID && r.IsReserved() {
			count++
		}
	}

	return count
}

// FindOpenReservation returns the RESERVED reservation of userID for bookID.
// If there is more than one, the most recent one is returned.
func FindOpenReservation(reservations []Reservation, userID UserIDString, bookID BookIDString) (Reservation, bool) {
	for i := len(reservations) - 1; i >= 0; i-- {
		r := reservations[i]
		if r.UserID == userID && r.BookID == bookID && r.IsReserved() {
			return r, true
		}
	}

	return Reservation{}, false
}

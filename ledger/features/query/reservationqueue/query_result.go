package reservationqueue

import (
	"github.com/AntonStoeckl/lending-ledger/ledger/core"
)

// ReservationQueue represents the query result containing the waiting reservations of a book.
type ReservationQueue struct {
	BookID  core.BookIDString
	Entries []core.Reservation
	Length  int
}

// Head returns the first reservation in line, or false if nobody is waiting.
func (q ReservationQueue) Head() (core.Reservation, bool) {
	if len(q.Entries) == 0 {
		return core.Reservation{}, false
	}

	return q.Entries[0], true
}

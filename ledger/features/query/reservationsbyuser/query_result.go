package reservationsbyuser

import (
	"github.com/AntonStoeckl/lending-ledger/ledger/core"
)

// ReservationsByUser represents the query result containing the reservations of a user.
type ReservationsByUser struct {
	UserID       core.UserIDString
	Reservations []core.Reservation
	Count        int
	OpenCount    int
}

package reservationsbyuser

import (
	"slices"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger/eventstore"
	"github.com/AntonStoeckl/lending-ledger/ledger/core"
)

// ProjectReservationsByUser replays the reservation events of the user.
//
//	GIVEN: a user with UserID
//	WHEN: ReservationsByUser is executed
//	THEN: all reservations of the user, newest ReservationDate first
//	INCLUDES: cancelled and completed reservations
func ProjectReservationsByUser(history core.DomainEvents, query Query) ReservationsByUser {
	userID := query.UserID.String()
	reservations := make([]core.Reservation, 0)

	for _, reservation := range core.ProjectReservations(history) {
		if reservation.UserID == userID {
			reservations = append(reservations, reservation)
		}
	}

	// newest first, the later one wins a tie
	slices.Reverse(reservations)
	slices.SortStableFunc(reservations, func(a, b core.Reservation) int {
		return b.ReservationDate.Compare(a.ReservationDate)
	})

	return ReservationsByUser{
		UserID:       userID,
		Reservations: reservations,
		Count:        len(reservations),
		OpenCount:    core.CountOpenReservations(reservations, userID),
	}
}

// BuildEventFilter creates the filter for querying the reservation events of the user.
func BuildEventFilter(userID uuid.UUID) eventstore.Filter {
	types := core.ReservationEventTypes()

	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(types[0], types[1:]...).
		AndAnyPredicateOf(eventstore.P(core.UserIDKey, userID.String())).
		Finalize()
}

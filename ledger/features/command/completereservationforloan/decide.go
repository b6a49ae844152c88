package completereservationforloan

import (
	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger/eventstore"
	"github.com/AntonStoeckl/lending-ledger/ledger/core"
)

// Decide completes the open reservation of the user for the book.
// Having nothing to complete is an idempotent no-op.
func Decide(history core.DomainEvents, command Command) core.DecisionResult {
	reservation, found := core.FindOpenReservation(
		core.ProjectReservations(history),
		command.UserID.String(),
		command.BookID.String(),
	)

	if !found {
		return core.IdempotentDecision()
	}

	return core.SuccessDecision(
		core.BuildReservationCompleted(
			reservation.ReservationID,
			reservation.BookID,
			reservation.UserID,
			core.CompletedViaLoan,
			command.OccurredAt,
		),
	)
}

// BuildEventFilter creates the filter for the reservations of exactly this user and book.
func BuildEventFilter(userID uuid.UUID, bookID uuid.UUID) eventstore.Filter {
	types := core.ReservationEventTypes()

	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(types[0], types[1:]...).
		AndAllPredicatesOf(
			eventstore.P(core.UserIDKey, userID.String()),
			eventstore.P(core.BookIDKey, bookID.String()),
		).
		Finalize()
}

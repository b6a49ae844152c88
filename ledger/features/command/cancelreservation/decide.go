package cancelreservation

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger/eventstore"
	"github.com/AntonStoeckl/lending-ledger/ledger/core"
)

// Decide determines whether the reservation can be canceled.
//
//	GIVEN: a RESERVED reservation
//	WHEN: CancelReservation is received
//	THEN: ReservationCanceled is generated
//	ERROR: ErrReservationNotFound if the reservation does not exist
//	ERROR: ErrInvalidReservationStatus if the reservation is CANCELLED or COMPLETED
func Decide(history core.DomainEvents, command Command) core.DecisionResult {
	reservationID := command.ReservationID.String()

	reservation, found := core.ProjectReservation(history, reservationID)
	if !found {
		return fail(reservationID, core.ErrReservationNotFound, command)
	}

	if !reservation.IsReserved() {
		return fail(reservationID, core.ErrInvalidReservationStatus, command)
	}

	return core.SuccessDecision(
		core.BuildReservationCanceled(reservationID, reservation.BookID, reservation.UserID, command.OccurredAt),
	)
}

func fail(reservationID core.ReservationIDString, err error, command Command) core.DecisionResult {
	event := core.BuildCancelingReservationFailed(reservationID, err.Error(), command.OccurredAt)

	return core.ErrorDecision(event, fmt.Errorf("%s: %w", event.IsEventType(), err))
}

// BuildEventFilter creates the filter for the events of the reservation.
func BuildEventFilter(reservationID uuid.UUID) eventstore.Filter {
	types := core.ReservationEventTypes()

	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(types[0], types[1:]...).
		AndAnyPredicateOf(eventstore.P(core.ReservationIDKey, reservationID.String())).
		Finalize()
}

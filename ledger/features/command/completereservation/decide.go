package completereservation

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger/eventstore"
	"github.com/AntonStoeckl/lending-ledger/ledger/core"
)

// Decide determines whether the reservation can be completed.
//
//	GIVEN: a RESERVED reservation which has not expired
//	WHEN: CompleteReservation is received
//	THEN: ReservationCompleted is generated with CompletedVia "direct"
//	ERROR: ErrReservationNotFound if the reservation does not exist
//	ERROR: ErrInvalidReservationStatus if the reservation is CANCELLED or COMPLETED
//	ERROR: ErrReservationExpired if the command occurred after the expiration date
func Decide(history core.DomainEvents, command Command) core.DecisionResult {
	reservationID := command.ReservationID.String()

	reservation, found := core.ProjectReservation(history, reservationID)
	if !found {
		return fail(reservationID, core.ErrReservationNotFound, command)
	}

	if !reservation.IsReserved() {
		return fail(reservationID, core.ErrInvalidReservationStatus, command)
	}

	if reservation.IsExpiredAt(command.OccurredAt) {
		return fail(reservationID, core.ErrReservationExpired, command)
	}

	return core.SuccessDecision(
		core.BuildReservationCompleted(
			reservationID,
			reservation.BookID,
			reservation.UserID,
			core.CompletedDirectly,
			command.OccurredAt,
		),
	)
}

func fail(reservationID core.ReservationIDString, err error, command Command) core.DecisionResult {
	event := core.BuildCompletingReservationFailed(reservationID, err.Error(), command.OccurredAt)

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

package createreservation

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger/eventstore"
	"github.com/AntonStoeckl/lending-ledger/ledger/catalog"
	"github.com/AntonStoeckl/lending-ledger/ledger/core"
)

// Decide determines whether the user can reserve the book.
//
//	GIVEN: a registered user and a registered book without available copies
//	WHEN: CreateReservation is received
//	THEN: BookReserved is generated, expiring ReservationExpiryDays after the reservation date
//	ERROR: ErrReservationIDAlreadyUsed if ReservationID belongs to another user or book
//	ERROR: ErrUserNotFound, ErrBookNotFound for unknown identities
//	ERROR: ErrBookAvailableForLoan if a copy is available
//	ERROR: ErrMaxReservationsExceeded if the user holds MaxReservationsPerUser RESERVED reservations
//	ERROR: ErrAlreadyReserved if the user holds a RESERVED reservation for the book
//	IDEMPOTENCY: ReservationID exists for the same user and book
func Decide(history core.DomainEvents, command Command, policy core.Policy) core.DecisionResult {
	reservationID, userID, bookID := command.ReservationID.String(), command.UserID.String(), command.BookID.String()
	reservations := core.ProjectReservations(history)

	for _, r := range reservations {
		if r.ReservationID != reservationID {
			continue
		}

		if r.UserID == userID && r.BookID == bookID {
			return core.IdempotentDecision()
		}

		return fail(reservationID, core.ErrReservationIDAlreadyUsed, command)
	}

	if !core.IsUserRegistered(history, userID) {
		return fail(reservationID, core.ErrUserNotFound, command)
	}

	stock := catalog.ProjectStock(history, bookID)
	if !stock.Registered {
		return fail(reservationID, core.ErrBookNotFound, command)
	}

	if stock.Available() > 0 {
		return fail(reservationID, core.ErrBookAvailableForLoan, command)
	}

	if core.CountOpenReservations(reservations, userID) >= policy.MaxReservationsPerUser {
		return fail(reservationID, core.ErrMaxReservationsExceeded, command)
	}

	if _, exists := core.FindOpenReservation(reservations, userID, bookID); exists {
		return fail(reservationID, core.ErrAlreadyReserved, command)
	}

	return core.SuccessDecision(
		core.BuildBookReserved(
			reservationID,
			bookID,
			userID,
			command.ReservationDate,
			core.AddDays(command.ReservationDate, policy.ReservationExpiryDays),
			command.OccurredAt,
		),
	)
}

func fail(reservationID core.ReservationIDString, err error, command Command) core.DecisionResult {
	event := core.BuildReservingBookFailed(reservationID, err.Error(), command.OccurredAt)

	return core.ErrorDecision(event, fmt.Errorf("%s: %w", event.IsEventType(), err))
}

// BuildEventFilter creates the filter for everything a reservation decision depends on:
// the stock of the book, the registration and the reservations of the user, and the reservation
// with reservationID.
func BuildEventFilter(reservationID uuid.UUID, userID uuid.UUID, bookID uuid.UUID) eventstore.Filter {
	types := append(catalog.StockEventTypes(), core.ReservationEventTypes()...)
	types = append(types, core.UserRegisteredEventType)

	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(types[0], types[1:]...).
		AndAnyPredicateOf(
			eventstore.P(core.BookIDKey, bookID.String()),
			eventstore.P(core.UserIDKey, userID.String()),
			eventstore.P(core.ReservationIDKey, reservationID.String()),
		).
		Finalize()
}

package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger/ledger/core"
	"github.com/AntonStoeckl/lending-ledger/ledger/features/command/cancelreservation"
	"github.com/AntonStoeckl/lending-ledger/ledger/features/command/completereservation"
	"github.com/AntonStoeckl/lending-ledger/ledger/features/command/createreservation"
	"github.com/AntonStoeckl/lending-ledger/ledger/features/query/reservationqueue"
	"github.com/AntonStoeckl/lending-ledger/ledger/features/query/reservationsbyuser"
	"github.com/AntonStoeckl/lending-ledger/ledger/shell"
)

// CreateReservationRequest describes a reservation to create.
// A nil ReservationID gets a new random one, a zero ReservationDate means now.
type CreateReservationRequest struct {
	ReservationID   uuid.UUID
	UserID          uuid.UUID
	BookID          uuid.UUID
	ReservationDate time.Time
}

// CreateReservation puts the user in the queue of a book which has no copy available.
func (l *Ledger) CreateReservation(ctx context.Context, request CreateReservationRequest) (core.Reservation, error) {
	reservationID := request.ReservationID
	if reservationID == uuid.Nil {
		reservationID = uuid.New()
	}

	command := createreservation.BuildCommand(
		reservationID,
		request.UserID,
		request.BookID,
		request.ReservationDate,
		l.config.clock.Now(),
	)

	if _, err := l.createReservation.Handle(ctx, command); err != nil {
		return core.Reservation{}, err
	}

	return l.loadReservation(ctx, reservationID)
}

// CancelReservation cancels a RESERVED reservation.
func (l *Ledger) CancelReservation(ctx context.Context, reservationID uuid.UUID) (core.Reservation, error) {
	command := cancelreservation.BuildCommand(reservationID, l.config.clock.Now())

	if _, err := l.cancelReservation.Handle(ctx, command); err != nil {
		return core.Reservation{}, err
	}

	return l.loadReservation(ctx, reservationID)
}

// CompleteReservation completes a RESERVED reservation which has not expired yet.
func (l *Ledger) CompleteReservation(ctx context.Context, reservationID uuid.UUID) (core.Reservation, error) {
	command := completereservation.BuildCommand(reservationID, l.config.clock.Now())

	if _, err := l.completeReservation.Handle(ctx, command); err != nil {
		return core.Reservation{}, err
	}

	return l.loadReservation(ctx, reservationID)
}

// GetReservation returns the current state of a reservation.
func (l *Ledger) GetReservation(ctx context.Context, reservationID uuid.UUID) (core.Reservation, error) {
	return l.loadReservation(ctx, reservationID)
}

// ReservationsByUser lists the reservations of a user, newest first.
func (l *Ledger) ReservationsByUser(ctx context.Context, userID uuid.UUID) (reservationsbyuser.ReservationsByUser, error) {
	return l.reservationsByUser.Handle(ctx, reservationsbyuser.BuildQuery(userID))
}

// ReservationQueue returns the waiting reservations of a book in FIFO order.
func (l *Ledger) ReservationQueue(ctx context.Context, bookID uuid.UUID) (reservationqueue.ReservationQueue, error) {
	return l.reservationQueue.Handle(ctx, reservationqueue.BuildQuery(bookID))
}

func (l *Ledger) loadReservation(ctx context.Context, reservationID uuid.UUID) (core.Reservation, error) {
	history, _, err := shell.QueryDomainEvents(ctx, l.eventStore, cancelreservation.BuildEventFilter(reservationID))
	if err != nil {
		return core.Reservation{}, shell.ClassifyError(err)
	}

	reservation, found := core.ProjectReservation(history, reservationID.String())
	if !found {
		return core.Reservation{}, core.ErrReservationNotFound
	}

	return reservation, nil
}

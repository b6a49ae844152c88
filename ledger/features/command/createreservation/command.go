package createreservation

import (
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger/ledger/core"
)

const (
	commandType = "CreateReservation"
)

// Command represents the intent of UserID to reserve BookID.
// A zero ReservationDate means the reservation was made when the command occurred.
type Command struct {
	ReservationID   uuid.UUID
	UserID          uuid.UUID
	BookID          uuid.UUID
	ReservationDate time.Time
	OccurredAt      core.OccurredAtTS
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(
	reservationID uuid.UUID,
	userID uuid.UUID,
	bookID uuid.UUID,
	reservationDate time.Time,
	occurredAt time.Time,
) Command {

	command := Command{
		ReservationID:   reservationID,
		UserID:          userID,
		BookID:          bookID,
		ReservationDate: core.ToOccurredAt(reservationDate),
		OccurredAt:      core.ToOccurredAt(occurredAt),
	}

	if reservationDate.IsZero() {
		command.ReservationDate = command.OccurredAt
	}

	return command
}

package completereservation

import (
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger/ledger/core"
)

const (
	commandType = "CompleteReservation"
)

// Command represents the intent to complete a reservation. OccurredAt is the "now" of the expiry check.
type Command struct {
	ReservationID uuid.UUID
	OccurredAt    core.OccurredAtTS
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(reservationID uuid.UUID, occurredAt time.Time) Command {
	return Command{
		ReservationID: reservationID,
		OccurredAt:    core.ToOccurredAt(occurredAt),
	}
}

package completereservationforloan

import (
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger/ledger/core"
)

const (
	commandType = "CompleteReservationForLoan"
)

// Command represents the intent to complete the open reservation of UserID for BookID, if there is one.
type Command struct {
	UserID     uuid.UUID
	BookID     uuid.UUID
	OccurredAt core.OccurredAtTS
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(userID uuid.UUID, bookID uuid.UUID, occurredAt time.Time) Command {
	return Command{
		UserID:     userID,
		BookID:     bookID,
		OccurredAt: core.ToOccurredAt(occurredAt),
	}
}

package registeruser

import (
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger/ledger/core"
)

const (
	commandType = "RegisterUser"
)

// Command represents the intent to register a user.
type Command struct {
	UserID     uuid.UUID
	Name       string
	OccurredAt core.OccurredAtTS
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(userID uuid.UUID, name string, occurredAt time.Time) Command {
	return Command{
		UserID:     userID,
		Name:       name,
		OccurredAt: core.ToOccurredAt(occurredAt),
	}
}

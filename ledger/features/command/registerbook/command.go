package registerbook

import (
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger/ledger/core"
)

const (
	commandType = "RegisterBook"
)

// Command represents the intent to add a book with copies to the catalog.
type Command struct {
	BookID     uuid.UUID
	Title      string
	Copies     int
	OccurredAt core.OccurredAtTS
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(bookID uuid.UUID, title string, copies int, occurredAt time.Time) Command {
	return Command{
		BookID:     bookID,
		Title:      title,
		Copies:     copies,
		OccurredAt: core.ToOccurredAt(occurredAt),
	}
}

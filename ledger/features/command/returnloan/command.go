package returnloan

import (
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger/ledger/core"
)

const (
	commandType = "ReturnLoan"
)

// Command represents the intent to return the copy of a loan.
// A zero ReturnedAt means the copy came back when the command occurred.
type Command struct {
	LoanID     uuid.UUID
	ReturnedAt time.Time
	OccurredAt core.OccurredAtTS
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(loanID uuid.UUID, returnedAt time.Time, occurredAt time.Time) Command {
	command := Command{
		LoanID:     loanID,
		ReturnedAt: core.ToOccurredAt(returnedAt),
		OccurredAt: core.ToOccurredAt(occurredAt),
	}

	if command.ReturnedAt.IsZero() {
		command.ReturnedAt = command.OccurredAt
	}

	return command
}

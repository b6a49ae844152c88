package extendloan

import (
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger/ledger/core"
)

const (
	commandType = "ExtendLoan"
)

// Command represents the intent to extend a loan by a positive number of Days.
type Command struct {
	LoanID     uuid.UUID
	Days       int
	OccurredAt core.OccurredAtTS
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(loanID uuid.UUID, days int, occurredAt time.Time) Command {
	return Command{
		LoanID:     loanID,
		Days:       days,
		OccurredAt: core.ToOccurredAt(occurredAt),
	}
}

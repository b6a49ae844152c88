package markloanoverdue

import (
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger/ledger/core"
)

const (
	commandType = "MarkLoanOverdue"
)

// Command represents the intent to mark a loan OVERDUE if it is past due on Today.
type Command struct {
	LoanID     uuid.UUID
	Today      time.Time
	OccurredAt core.OccurredAtTS
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters. today is normalized to a calendar date.
func BuildCommand(loanID uuid.UUID, today time.Time, occurredAt time.Time) Command {
	return Command{
		LoanID:     loanID,
		Today:      core.ToCalendarDate(today),
		OccurredAt: core.ToOccurredAt(occurredAt),
	}
}

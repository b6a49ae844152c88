package createloan

import (
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger/ledger/core"
)

const (
	commandType = "CreateLoan"
)

// Command represents the intent to lend a copy of BookID to UserID.
// A zero DueDate means the default loan period of the policy.
type Command struct {
	LoanID     uuid.UUID
	UserID     uuid.UUID
	BookID     uuid.UUID
	LoanDate   time.Time
	DueDate    time.Time
	OccurredAt core.OccurredAtTS
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
// Loan and due date are normalized to calendar dates.
func BuildCommand(
	loanID uuid.UUID,
	userID uuid.UUID,
	bookID uuid.UUID,
	loanDate time.Time,
	dueDate time.Time,
	occurredAt time.Time,
) Command {

	command := Command{
		LoanID:     loanID,
		UserID:     userID,
		BookID:     bookID,
		LoanDate:   core.ToCalendarDate(loanDate),
		OccurredAt: core.ToOccurredAt(occurredAt),
	}

	if !dueDate.IsZero() {
		command.DueDate = core.ToCalendarDate(dueDate)
	}

	return command
}

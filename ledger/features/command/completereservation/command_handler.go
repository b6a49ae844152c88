package completereservation

import (
	"context"

	"github.com/AntonStoeckl/lending-ledger/ledger/shell"
)

// CommandHandler runs Query -> Decide -> Append for CompleteReservation, with retry on concurrency conflicts.
type CommandHandler struct {
	eventStore shell.EventStore
	config     shell.HandlerConfig
}

// NewCommandHandler creates a new CommandHandler.
func NewCommandHandler(eventStore shell.EventStore, opts ...shell.HandlerOption) (CommandHandler, error) {
	if eventStore == nil {
		return CommandHandler{}, shell.ErrNilEventStore
	}

	config, err := shell.BuildHandlerConfig(opts...)
	if err != nil {
		return CommandHandler{}, err
	}

	return CommandHandler{eventStore: eventStore, config: config}, nil
}

// Handle executes the command.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
	return shell.HandleWithRetry(ctx, func(ctx context.Context) (bool, error) {
		return h.executeCommand(ctx, command)
	}, h.config.RetryOptions...)
}

func (h CommandHandler) executeCommand(ctx context.Context, command Command) (bool, error) {
	filter := BuildEventFilter(command.ReservationID)

	history, maxSequenceNumber, err := shell.QueryDomainEvents(ctx, h.eventStore, filter)
	if err != nil {
		return false, err
	}

	return shell.AppendDecision(ctx, h.eventStore, filter, maxSequenceNumber, Decide(history, command))
}

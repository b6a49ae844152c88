package shell

import (
	"errors"
	"fmt"

	"github.com/AntonStoeckl/lending-ledger/ledger/core"
)

// ClassifyError makes every error a handler returns a typed outcome.
// Domain errors and mapping errors pass unchanged. Everything else comes from the event store or the context,
// nothing was written then and the request is safe to retry, so it is wrapped with core.ErrTransient.
// The result still matches the original error with errors.Is.
func ClassifyError(err error) error {
	switch {
	case err == nil:
		return nil
	case IsBusinessRejection(err), errors.Is(err, core.ErrTransient):
		return err
	case errors.Is(err, ErrMappingToDomainEventFailed), errors.Is(err, ErrMappingToStorableEventFailed):
		return err
	default:
		return fmt.Errorf("%w: %w", core.ErrTransient, err)
	}
}

package eventstore

import (
	"context"
)

// EventStore is what all engines of this module implement.
//
// Query returns the events matching the filter in append order, plus the highest sequence number among them
// (0 if there are none). Append atomically appends the events only if the highest sequence number matching the
// filter still equals expectedMaxSequenceNumber, otherwise it returns ErrConcurrencyConflict and writes nothing.
type EventStore interface {
	Query(ctx context.Context, filter Filter) (StorableEvents, MaxSequenceNumberUint, error)
	Append(ctx context.Context, filter Filter, expectedMaxSequenceNumber MaxSequenceNumberUint, storableEvents ...StorableEvent) error
}

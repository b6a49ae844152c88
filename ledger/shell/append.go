package shell

import (
	"context"

	"github.com/AntonStoeckl/lending-ledger/eventstore"
	"github.com/AntonStoeckl/lending-ledger/ledger/core"
)

// QueryDomainEvents queries with strong consistency and unmarshals the result.
func QueryDomainEvents(
	ctx context.Context,
	es QueriesEvents,
	filter eventstore.Filter,
) (core.DomainEvents, eventstore.MaxSequenceNumberUint, error) {

	storableEvents, maxSequenceNumber, err := es.Query(eventstore.WithStrongConsistency(ctx), filter)
	if err != nil {
		return nil, 0, err
	}

	history, err := DomainEventsFrom(storableEvents)
	if err != nil {
		return nil, 0, err
	}

	return history, maxSequenceNumber, nil
}

// AppendDecision appends the event of result, if any, conditioned on filter still having maxSequenceNumber.
// It returns whether the decision was idempotent and the business error of the decision.
func AppendDecision(
	ctx context.Context,
	es EventStore,
	filter eventstore.Filter,
	maxSequenceNumber eventstore.MaxSequenceNumberUint,
	result core.DecisionResult,
) (bool, error) {

	if result.IsIdempotent() {
		return true, nil
	}

	if result.HasEventToAppend() {
		storableEvent, err := StorableEventFrom(result.Event, EventMetadataFor(ctx))
		if err != nil {
			return false, err
		}

		if err = es.Append(ctx, filter, maxSequenceNumber, storableEvent); err != nil {
			return false, err
		}
	}

	return false, result.HasError()
}

// QueryDomainEventsEventually queries with eventual consistency, so a read replica may serve it.
func QueryDomainEventsEventually(
	ctx context.Context,
	es QueriesEvents,
	filter eventstore.Filter,
) (core.DomainEvents, error) {

	storableEvents, _, err := es.Query(eventstore.WithEventualConsistency(ctx), filter)
	if err != nil {
		return nil, err
	}

	return DomainEventsFrom(storableEvents)
}

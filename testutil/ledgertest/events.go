package ledgertest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-ledger/eventstore"
	"github.com/AntonStoeckl/lending-ledger/ledger/core"
	"github.com/AntonStoeckl/lending-ledger/ledger/shell"
)

// GivenEvents appends domain events to es as they are, without any decision.
func GivenEvents(t *testing.T, es shell.EventStore, events ...core.DomainEvent) {
	t.Helper()

	ctx := context.Background()
	filter := eventstore.BuildEventFilter().MatchingAnyEvent()

	for _, event := range events {
		_, maxSequenceNumber, err := es.Query(ctx, filter)
		require.NoError(t, err)

		metadata := shell.BuildEventMetadata(uuid.New(), uuid.New(), uuid.New())
		storableEvent, err := shell.StorableEventFrom(event, metadata)
		require.NoError(t, err)

		require.NoError(t, es.Append(ctx, filter, maxSequenceNumber, storableEvent))
	}
}

// AllEvents returns every event of es as domain events, in append order.
func AllEvents(t *testing.T, es shell.QueriesEvents) core.DomainEvents {
	t.Helper()

	storableEvents, _, err := es.Query(context.Background(), eventstore.BuildEventFilter().MatchingAnyEvent())
	require.NoError(t, err)

	history, err := shell.DomainEventsFrom(storableEvents)
	require.NoError(t, err)

	return history
}

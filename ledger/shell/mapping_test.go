package shell_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-ledger/eventstore"
	"github.com/AntonStoeckl/lending-ledger/ledger/core"
	"github.com/AntonStoeckl/lending-ledger/ledger/shell"
)

func Test_StorableEventFrom_PayloadKeysAreFilterPredicates(t *testing.T) {
	// arrange
	now := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)
	event := core.BuildBookLent("l1", "b1", "u1", now, now.AddDate(0, 0, 14), now)

	// act
	storable, err := shell.StorableEventFrom(event, shell.EventMetadataFor(t.Context()))

	// assert
	require.NoError(t, err)
	assert.Equal(t, core.BookLentEventType, storable.EventType)
	assert.Equal(t, "l1", storable.PayloadValue(core.LoanIDKey))
	assert.Equal(t, "b1", storable.PayloadValue(core.BookIDKey))
	assert.Equal(t, "u1", storable.PayloadValue(core.UserIDKey))

	filter := eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(core.BookLentEventType).
		AndAllPredicatesOf(eventstore.P(core.BookIDKey, "b1"), eventstore.P(core.UserIDKey, "u1")).
		Finalize()
	assert.True(t, filter.Matches(storable.EventType, storable.PayloadValue))
}

func Test_DomainEventFrom_RestoresEvent(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 30, 0, 123000, time.UTC)
	events := core.DomainEvents{
		core.BuildBookLent("l1", "b1", "u1", now, now.AddDate(0, 0, 14), now),
		core.BuildBookReserved("r1", "b1", "u2", now, now.AddDate(0, 0, 7), now),
		core.BuildLendingBookFailed("b1", "maximum number of loans exceeded", now),
	}

	for _, event := range events {
		t.Run(event.IsEventType(), func(t *testing.T) {
			storable, err := shell.StorableEventFrom(event, shell.EventMetadataFor(t.Context()))
			require.NoError(t, err)

			restored, err := shell.DomainEventFrom(storable)
			require.NoError(t, err)

			assert.Equal(t, event.IsEventType(), restored.IsEventType())
			assert.True(t, event.HasOccurredAt().Equal(restored.HasOccurredAt()))
			assert.Equal(t, event.IsErrorEvent(), restored.IsErrorEvent())
		})
	}
}

func Test_FailureEvents_HaveFlatPayload(t *testing.T) {
	event := core.BuildRemovingBookFailed("b1", "book has active loans", time.Now())

	storable, err := shell.StorableEventFrom(event, shell.EventMetadataFor(t.Context()))

	require.NoError(t, err)
	assert.Equal(t, "b1", storable.PayloadValue("EntityID"))
	assert.Equal(t, "book has active loans", storable.PayloadValue("FailureInfo"))
}

func Test_DomainEventFrom_UnknownEventType(t *testing.T) {
	storable, err := eventstore.BuildStorableEventWithEmptyMetadata("SomethingElse", time.Now(), []byte(`{}`))
	require.NoError(t, err)

	_, err = shell.DomainEventFrom(storable)

	assert.ErrorIs(t, err, shell.ErrMappingToDomainEventUnknownEventType)
	assert.ErrorIs(t, err, shell.ErrMappingToDomainEventFailed)
}

func Test_EventMetadataFor_UsesCorrelationFromContext(t *testing.T) {
	correlationID := uuid.New()
	ctx := shell.WithCorrelationID(t.Context(), correlationID)

	first := shell.EventMetadataFor(ctx)
	second := shell.EventMetadataFor(ctx)

	assert.Equal(t, correlationID.String(), first.CorrelationID)
	assert.Equal(t, correlationID.String(), second.CorrelationID)
	assert.NotEqual(t, first.MessageID, second.MessageID)
	assert.Equal(t, first.MessageID, first.CausationID)
}

func Test_EventMetadataFrom(t *testing.T) {
	metadata := shell.EventMetadataFor(t.Context())
	storable, err := shell.StorableEventFrom(core.BuildUserRegistered("u1", "Ada", time.Now()), metadata)
	require.NoError(t, err)

	restored, err := shell.EventMetadataFrom(storable)

	require.NoError(t, err)
	assert.Equal(t, metadata, restored)
}

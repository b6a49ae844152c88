package memoryengine_test

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-ledger/eventstore"
	"github.com/AntonStoeckl/lending-ledger/eventstore/internal/enginetest"
	"github.com/AntonStoeckl/lending-ledger/eventstore/memoryengine"
)

func Test_MemoryEngine_Conformance(t *testing.T) {
	enginetest.Run(t, func(t *testing.T) eventstore.EventStore {
		t.Helper()

		es, err := memoryengine.NewEventStore()
		require.NoError(t, err)

		return es
	})
}

func Test_MemoryEngine_WithLogger_LogsConcurrencyConflicts(t *testing.T) {
	// arrange
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	es, err := memoryengine.NewEventStore(memoryengine.WithLogger(logger))
	require.NoError(t, err)

	bookID := enginetest.GivenUniqueID(t)
	filter := enginetest.FilterForBook(bookID)
	event := enginetest.FixtureEvent(t, "BookRegistered", time.Now(), map[string]any{"BookID": bookID})
	require.NoError(t, es.Append(t.Context(), filter, 0, event))

	// act
	err = es.Append(t.Context(), filter, 0, event)

	// assert
	assert.ErrorIs(t, err, eventstore.ErrConcurrencyConflict)
	assert.Contains(t, buf.String(), "concurrency conflict detected")
	assert.Contains(t, buf.String(), "events appended")
	assert.Equal(t, 1, es.Len())
}

func Test_MemoryEngine_StoredEvents_AreDetachedFromCaller(t *testing.T) {
	// arrange
	es, err := memoryengine.NewEventStore()
	require.NoError(t, err)

	bookID := enginetest.GivenUniqueID(t)
	event := enginetest.FixtureEvent(t, "BookRegistered", time.Now(), map[string]any{"BookID": bookID})
	require.NoError(t, es.Append(t.Context(), enginetest.FilterForBook(bookID), 0, event))

	// act
	for i := range event.PayloadJSON {
		event.PayloadJSON[i] = ' '
	}

	// assert
	events, _, err := es.Query(t.Context(), enginetest.FilterForBook(bookID))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Contains(t, string(events[0].PayloadJSON), bookID)
}

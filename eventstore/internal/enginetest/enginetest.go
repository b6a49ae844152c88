// Package enginetest contains the behaviour every eventstore.EventStore engine must show,
// as a test suite the engine packages run against their own setup.
package enginetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-ledger/eventstore"
)

// Factory creates a fresh, empty EventStore for one test.
type Factory func(t *testing.T) eventstore.EventStore

// GivenUniqueID returns a random id.
func GivenUniqueID(t *testing.T) string {
	t.Helper()

	return uuid.NewString()
}

// FixtureEvent builds a StorableEvent with the given payload fields.
func FixtureEvent(t *testing.T, eventType string, occurredAt time.Time, payload map[string]any) eventstore.StorableEvent {
	t.Helper()

	payloadJSON, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(payload)
	require.NoError(t, err)

	event, err := eventstore.BuildStorableEvent(eventType, occurredAt, payloadJSON, []byte(`{"MessageID":"`+uuid.NewString()+`"}`))
	require.NoError(t, err)

	return event
}

// FilterForBook matches the lending events of one book.
func FilterForBook(bookID string) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf("BookRegistered", "BookLent", "BookReturned").
		AndAnyPredicateOf(eventstore.P("BookID", bookID)).
		Finalize()
}

// FilterForBookOrUser matches the lending events of one book or one user.
func FilterForBookOrUser(bookID, userID string) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf("BookRegistered", "BookLent", "BookReturned").
		AndAnyPredicateOf(eventstore.P("BookID", bookID), eventstore.P("UserID", userID)).
		Finalize()
}

func lent(t *testing.T, bookID, userID string, at time.Time) eventstore.StorableEvent {
	t.Helper()

	return FixtureEvent(t, "BookLent", at, map[string]any{"LoanID": uuid.NewString(), "BookID": bookID, "UserID": userID})
}

func returned(t *testing.T, bookID, userID string, at time.Time) eventstore.StorableEvent {
	t.Helper()

	return FixtureEvent(t, "BookReturned", at, map[string]any{"LoanID": uuid.NewString(), "BookID": bookID, "UserID": userID})
}

// Run executes the whole suite.
func Run(t *testing.T, newStore Factory) {
	t.Run("Append_When_NoEvent_MatchesTheQuery_BeforeAppend", func(t *testing.T) { appendOnEmptyStream(t, newStore) })
	t.Run("Append_When_SomeEvents_MatchTheQuery_BeforeAppend", func(t *testing.T) { appendOnExistingStream(t, newStore) })
	t.Run("Append_When_A_ConcurrencyConflict_ShouldHappen", func(t *testing.T) { appendConflict(t, newStore) })
	t.Run("AppendMultiple_IsAtomic", func(t *testing.T) { appendMultiple(t, newStore) })
	t.Run("Append_Unrelated_Stream_DoesNotConflict", func(t *testing.T) { appendUnrelated(t, newStore) })
	t.Run("Append_Concurrent", func(t *testing.T) { appendConcurrent(t, newStore) })
	t.Run("Append_WithoutEvents_Fails", func(t *testing.T) { appendNothing(t, newStore) })
	t.Run("Query_RoundTrips_Event", func(t *testing.T) { queryRoundTrip(t, newStore) })
	t.Run("Query_WithFilter_WorksAsExpected", func(t *testing.T) { queryWithFilter(t, newStore) })
	t.Run("Append_When_Context_Is_Cancelled", func(t *testing.T) { appendCancelled(t, newStore) })
	t.Run("Query_When_Context_Is_Cancelled", func(t *testing.T) { queryCancelled(t, newStore) })
}

func appendOnEmptyStream(t *testing.T, newStore Factory) {
	// arrange
	es := newStore(t)
	ctx := t.Context()
	bookID := GivenUniqueID(t)
	filter := FilterForBook(bookID)

	events, maxSeq, err := es.Query(ctx, filter)
	require.NoError(t, err)
	require.Empty(t, events)
	require.Equal(t, eventstore.MaxSequenceNumberUint(0), maxSeq)

	// act
	err = es.Append(ctx, filter, maxSeq, lent(t, bookID, GivenUniqueID(t), time.Now()))

	// assert
	require.NoError(t, err)
	events, maxSeq, err = es.Query(ctx, filter)
	require.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Greater(t, maxSeq, eventstore.MaxSequenceNumberUint(0))
}

func appendOnExistingStream(t *testing.T, newStore Factory) {
	// arrange
	es := newStore(t)
	ctx := t.Context()
	bookID := GivenUniqueID(t)
	userID := GivenUniqueID(t)
	filter := FilterForBook(bookID)

	require.NoError(t, es.Append(ctx, filter, 0, lent(t, bookID, userID, time.Now())))
	_, maxSeq, err := es.Query(ctx, filter)
	require.NoError(t, err)

	// act
	err = es.Append(ctx, filter, maxSeq, returned(t, bookID, userID, time.Now()))

	// assert
	require.NoError(t, err)
	events, newMaxSeq, err := es.Query(ctx, filter)
	require.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Greater(t, newMaxSeq, maxSeq)
	assert.Equal(t, "BookLent", events[0].EventType)
	assert.Equal(t, "BookReturned", events[1].EventType)
}

func appendConflict(t *testing.T, newStore Factory) {
	// arrange
	es := newStore(t)
	ctx := t.Context()
	bookID := GivenUniqueID(t)
	userID := GivenUniqueID(t)
	filter := FilterForBook(bookID)

	_, staleMaxSeq, err := es.Query(ctx, filter)
	require.NoError(t, err)
	require.NoError(t, es.Append(ctx, filter, staleMaxSeq, lent(t, bookID, userID, time.Now())))

	// act
	err = es.Append(ctx, filter, staleMaxSeq, lent(t, bookID, GivenUniqueID(t), time.Now()))

	// assert
	assert.ErrorIs(t, err, eventstore.ErrConcurrencyConflict)
	events, _, err := es.Query(ctx, filter)
	require.NoError(t, err)
	assert.Len(t, events, 1, "the rejected event must not be stored")
}

func appendMultiple(t *testing.T, newStore Factory) {
	// arrange
	es := newStore(t)
	ctx := t.Context()
	bookID := GivenUniqueID(t)
	userID := GivenUniqueID(t)
	filter := FilterForBook(bookID)

	require.NoError(t, es.Append(ctx, filter, 0, lent(t, bookID, userID, time.Now())))

	// act
	conflictErr := es.Append(ctx, filter, 0, returned(t, bookID, userID, time.Now()), lent(t, bookID, userID, time.Now()))
	_, maxSeq, err := es.Query(ctx, filter)
	require.NoError(t, err)
	okErr := es.Append(ctx, filter, maxSeq, returned(t, bookID, userID, time.Now()), lent(t, bookID, userID, time.Now()))

	// assert
	assert.ErrorIs(t, conflictErr, eventstore.ErrConcurrencyConflict)
	assert.NoError(t, okErr)
	events, _, err := es.Query(ctx, filter)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func appendUnrelated(t *testing.T, newStore Factory) {
	// arrange
	es := newStore(t)
	ctx := t.Context()
	bookA := GivenUniqueID(t)
	bookB := GivenUniqueID(t)

	_, maxSeqA, err := es.Query(ctx, FilterForBook(bookA))
	require.NoError(t, err)

	require.NoError(t, es.Append(ctx, FilterForBook(bookB), 0, lent(t, bookB, GivenUniqueID(t), time.Now())))

	// act
	err = es.Append(ctx, FilterForBook(bookA), maxSeqA, lent(t, bookA, GivenUniqueID(t), time.Now()))

	// assert
	assert.NoError(t, err, "a write to another book must not invalidate the decision")
}

func appendConcurrent(t *testing.T, newStore Factory) {
	// arrange
	es := newStore(t)
	ctx := t.Context()
	bookID := GivenUniqueID(t)
	userID := GivenUniqueID(t)
	filter := FilterForBookOrUser(bookID, userID)

	successCount := atomic.Int32{}
	conflictCount := atomic.Int32{}
	eventCount := atomic.Int32{}

	numGoroutines := 8
	operationsPerGoroutine := 25
	var wg sync.WaitGroup

	// act
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)

		go func(routineNum int) {
			defer wg.Done()

			for j := 0; j < operationsPerGoroutine; j++ {
				_, maxSeq, err := es.Query(ctx, filter)
				if err != nil {
					t.Errorf("unexpected query error: %v", err)
					return
				}

				batch := []eventstore.StorableEvent{lent(t, bookID, userID, time.Now())}
				if (routineNum+j)%2 == 0 {
					batch = append(batch, returned(t, bookID, userID, time.Now()))
				}

				err = es.Append(ctx, filter, maxSeq, batch...)

				switch {
				case err == nil:
					successCount.Add(1)
					eventCount.Add(int32(len(batch)))
				case errors.Is(err, eventstore.ErrConcurrencyConflict):
					conflictCount.Add(1)
				default:
					t.Errorf("unexpected append error: %v", err)
				}
			}
		}(i)
	}

	wg.Wait()

	// assert
	assert.Greater(t, successCount.Load(), int32(0))
	assert.Equal(t, int32(numGoroutines*operationsPerGoroutine), successCount.Load()+conflictCount.Load())

	events, _, err := es.Query(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int(eventCount.Load()), len(events), "every successful append and nothing else must be stored")
}

func appendNothing(t *testing.T, newStore Factory) {
	es := newStore(t)

	err := es.Append(t.Context(), eventstore.BuildEventFilter().MatchingAnyEvent(), 0)

	assert.ErrorIs(t, err, eventstore.ErrNoEventsToAppend)
}

func queryRoundTrip(t *testing.T, newStore Factory) {
	// arrange
	es := newStore(t)
	ctx := t.Context()
	bookID := GivenUniqueID(t)
	occurredAt := time.Date(2025, 3, 4, 10, 11, 12, 123456000, time.UTC)
	event := FixtureEvent(t, "BookRegistered", occurredAt, map[string]any{"BookID": bookID, "Title": "Dune", "Copies": 2})

	// act
	require.NoError(t, es.Append(ctx, FilterForBook(bookID), 0, event))
	events, _, err := es.Query(ctx, FilterForBook(bookID))

	// assert
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "BookRegistered", events[0].EventType)
	assert.True(t, occurredAt.Equal(events[0].OccurredAt), fmt.Sprintf("%s != %s", occurredAt, events[0].OccurredAt))
	assert.JSONEq(t, string(event.PayloadJSON), string(events[0].PayloadJSON))
	assert.JSONEq(t, string(event.MetadataJSON), string(events[0].MetadataJSON))
}

//nolint:funlen
func queryWithFilter(t *testing.T, newStore Factory) {
	// arrange
	es := newStore(t)
	ctx := t.Context()
	bookA := GivenUniqueID(t)
	bookB := GivenUniqueID(t)
	user1 := GivenUniqueID(t)
	user2 := GivenUniqueID(t)
	now := time.Now()

	all := eventstore.BuildEventFilter().MatchingAnyEvent()
	seed := []eventstore.StorableEvent{
		FixtureEvent(t, "BookRegistered", now, map[string]any{"BookID": bookA, "Title": "A", "Copies": 1}),
		FixtureEvent(t, "BookRegistered", now, map[string]any{"BookID": bookB, "Title": "B", "Copies": 1}),
		FixtureEvent(t, "UserRegistered", now, map[string]any{"UserID": user1, "Name": "one"}),
		lent(t, bookA, user1, now),
		lent(t, bookB, user2, now),
		FixtureEvent(t, "BookReserved", now, map[string]any{"ReservationID": GivenUniqueID(t), "BookID": bookA, "UserID": user2}),
	}

	for _, e := range seed {
		_, maxSeq, err := es.Query(ctx, all)
		require.NoError(t, err)
		require.NoError(t, es.Append(ctx, all, maxSeq, e))
	}

	tests := []struct {
		name          string
		filter        eventstore.Filter
		expectedTypes []string
	}{
		{
			name:          "any event of one type",
			filter:        eventstore.BuildEventFilter().Matching().AnyEventTypeOf("BookRegistered").Finalize(),
			expectedTypes: []string{"BookRegistered", "BookRegistered"},
		},
		{
			name: "event types and any predicate",
			filter: eventstore.BuildEventFilter().
				Matching().
				AnyEventTypeOf("BookLent", "BookReserved").
				AndAnyPredicateOf(eventstore.P("BookID", bookA), eventstore.P("UserID", user2)).
				Finalize(),
			expectedTypes: []string{"BookLent", "BookLent", "BookReserved"},
		},
		{
			name: "event types and all predicates",
			filter: eventstore.BuildEventFilter().
				Matching().
				AnyEventTypeOf("BookLent", "BookReserved").
				AndAllPredicatesOf(eventstore.P("BookID", bookA), eventstore.P("UserID", user2)).
				Finalize(),
			expectedTypes: []string{"BookReserved"},
		},
		{
			name: "predicate only",
			filter: eventstore.BuildEventFilter().
				Matching().
				AnyPredicateOf(eventstore.P("UserID", user1)).
				Finalize(),
			expectedTypes: []string{"UserRegistered", "BookLent"},
		},
		{
			name: "two items combined with or",
			filter: eventstore.BuildEventFilter().
				Matching().
				AnyEventTypeOf("BookRegistered").
				AndAnyPredicateOf(eventstore.P("BookID", bookB)).
				OrMatching().
				AnyEventTypeOf("UserRegistered").
				AndAnyPredicateOf(eventstore.P("UserID", user1)).
				Finalize(),
			expectedTypes: []string{"BookRegistered", "UserRegistered"},
		},
		{
			name:          "empty filter",
			filter:        all,
			expectedTypes: []string{"BookRegistered", "BookRegistered", "UserRegistered", "BookLent", "BookLent", "BookReserved"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// act
			events, _, err := es.Query(ctx, tc.filter)

			// assert
			require.NoError(t, err)

			actualTypes := make([]string, 0, len(events))
			for _, e := range events {
				actualTypes = append(actualTypes, e.EventType)
			}

			assert.Equal(t, tc.expectedTypes, actualTypes)
		})
	}
}

func appendCancelled(t *testing.T, newStore Factory) {
	// arrange
	es := newStore(t)
	bookID := GivenUniqueID(t)
	filter := FilterForBook(bookID)
	ctx, cancel := context.WithCancel(t.Context())

	// act
	cancel()
	err := es.Append(ctx, filter, 0, lent(t, bookID, GivenUniqueID(t), time.Now()))

	// assert
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	events, _, queryErr := es.Query(t.Context(), filter)
	require.NoError(t, queryErr)
	assert.Empty(t, events, "no events should have been inserted when the context was cancelled")
}

func queryCancelled(t *testing.T, newStore Factory) {
	es := newStore(t)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, _, err := es.Query(ctx, FilterForBook(GivenUniqueID(t)))

	assert.ErrorIs(t, err, context.Canceled)
}

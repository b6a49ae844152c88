package reservationqueue_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-ledger/eventstore/memoryengine"
	"github.com/AntonStoeckl/lending-ledger/ledger/core"
	"github.com/AntonStoeckl/lending-ledger/ledger/features/query/reservationqueue"
	"github.com/AntonStoeckl/lending-ledger/testutil/ledgertest"
)

var day1 = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func Test_ProjectReservationQueue_FIFOByReservationDate(t *testing.T) {
	// arrange
	bookID := uuid.New()
	book := bookID.String()
	history := core.DomainEvents{
		core.BuildBookReserved("late", book, "u1", day1.AddDate(0, 0, 3), day1.AddDate(0, 0, 10), day1),
		core.BuildBookReserved("early", book, "u2", day1, day1.AddDate(0, 0, 7), day1),
		core.BuildBookReserved("tie", book, "u3", day1, day1.AddDate(0, 0, 7), day1),
		core.BuildBookReserved("gone", book, "u4", day1, day1.AddDate(0, 0, 7), day1),
		core.BuildBookReserved("other-book", "b2", "u5", day1, day1.AddDate(0, 0, 7), day1),
		core.BuildReservationCanceled("gone", book, "u4", day1.AddDate(0, 0, 1)),
	}

	// act
	result := reservationqueue.ProjectReservationQueue(history, reservationqueue.BuildQuery(bookID))

	// assert
	require.Equal(t, 3, result.Length)
	assert.Equal(t, "early", result.Entries[0].ReservationID)
	assert.Equal(t, "tie", result.Entries[1].ReservationID)
	assert.Equal(t, "late", result.Entries[2].ReservationID)

	head, ok := result.Head()
	assert.True(t, ok)
	assert.Equal(t, "early", head.ReservationID)
}

func Test_ProjectReservationQueue_EmptyQueueHasNoHead(t *testing.T) {
	result := reservationqueue.ProjectReservationQueue(nil, reservationqueue.BuildQuery(uuid.New()))

	_, ok := result.Head()
	assert.False(t, ok)
	assert.Zero(t, result.Length)
}

func Test_QueryHandler_Handle(t *testing.T) {
	// arrange
	es, err := memoryengine.NewEventStore()
	require.NoError(t, err)
	bookID := uuid.New()
	ledgertest.GivenEvents(t, es,
		core.BuildBookReserved("r1", bookID.String(), "u1", day1, day1.AddDate(0, 0, 7), day1),
		core.BuildBookReserved("r2", bookID.String(), "u2", day1, day1.AddDate(0, 0, 7), day1),
		core.BuildReservationCompleted("r1", bookID.String(), "u1", core.CompletedViaLoan, day1),
	)
	handler, err := reservationqueue.NewQueryHandler(es)
	require.NoError(t, err)

	// act
	result, err := handler.Handle(context.Background(), reservationqueue.BuildQuery(bookID))

	// assert
	require.NoError(t, err)
	require.Equal(t, 1, result.Length)
	assert.Equal(t, "r2", result.Entries[0].ReservationID)
}

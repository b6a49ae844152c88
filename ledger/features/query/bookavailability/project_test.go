package bookavailability_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-ledger/eventstore/memoryengine"
	"github.com/AntonStoeckl/lending-ledger/ledger/core"
	"github.com/AntonStoeckl/lending-ledger/ledger/features/query/bookavailability"
	"github.com/AntonStoeckl/lending-ledger/testutil/ledgertest"
)

var day1 = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func Test_ProjectBookAvailability(t *testing.T) {
	// arrange
	bookID := uuid.New()
	book := bookID.String()
	history := core.DomainEvents{
		core.BuildBookRegistered(book, "Dune", 2, day1),
		core.BuildBookLent("l1", book, "u1", day1, day1.AddDate(0, 0, 14), day1),
		core.BuildBookLent("l2", book, "u2", day1, day1.AddDate(0, 0, 14), day1),
		core.BuildBookReturned("l1", book, "u1", day1, day1),
		core.BuildBookReserved("r1", book, "u3", day1, day1.AddDate(0, 0, 7), day1),
	}

	// act
	result, err := bookavailability.ProjectBookAvailability(history, bookavailability.BuildQuery(bookID))

	// assert
	require.NoError(t, err)
	assert.Equal(t, book, result.BookID)
	assert.Equal(t, "Dune", result.Title)
	assert.Equal(t, 1, result.CopiesAvailable)
	assert.Equal(t, 1, result.ActiveLoans)
	assert.Equal(t, 1, result.QueueLength)
}

func Test_ProjectBookAvailability_UnknownBook(t *testing.T) {
	_, err := bookavailability.ProjectBookAvailability(nil, bookavailability.BuildQuery(uuid.New()))

	assert.ErrorIs(t, err, core.ErrBookNotFound)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func Test_ProjectBookAvailability_RemovedBook(t *testing.T) {
	bookID := uuid.New()
	history := core.DomainEvents{
		core.BuildBookRegistered(bookID.String(), "Dune", 2, day1),
		core.BuildBookRemovedFromCatalog(bookID.String(), day1),
	}

	_, err := bookavailability.ProjectBookAvailability(history, bookavailability.BuildQuery(bookID))

	assert.ErrorIs(t, err, core.ErrBookNotFound)
}

func Test_QueryHandler_Handle(t *testing.T) {
	// arrange
	es, err := memoryengine.NewEventStore()
	require.NoError(t, err)
	bookID, otherBookID := uuid.New(), uuid.New()
	ledgertest.GivenEvents(t, es,
		core.BuildBookRegistered(bookID.String(), "Dune", 1, day1),
		core.BuildBookRegistered(otherBookID.String(), "Emma", 1, day1),
		core.BuildBookLent("l1", otherBookID.String(), "u1", day1, day1.AddDate(0, 0, 14), day1),
	)
	handler, err := bookavailability.NewQueryHandler(es)
	require.NoError(t, err)

	// act
	result, err := handler.Handle(context.Background(), bookavailability.BuildQuery(bookID))

	// assert
	require.NoError(t, err)
	assert.Equal(t, 1, result.CopiesAvailable)
	assert.Zero(t, result.ActiveLoans)
	assert.Zero(t, result.QueueLength)
}

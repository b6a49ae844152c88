package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-ledger/ledger"
	"github.com/AntonStoeckl/lending-ledger/ledger/core"
	"github.com/AntonStoeckl/lending-ledger/testutil/ledgertest"
)

func Test_Ledger_CreateReservation(t *testing.T) {
	// arrange
	f := ledgertest.NewLedger(t)
	ctx := context.Background()
	userID, bookID := givenUser(t, f), givenUnavailableBook(t, f)

	// act
	reservation, err := f.Ledger.CreateReservation(ctx, ledger.CreateReservationRequest{UserID: userID, BookID: bookID})

	// assert
	require.NoError(t, err)
	assert.Equal(t, core.ReservationStatusReserved, reservation.Status)
	assert.Equal(t, core.ToOccurredAt(f.Clock.Now()), reservation.ReservationDate)
	assert.Equal(t, reservation.ReservationDate.AddDate(0, 0, 7), reservation.ExpirationDate)

	queue, err := f.Ledger.ReservationQueue(ctx, bookID)
	require.NoError(t, err)
	assert.Equal(t, 1, queue.Length)
}

func Test_Ledger_CreateReservation_Rejections(t *testing.T) {
	// arrange
	f := ledgertest.NewLedger(t)
	ctx := context.Background()
	userID := givenUser(t, f)
	availableBook, unavailableBook := givenBook(t, f, 1), givenUnavailableBook(t, f)
	_, err := f.Ledger.CreateReservation(ctx, ledger.CreateReservationRequest{UserID: userID, BookID: unavailableBook})
	require.NoError(t, err)

	testCases := []struct {
		name     string
		request  ledger.CreateReservationRequest
		expected error
		kind     error
	}{
		{"book available", ledger.CreateReservationRequest{UserID: userID, BookID: availableBook}, core.ErrBookAvailableForLoan, core.ErrConflict},
		{"already reserved", ledger.CreateReservationRequest{UserID: userID, BookID: unavailableBook}, core.ErrAlreadyReserved, core.ErrConflict},
		{"unknown user", ledger.CreateReservationRequest{UserID: uuid.New(), BookID: unavailableBook}, core.ErrUserNotFound, core.ErrNotFound},
		{"unknown book", ledger.CreateReservationRequest{UserID: userID, BookID: uuid.New()}, core.ErrBookNotFound, core.ErrNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.Ledger.CreateReservation(ctx, tc.request)

			assert.ErrorIs(t, err, tc.expected)
			assert.ErrorIs(t, err, tc.kind)
		})
	}
}

func Test_Ledger_CreateReservation_MaxReservations(t *testing.T) {
	// arrange
	f := ledgertest.NewLedger(t)
	ctx := context.Background()
	userID := givenUser(t, f)
	for i := 0; i < f.Ledger.Policy().MaxReservationsPerUser; i++ {
		_, err := f.Ledger.CreateReservation(ctx, ledger.CreateReservationRequest{UserID: userID, BookID: givenUnavailableBook(t, f)})
		require.NoError(t, err)
	}

	// act
	_, err := f.Ledger.CreateReservation(ctx, ledger.CreateReservationRequest{UserID: userID, BookID: givenUnavailableBook(t, f)})

	// assert
	assert.ErrorIs(t, err, core.ErrMaxReservationsExceeded)
	assert.ErrorIs(t, err, core.ErrLimitExceeded)

	reservations, err := f.Ledger.ReservationsByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 3, reservations.OpenCount)
}

func Test_Ledger_CreateReservation_SameReservationIDIsIdempotent(t *testing.T) {
	// arrange
	f := ledgertest.NewLedger(t)
	ctx := context.Background()
	request := ledger.CreateReservationRequest{ReservationID: uuid.New(), UserID: givenUser(t, f), BookID: givenUnavailableBook(t, f)}

	// act
	first, err1 := f.Ledger.CreateReservation(ctx, request)
	second, err2 := f.Ledger.CreateReservation(ctx, request)

	// assert
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, first, second)
}

func Test_Ledger_CompleteReservation(t *testing.T) {
	// arrange
	f := ledgertest.NewLedger(t)
	ctx := context.Background()
	reservation := givenReservation(t, f)
	f.Clock.AdvanceDays(7)

	// act
	completed, err := f.Ledger.CompleteReservation(ctx, uuid.MustParse(reservation.ReservationID))

	// assert
	require.NoError(t, err)
	assert.Equal(t, core.ReservationStatusCompleted, completed.Status)
	assert.Equal(t, core.CompletedDirectly, completed.CompletedVia)
}

func Test_Ledger_UnknownReservation(t *testing.T) {
	f := ledgertest.NewLedger(t)
	ctx := context.Background()

	_, errCancel := f.Ledger.CancelReservation(ctx, uuid.New())
	_, errComplete := f.Ledger.CompleteReservation(ctx, uuid.New())
	_, errGet := f.Ledger.GetReservation(ctx, uuid.New())

	assert.ErrorIs(t, errCancel, core.ErrReservationNotFound)
	assert.ErrorIs(t, errComplete, core.ErrReservationNotFound)
	assert.ErrorIs(t, errGet, core.ErrReservationNotFound)
}

func Test_Ledger_ReservationsByUser_NewestFirst(t *testing.T) {
	// arrange
	f := ledgertest.NewLedger(t)
	ctx := context.Background()
	userID := givenUser(t, f)
	older, err := f.Ledger.CreateReservation(ctx, ledger.CreateReservationRequest{UserID: userID, BookID: givenUnavailableBook(t, f)})
	require.NoError(t, err)
	f.Clock.Advance(time.Hour)
	newer, err := f.Ledger.CreateReservation(ctx, ledger.CreateReservationRequest{UserID: userID, BookID: givenUnavailableBook(t, f)})
	require.NoError(t, err)

	// act
	result, err := f.Ledger.ReservationsByUser(ctx, userID)

	// assert
	require.NoError(t, err)
	require.Len(t, result.Reservations, 2)
	assert.Equal(t, newer.ReservationID, result.Reservations[0].ReservationID)
	assert.Equal(t, older.ReservationID, result.Reservations[1].ReservationID)
}

// givenUnavailableBook registers a book whose only copy is lent to a fresh user.
func givenUnavailableBook(t *testing.T, f ledgertest.LedgerFixture) uuid.UUID {
	t.Helper()

	bookID := givenBook(t, f, 1)
	_, err := f.Ledger.CreateLoan(context.Background(), ledger.CreateLoanRequest{UserID: givenUser(t, f), BookID: bookID})
	require.NoError(t, err)

	return bookID
}

func givenReservation(t *testing.T, f ledgertest.LedgerFixture) core.Reservation {
	t.Helper()

	reservation, err := f.Ledger.CreateReservation(context.Background(), ledger.CreateReservationRequest{
		UserID: givenUser(t, f),
		BookID: givenUnavailableBook(t, f),
	})
	require.NoError(t, err)

	return reservation
}

package ledger_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-ledger/eventstore/sqliteengine"
	"github.com/AntonStoeckl/lending-ledger/ledger"
	"github.com/AntonStoeckl/lending-ledger/ledger/catalog"
	"github.com/AntonStoeckl/lending-ledger/ledger/core"
	"github.com/AntonStoeckl/lending-ledger/testutil/ledgertest"
)

func Test_ConcurrentLoansOfOneBook_NeverExceedTheCopies(t *testing.T) {
	engines := map[string]func(t *testing.T) ledgertest.LedgerFixture{
		"memory": func(t *testing.T) ledgertest.LedgerFixture { return ledgertest.NewLedger(t) },
		"sqlite": newSQLiteLedger,
	}

	for name, newLedger := range engines {
		t.Run(name, func(t *testing.T) {
			// arrange
			f := newLedger(t)
			ctx := context.Background()
			const copies, borrowers = 3, 12
			bookID := givenBook(t, f, copies)
			users := make([]uuid.UUID, borrowers)
			for i := range users {
				users[i] = givenUser(t, f)
			}

			// act
			errs := runConcurrently(borrowers, func(i int) error {
				_, err := f.Ledger.CreateLoan(ctx, ledger.CreateLoanRequest{UserID: users[i], BookID: bookID})
				return err
			})

			// assert
			succeeded := 0
			for _, err := range errs {
				if err == nil {
					succeeded++
					continue
				}
				assert.ErrorIs(t, err, core.ErrNoCopiesAvailable)
			}
			assert.Equal(t, copies, succeeded)

			availability, err := f.Ledger.BookAvailability(ctx, bookID)
			require.NoError(t, err)
			assert.Zero(t, availability.CopiesAvailable)
			assert.Equal(t, copies, availability.ActiveLoans)
		})
	}
}

func Test_ConcurrentLoansOfOneUser_NeverExceedMaxBooksPerUser(t *testing.T) {
	// arrange
	f := ledgertest.NewLedger(t)
	ctx := context.Background()
	userID := givenUser(t, f)
	const attempts = 10
	books := make([]uuid.UUID, attempts)
	for i := range books {
		books[i] = givenBook(t, f, 1)
	}

	// act
	errs := runConcurrently(attempts, func(i int) error {
		_, err := f.Ledger.CreateLoan(ctx, ledger.CreateLoanRequest{UserID: userID, BookID: books[i]})
		return err
	})

	// assert
	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, core.ErrMaxLoansExceeded)
		assert.ErrorIs(t, err, core.ErrLimitExceeded)
	}
	assert.Equal(t, f.Ledger.Policy().MaxBooksPerUser, succeeded)

	loans, err := f.Ledger.LoansByUser(ctx, userID, true)
	require.NoError(t, err)
	assert.Equal(t, f.Ledger.Policy().MaxBooksPerUser, loans.ActiveCount)
}

func Test_ExtendingMoreThanMaxExtensions_FailsWithLimitExceeded(t *testing.T) {
	// arrange
	f := ledgertest.NewLedger(t)
	ctx := context.Background()
	loan, err := f.Ledger.CreateLoan(ctx, ledger.CreateLoanRequest{UserID: givenUser(t, f), BookID: givenBook(t, f, 1)})
	require.NoError(t, err)
	loanID := uuid.MustParse(loan.LoanID)
	for i := 0; i < f.Ledger.Policy().MaxExtensions; i++ {
		_, err = f.Ledger.ExtendLoan(ctx, loanID, 1)
		require.NoError(t, err)
	}

	// act
	_, errFirst := f.Ledger.ExtendLoan(ctx, loanID, 1)
	_, errSecond := f.Ledger.ExtendLoanByDefault(ctx, loanID)

	// assert
	assert.ErrorIs(t, errFirst, core.ErrMaxExtensionsExceeded)
	assert.ErrorIs(t, errFirst, core.ErrLimitExceeded)
	assert.ErrorIs(t, errSecond, core.ErrLimitExceeded)

	persisted, err := f.Ledger.GetLoan(ctx, loanID)
	require.NoError(t, err)
	assert.Equal(t, f.Ledger.Policy().MaxExtensions, persisted.ExtensionCount)
	assert.Equal(t, loan.DueDate.AddDate(0, 0, 3), persisted.DueDate)
}

func Test_CompletingAnExpiredReservation_FailsWithExpired(t *testing.T) {
	// arrange
	f := ledgertest.NewLedger(t)
	ctx := context.Background()
	reservation := givenReservation(t, f)
	f.Clock.Set(reservation.ExpirationDate.Add(time.Microsecond))

	// act
	_, err := f.Ledger.CompleteReservation(ctx, uuid.MustParse(reservation.ReservationID))

	// assert
	assert.ErrorIs(t, err, core.ErrReservationExpired)
	assert.ErrorIs(t, err, core.ErrExpired)

	persisted, err := f.Ledger.GetReservation(ctx, uuid.MustParse(reservation.ReservationID))
	require.NoError(t, err)
	assert.Equal(t, core.ReservationStatusReserved, persisted.Status)
}

func Test_CancelledReservation_IsImmutable(t *testing.T) {
	// arrange
	f := ledgertest.NewLedger(t)
	ctx := context.Background()
	reservation := givenReservation(t, f)
	reservationID := uuid.MustParse(reservation.ReservationID)
	cancelled, err := f.Ledger.CancelReservation(ctx, reservationID)
	require.NoError(t, err)
	require.Equal(t, core.ReservationStatusCancelled, cancelled.Status)

	// act
	_, errCancel := f.Ledger.CancelReservation(ctx, reservationID)
	_, errComplete := f.Ledger.CompleteReservation(ctx, reservationID)

	// assert
	assert.ErrorIs(t, errCancel, core.ErrInvalidReservationStatus)
	assert.ErrorIs(t, errCancel, core.ErrInvalidState)
	assert.ErrorIs(t, errComplete, core.ErrInvalidState)

	persisted, err := f.Ledger.GetReservation(ctx, reservationID)
	require.NoError(t, err)
	assert.Equal(t, core.ReservationStatusCancelled, persisted.Status)
}

func Test_OverdueSweepTwiceOnTheSameDay_LeavesTheSameState(t *testing.T) {
	// arrange
	f := ledgertest.NewLedger(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.Ledger.CreateLoan(ctx, ledger.CreateLoanRequest{
			UserID:  givenUser(t, f),
			BookID:  givenBook(t, f, 1),
			DueDate: ledgertest.DefaultNow.AddDate(0, 0, i*5),
		})
		require.NoError(t, err)
	}
	sweeper, err := f.Ledger.NewSweeper()
	require.NoError(t, err)
	today := ledgertest.DefaultNow.AddDate(0, 0, 6)

	first, err := sweeper.Run(ctx, today)
	require.NoError(t, err)
	stateAfterFirstRun := core.ProjectLoans(ledgertest.AllEvents(t, f.EventStore))
	eventsAfterFirstRun := f.EventStore.Len()

	// act
	second, err := sweeper.Run(ctx, today)

	// assert
	require.NoError(t, err)
	assert.Equal(t, 2, first.Marked)
	assert.Zero(t, second.Marked)
	assert.Equal(t, eventsAfterFirstRun, f.EventStore.Len())
	assert.Equal(t, stateAfterFirstRun, core.ProjectLoans(ledgertest.AllEvents(t, f.EventStore)))
}

func Test_Scenario_ReturnNotifiesFIFOHeadWhoThenBorrows(t *testing.T) {
	// arrange
	f := ledgertest.NewLedger(t)
	ctx := context.Background()
	day1 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	u1, u2 := givenUser(t, f), givenUser(t, f)
	b1 := givenBook(t, f, 1)
	loanOfU2, err := f.Ledger.CreateLoan(ctx, ledger.CreateLoanRequest{UserID: u2, BookID: b1})
	require.NoError(t, err)

	// day 1: U1 reserves B1
	f.Clock.Set(day1)
	reservation, err := f.Ledger.CreateReservation(ctx, ledger.CreateReservationRequest{UserID: u1, BookID: b1})
	require.NoError(t, err)
	assert.Equal(t, day1.AddDate(0, 0, 7), reservation.ExpirationDate)

	// day 2: U2 returns
	f.Clock.Set(day1.AddDate(0, 0, 1))
	_, err = f.Ledger.ReturnLoan(ctx, uuid.MustParse(loanOfU2.LoanID), time.Time{})
	require.NoError(t, err)

	availability, err := f.Ledger.BookAvailability(ctx, b1)
	require.NoError(t, err)
	assert.Equal(t, 1, availability.CopiesAvailable)

	notifications := f.Sink.Notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, u1.String(), notifications[0].UserID)
	assert.Equal(t, reservation.ReservationID, notifications[0].ReservationID)

	// act: day 3, U1 borrows
	f.Clock.Set(day1.AddDate(0, 0, 2))
	_, err = f.Ledger.CreateLoan(ctx, ledger.CreateLoanRequest{UserID: u1, BookID: b1})

	// assert
	require.NoError(t, err)
	availability, err = f.Ledger.BookAvailability(ctx, b1)
	require.NoError(t, err)
	assert.Zero(t, availability.CopiesAvailable)
	assert.Zero(t, availability.QueueLength)

	completed, err := f.Ledger.GetReservation(ctx, uuid.MustParse(reservation.ReservationID))
	require.NoError(t, err)
	assert.Equal(t, core.ReservationStatusCompleted, completed.Status)
}

func Test_Scenario_OneLoanTooManyTouchesNoCounter(t *testing.T) {
	// arrange
	f := ledgertest.NewLedger(t)
	ctx := context.Background()
	userID := givenUser(t, f)
	for i := 0; i < f.Ledger.Policy().MaxBooksPerUser; i++ {
		_, err := f.Ledger.CreateLoan(ctx, ledger.CreateLoanRequest{UserID: userID, BookID: givenBook(t, f, 1)})
		require.NoError(t, err)
	}
	bookID := givenBook(t, f, 2)

	// act
	_, err := f.Ledger.CreateLoan(ctx, ledger.CreateLoanRequest{UserID: userID, BookID: bookID})

	// assert
	assert.ErrorIs(t, err, core.ErrLimitExceeded)

	stock := catalog.ProjectStock(ledgertest.AllEvents(t, f.EventStore), bookID.String())
	assert.Equal(t, 2, stock.Available())
	assert.Zero(t, stock.Lent)
}

func newSQLiteLedger(t *testing.T) ledgertest.LedgerFixture {
	t.Helper()

	es, err := sqliteengine.Open(context.Background(), filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = es.Close() })

	return ledgertest.NewLedgerOn(t, es)
}

func runConcurrently(n int, fn func(i int) error) []error {
	errs := make([]error, n)
	start := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = fn(i)
		}(i)
	}

	close(start)
	wg.Wait()

	return errs
}


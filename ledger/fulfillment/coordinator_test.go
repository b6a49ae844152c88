package fulfillment_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-ledger/eventstore/memoryengine"
	"github.com/AntonStoeckl/lending-ledger/ledger/core"
	"github.com/AntonStoeckl/lending-ledger/ledger/features/command/completereservationforloan"
	"github.com/AntonStoeckl/lending-ledger/ledger/features/query/reservationqueue"
	"github.com/AntonStoeckl/lending-ledger/ledger/fulfillment"
	"github.com/AntonStoeckl/lending-ledger/testutil/ledgertest"
)

var day1 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

type enqueuerSpy struct {
	mu            sync.Mutex
	notifications []fulfillment.Notification
}

func (s *enqueuerSpy) Enqueue(_ context.Context, notification fulfillment.Notification) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications = append(s.notifications, notification)

	return true
}

func Test_Coordinator_LoanCreated_CompletesOnlyTheBorrowersReservation(t *testing.T) {
	// arrange
	es, coordinator, _ := setupCoordinator(t)
	userID, otherUserID, bookID := uuid.New(), uuid.New(), uuid.New()
	ledgertest.GivenEvents(t, es,
		core.BuildBookReserved("mine", bookID.String(), userID.String(), day1, day1.AddDate(0, 0, 7), day1),
		core.BuildBookReserved("theirs", bookID.String(), otherUserID.String(), day1, day1.AddDate(0, 0, 7), day1),
	)
	loan := core.Loan{LoanID: "l1", UserID: userID.String(), BookID: bookID.String()}

	// act
	coordinator.LoanCreated(context.Background(), loan)

	// assert
	reservations := core.ProjectReservations(ledgertest.AllEvents(t, es))
	require.Len(t, reservations, 2)
	assert.Equal(t, core.ReservationStatusCompleted, reservations[0].Status)
	assert.Equal(t, core.CompletedViaLoan, reservations[0].CompletedVia)
	assert.Equal(t, core.ReservationStatusReserved, reservations[1].Status)
}

func Test_Coordinator_LoanCreated_WithoutReservationAppendsNothing(t *testing.T) {
	es, coordinator, _ := setupCoordinator(t)

	coordinator.LoanCreated(context.Background(), core.Loan{UserID: uuid.NewString(), BookID: uuid.NewString()})

	assert.Zero(t, es.Len())
}

func Test_Coordinator_LoanCreated_LogsErrorsInsteadOfReturningThem(t *testing.T) {
	// arrange
	logger := ledgertest.NewContextualLoggerSpy()
	es, err := memoryengine.NewEventStore()
	require.NoError(t, err)
	coordinator := newCoordinator(t, es, &enqueuerSpy{}, fulfillment.WithCoordinatorContextualLogger(logger))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// act
	coordinator.LoanCreated(ctx, core.Loan{LoanID: "l1", UserID: uuid.NewString(), BookID: uuid.NewString()})

	// assert
	require.Len(t, logger.Records("error"), 1)
	assert.Equal(t, core.KindTransient, logger.Records("error")[0].Attr("error_kind"))
}

func Test_Coordinator_BookReturned_NotifiesTheFIFOHead(t *testing.T) {
	// arrange
	es, coordinator, enqueuer := setupCoordinator(t)
	bookID := uuid.New()
	ledgertest.GivenEvents(t, es,
		core.BuildBookReserved("second", bookID.String(), "u2", day1.AddDate(0, 0, 1), day1.AddDate(0, 0, 8), day1),
		core.BuildBookReserved("first", bookID.String(), "u1", day1, day1.AddDate(0, 0, 7), day1),
	)

	// act
	coordinator.BookReturned(context.Background(), core.Loan{LoanID: "l1", UserID: "u9", BookID: bookID.String()})

	// assert
	require.Len(t, enqueuer.notifications, 1)
	notification := enqueuer.notifications[0]
	assert.Equal(t, "u1", notification.UserID)
	assert.Equal(t, "first", notification.ReservationID)
	assert.Equal(t, bookID.String(), notification.BookID)
	assert.NotEmpty(t, notification.Message)

	reservations := core.ProjectReservations(ledgertest.AllEvents(t, es))
	assert.True(t, reservations[1].IsReserved())
}

func Test_Coordinator_BookReturned_EmptyQueueNotifiesNobody(t *testing.T) {
	_, coordinator, enqueuer := setupCoordinator(t)

	coordinator.BookReturned(context.Background(), core.Loan{BookID: uuid.NewString()})

	assert.Empty(t, enqueuer.notifications)
}

func Test_NewCoordinator_MissingDependency(t *testing.T) {
	_, err := fulfillment.NewCoordinator(nil, nil, nil, nil)

	assert.ErrorIs(t, err, fulfillment.ErrMissingDependency)
}

func setupCoordinator(t *testing.T) (*memoryengine.EventStore, *fulfillment.Coordinator, *enqueuerSpy) {
	t.Helper()

	es, err := memoryengine.NewEventStore()
	require.NoError(t, err)
	enqueuer := &enqueuerSpy{}

	return es, newCoordinator(t, es, enqueuer), enqueuer
}

func newCoordinator(
	t *testing.T,
	es *memoryengine.EventStore,
	enqueuer fulfillment.Enqueuer,
	opts ...fulfillment.CoordinatorOption,
) *fulfillment.Coordinator {

	t.Helper()

	completeForLoan, err := completereservationforloan.NewCommandHandler(es)
	require.NoError(t, err)
	queue, err := reservationqueue.NewQueryHandler(es)
	require.NoError(t, err)

	coordinator, err := fulfillment.NewCoordinator(completeForLoan, queue, enqueuer, ledgertest.NewFakeClock(day1), opts...)
	require.NoError(t, err)

	return coordinator
}

package fulfillment_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-ledger/ledger/fulfillment"
	"github.com/AntonStoeckl/lending-ledger/testutil/ledgertest"
)

func Test_Dispatcher_DeliversInOrder(t *testing.T) {
	// arrange
	sink := ledgertest.NewRecordingSink()
	metrics := ledgertest.NewMetricsCollectorSpy()
	dispatcher, err := fulfillment.NewDispatcher(sink, fulfillment.WithDispatcherMetrics(metrics))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := runDispatcher(ctx, dispatcher)

	// act
	assert.True(t, dispatcher.Enqueue(ctx, fulfillment.Notification{ReservationID: "r1"}))
	assert.True(t, dispatcher.Enqueue(ctx, fulfillment.Notification{ReservationID: "r2"}))
	waitForDeliveries(t, sink, 2)
	cancel()
	<-done

	// assert
	notifications := sink.Notifications()
	require.Len(t, notifications, 2)
	assert.Equal(t, "r1", notifications[0].ReservationID)
	assert.Equal(t, "r2", notifications[1].ReservationID)
	assert.Len(t, metrics.CounterRecords(fulfillment.NotificationsDeliveredMetric), 2)
}

func Test_Dispatcher_Enqueue_DropsWhenBufferIsFull(t *testing.T) {
	// arrange
	logger := ledgertest.NewContextualLoggerSpy()
	metrics := ledgertest.NewMetricsCollectorSpy()
	dispatcher, err := fulfillment.NewDispatcher(
		ledgertest.NewRecordingSink(),
		fulfillment.WithBufferSize(1),
		fulfillment.WithDispatcherContextualLogger(logger),
		fulfillment.WithDispatcherMetrics(metrics),
	)
	require.NoError(t, err)
	ctx := context.Background()

	// act
	first := dispatcher.Enqueue(ctx, fulfillment.Notification{ReservationID: "r1"})
	second := dispatcher.Enqueue(ctx, fulfillment.Notification{ReservationID: "r2"})

	// assert
	assert.True(t, first)
	assert.False(t, second)
	assert.Equal(t, 1, dispatcher.Pending())
	assert.Len(t, metrics.CounterRecords(fulfillment.NotificationsDroppedMetric), 1)
	assert.True(t, logger.HasRecord("warn", "notification dropped, buffer is full"))
}

func Test_Dispatcher_SinkErrorsAreLoggedAndDoNotStopTheWorker(t *testing.T) {
	// arrange
	sink := ledgertest.NewRecordingSink()
	sink.FailWith(errors.New("smtp down"))
	logger := ledgertest.NewContextualLoggerSpy()
	dispatcher, err := fulfillment.NewDispatcher(sink, fulfillment.WithDispatcherContextualLogger(logger))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := runDispatcher(ctx, dispatcher)

	// act
	dispatcher.Enqueue(ctx, fulfillment.Notification{ReservationID: "r1"})
	dispatcher.Enqueue(ctx, fulfillment.Notification{ReservationID: "r2"})
	waitForDeliveries(t, sink, 2)
	cancel()
	<-done

	// assert
	assert.Len(t, sink.Notifications(), 2)
	assert.Len(t, logger.Records("error"), 2)
}

func Test_Dispatcher_Run_DrainsBufferOnShutdown(t *testing.T) {
	// arrange
	sink := ledgertest.NewRecordingSink()
	dispatcher, err := fulfillment.NewDispatcher(sink)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	dispatcher.Enqueue(ctx, fulfillment.Notification{ReservationID: "r1"})
	cancel()

	// act
	err = dispatcher.Run(ctx)

	// assert
	assert.NoError(t, err)
	assert.Len(t, sink.Notifications(), 1)
	assert.Zero(t, dispatcher.Pending())
}

func Test_NewDispatcher_InvalidInput(t *testing.T) {
	_, err := fulfillment.NewDispatcher(nil)
	assert.ErrorIs(t, err, fulfillment.ErrNilSink)

	_, err = fulfillment.NewDispatcher(ledgertest.NewRecordingSink(), fulfillment.WithBufferSize(0))
	assert.ErrorIs(t, err, fulfillment.ErrInvalidBufferSize)
}

func runDispatcher(ctx context.Context, dispatcher *fulfillment.Dispatcher) <-chan struct{} {
	done := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = dispatcher.Run(ctx)
	}()
	go func() {
		wg.Wait()
		close(done)
	}()

	return done
}

func waitForDeliveries(t *testing.T, sink *ledgertest.RecordingSink, n int) {
	t.Helper()

	for i := 0; i < n; i++ {
		select {
		case <-sink.Delivered():
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d of %d notifications delivered", i, n)
		}
	}
}

package fulfillment_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-ledger/ledger/fulfillment"
	"github.com/AntonStoeckl/lending-ledger/testutil/ledgertest"
)

func Test_LogSink_Deliver(t *testing.T) {
	// arrange
	var buf bytes.Buffer
	sink := fulfillment.NewLogSink(slog.New(slog.NewJSONHandler(&buf, nil)))

	// act
	err := sink.Deliver(context.Background(), fulfillment.Notification{UserID: "u1", BookID: "b1", ReservationID: "r1"})

	// assert
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"reservation_id":"r1"`)
	assert.Contains(t, buf.String(), "notification delivered")
}

func Test_FanOut_DeliversToAllSinksAndJoinsErrors(t *testing.T) {
	// arrange
	first, second := ledgertest.NewRecordingSink(), ledgertest.NewRecordingSink()
	boom := errors.New("boom")
	first.FailWith(boom)
	fanOut := fulfillment.FanOut{first, second}

	// act
	err := fanOut.Deliver(context.Background(), fulfillment.Notification{UserID: "u1"})

	// assert
	assert.ErrorIs(t, err, boom)
	assert.Len(t, first.Notifications(), 1)
	assert.Len(t, second.Notifications(), 1)
}

func Test_SinkFunc_Deliver(t *testing.T) {
	called := false
	sink := fulfillment.SinkFunc(func(context.Context, fulfillment.Notification) error {
		called = true
		return nil
	})

	assert.NoError(t, sink.Deliver(context.Background(), fulfillment.Notification{}))
	assert.True(t, called)
}

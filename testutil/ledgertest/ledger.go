package ledgertest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-ledger/eventstore/memoryengine"
	"github.com/AntonStoeckl/lending-ledger/ledger"
	"github.com/AntonStoeckl/lending-ledger/ledger/shell"
)

// LedgerFixture is a Ledger on a fresh in-memory engine, driven by a FakeClock.
type LedgerFixture struct {
	Ledger     *ledger.Ledger
	EventStore *memoryengine.EventStore
	Clock      *FakeClock
	Sink       *RecordingSink
}

// DefaultNow is where the clock of a LedgerFixture starts.
var DefaultNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// NewLedger creates a LedgerFixture. Notifications are recorded synchronously in Sink.
// The retry delays are shortened, so that conflict-heavy tests stay fast.
func NewLedger(t *testing.T, opts ...ledger.Option) LedgerFixture {
	t.Helper()

	es, err := memoryengine.NewEventStore()
	require.NoError(t, err)

	return NewLedgerOn(t, es, opts...)
}

// NewLedgerOn creates a LedgerFixture on an existing engine.
func NewLedgerOn(t *testing.T, es shell.EventStore, opts ...ledger.Option) LedgerFixture {
	t.Helper()

	clock := NewFakeClock(DefaultNow)
	sink := NewRecordingSink()

	defaults := []ledger.Option{
		ledger.WithClock(clock),
		ledger.WithNotifications(synchronousEnqueuer{sink: sink}),
		ledger.WithRetryOptions(
			shell.WithMaxAttempts(100),
			shell.WithBaseDelay(time.Millisecond),
			shell.WithMaxDelay(5*time.Millisecond),
		),
	}

	l, err := ledger.New(es, append(defaults, opts...)...)
	require.NoError(t, err)

	memoryEngine, _ := es.(*memoryengine.EventStore)

	return LedgerFixture{Ledger: l, EventStore: memoryEngine, Clock: clock, Sink: sink}
}

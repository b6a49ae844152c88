package sweep_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-ledger/ledger/core"
	"github.com/AntonStoeckl/lending-ledger/ledger/sweep"
	"github.com/AntonStoeckl/lending-ledger/testutil/ledgertest"
)

type runnerSpy struct {
	mu   sync.Mutex
	days []time.Time
	err  error
	ran  chan struct{}
}

func (r *runnerSpy) Run(_ context.Context, today time.Time) (sweep.Report, error) {
	r.mu.Lock()
	r.days = append(r.days, today)
	r.mu.Unlock()

	select {
	case r.ran <- struct{}{}:
	default:
	}

	return sweep.Report{}, r.err
}

func Test_ParseTimeOfDay(t *testing.T) {
	at, err := sweep.ParseTimeOfDay("02:30")

	require.NoError(t, err)
	assert.Equal(t, sweep.TimeOfDay{Hour: 2, Minute: 30}, at)
	assert.Equal(t, "02:30", at.String())
}

func Test_ParseTimeOfDay_Invalid(t *testing.T) {
	for _, input := range []string{"", "24:00", "2:3x", "12:60"} {
		_, err := sweep.ParseTimeOfDay(input)

		assert.ErrorIs(t, err, sweep.ErrInvalidTimeOfDay, input)
	}
}

func Test_NextRun(t *testing.T) {
	at := sweep.TimeOfDay{Hour: 2, Minute: 30}

	testCases := []struct {
		name     string
		now      time.Time
		expected time.Time
	}{
		{"later today", time.Date(2025, 3, 1, 1, 0, 0, 0, time.UTC), time.Date(2025, 3, 1, 2, 30, 0, 0, time.UTC)},
		{"exactly now", time.Date(2025, 3, 1, 2, 30, 0, 0, time.UTC), time.Date(2025, 3, 2, 2, 30, 0, 0, time.UTC)},
		{"tomorrow", time.Date(2025, 3, 1, 23, 0, 0, 0, time.UTC), time.Date(2025, 3, 2, 2, 30, 0, 0, time.UTC)},
		{"end of month", time.Date(2025, 2, 28, 3, 0, 0, 0, time.UTC), time.Date(2025, 3, 1, 2, 30, 0, 0, time.UTC)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, tc.expected.Equal(sweep.NextRun(tc.now, at, time.UTC)))
		})
	}
}

func Test_Scheduler_Run_FiresDailyUntilCanceled(t *testing.T) {
	// arrange
	clock := ledgertest.NewFakeClock(time.Date(2025, 3, 1, 1, 0, 0, 0, time.UTC))
	runner := &runnerSpy{ran: make(chan struct{}, 2), err: errors.New("sweep failed")}
	logger := ledgertest.NewContextualLoggerSpy()

	var waits []time.Duration
	var mu sync.Mutex
	timer := func(d time.Duration) <-chan time.Time {
		mu.Lock()
		waits = append(waits, d)
		mu.Unlock()
		clock.Advance(d)

		fired := make(chan time.Time, 1)
		fired <- clock.Now()

		return fired
	}

	scheduler, err := sweep.NewScheduler(runner, sweep.TimeOfDay{Hour: 2, Minute: 30}, clock,
		sweep.WithTimer(timer),
		sweep.WithSchedulerContextualLogger(logger),
	)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)

	// act
	go func() { done <- scheduler.Run(ctx) }()
	<-runner.ran
	<-runner.ran
	cancel()

	// assert
	require.NoError(t, <-done)
	mu.Lock()
	defer mu.Unlock()
	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.Equal(t, 90*time.Minute, waits[0])
	assert.Equal(t, 24*time.Hour, waits[1])
	assert.Equal(t, time.Date(2025, 3, 1, 2, 30, 0, 0, time.UTC), runner.days[0])
	assert.Equal(t, time.Date(2025, 3, 2, 2, 30, 0, 0, time.UTC), runner.days[1])
	assert.True(t, logger.HasRecord("error", "overdue sweep failed"))
}

func Test_Scheduler_Run_HandsTheLocalCalendarDayToTheRunner(t *testing.T) {
	// arrange
	sydney := time.FixedZone("AEDT", 11*60*60)
	clock := ledgertest.NewFakeClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	runner := &runnerSpy{ran: make(chan struct{}, 1)}
	timer := func(d time.Duration) <-chan time.Time {
		clock.Advance(d)

		fired := make(chan time.Time, 1)
		fired <- clock.Now()

		return fired
	}

	scheduler, err := sweep.NewScheduler(runner, sweep.TimeOfDay{Hour: 0, Minute: 30}, clock,
		sweep.WithLocation(sydney),
		sweep.WithTimer(timer),
	)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)

	// act
	go func() { done <- scheduler.Run(ctx) }()
	<-runner.ran
	cancel()

	// assert
	require.NoError(t, <-done)
	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.True(t, time.Date(2025, 3, 1, 13, 30, 0, 0, time.UTC).Equal(runner.days[0]))
	assert.Equal(t, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), core.ToCalendarDate(runner.days[0]))
}

func Test_NewScheduler_MissingDependency(t *testing.T) {
	_, err := sweep.NewScheduler(nil, sweep.TimeOfDay{}, nil)

	assert.ErrorIs(t, err, sweep.ErrMissingDependency)
}

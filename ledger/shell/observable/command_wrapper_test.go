package observable_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-ledger/eventstore"
	"github.com/AntonStoeckl/lending-ledger/ledger/core"
	"github.com/AntonStoeckl/lending-ledger/ledger/shell"
	"github.com/AntonStoeckl/lending-ledger/ledger/shell/observable"
	"github.com/AntonStoeckl/lending-ledger/testutil/ledgertest"
)

type mockCommand struct{}

func (mockCommand) CommandType() string { return "MockCommand" }

type mockHandler struct {
	result shell.HandlerResult
	err    error
	calls  int
}

func (h *mockHandler) Handle(_ context.Context, _ mockCommand) (shell.HandlerResult, error) {
	h.calls++
	return h.result, h.err
}

type wrapperFixture struct {
	metrics *ledgertest.MetricsCollectorSpy
	tracing *ledgertest.TracingCollectorSpy
	logger  *ledgertest.ContextualLoggerSpy
}

func wrap(t *testing.T, handler *mockHandler) (*observable.CommandWrapper[mockCommand], wrapperFixture) {
	t.Helper()

	fixture := wrapperFixture{
		metrics: ledgertest.NewMetricsCollectorSpy(),
		tracing: ledgertest.NewTracingCollectorSpy(),
		logger:  ledgertest.NewContextualLoggerSpy(),
	}

	wrapper, err := observable.NewCommandWrapper[mockCommand](
		handler,
		observable.WithCommandMetrics[mockCommand](fixture.metrics),
		observable.WithCommandTracing[mockCommand](fixture.tracing),
		observable.WithCommandContextualLogging[mockCommand](fixture.logger),
	)
	require.NoError(t, err)

	return wrapper, fixture
}

func Test_CommandWrapper_Handle_Success(t *testing.T) {
	// arrange
	handler := &mockHandler{result: shell.HandlerResult{RetryAttempts: 1, LastErrorType: shell.ErrorTypeNone}}
	wrapper, fixture := wrap(t, handler)

	// act
	result, err := wrapper.Handle(t.Context(), mockCommand{})

	// assert
	require.NoError(t, err)
	assert.Equal(t, handler.result, result)
	assert.Equal(t, 1, handler.calls)
	assert.True(t, fixture.metrics.HasCounterRecord(shell.CommandHandlerCallsMetric, map[string]string{
		shell.LogAttrCommandType: "MockCommand",
		shell.LogAttrStatus:      shell.StatusSuccess,
	}))
	assert.Len(t, fixture.metrics.DurationRecords(shell.CommandHandlerDurationMetric), 1)
	assert.Empty(t, fixture.metrics.CounterRecords(shell.CommandHandlerRetriesMetric))

	spans := fixture.tracing.Spans(shell.SpanNameCommandHandle)
	require.Len(t, spans, 1)
	assert.True(t, spans[0].Finished)
	assert.Equal(t, shell.StatusSuccess, spans[0].Status)
	assert.Equal(t, "MockCommand", spans[0].StartAttrs[shell.LogAttrCommandType])

	assert.True(t, fixture.logger.HasRecord("info", shell.LogMsgCommandStarted))
	assert.True(t, fixture.logger.HasRecord("info", shell.LogMsgCommandCompleted))
}

func Test_CommandWrapper_Handle_Idempotent(t *testing.T) {
	handler := &mockHandler{result: shell.HandlerResult{Idempotent: true, RetryAttempts: 1}}
	wrapper, fixture := wrap(t, handler)

	_, err := wrapper.Handle(t.Context(), mockCommand{})

	require.NoError(t, err)
	assert.True(t, fixture.metrics.HasCounterRecord(shell.CommandHandlerCallsMetric, map[string]string{
		shell.LogAttrStatus: shell.StatusIdempotent,
	}))

	spans := fixture.tracing.Spans(shell.SpanNameCommandHandle)
	require.Len(t, spans, 1)
	assert.Equal(t, shell.StatusSuccess, spans[0].Status)
	assert.Equal(t, shell.StatusIdempotent, spans[0].EndAttrs[shell.LogAttrStatus])
}

func Test_CommandWrapper_Handle_BusinessRejection(t *testing.T) {
	handler := &mockHandler{err: core.ErrMaxLoansExceeded, result: shell.HandlerResult{RetryAttempts: 1}}
	wrapper, fixture := wrap(t, handler)

	_, err := wrapper.Handle(t.Context(), mockCommand{})

	assert.ErrorIs(t, err, core.ErrMaxLoansExceeded)
	assert.True(t, fixture.metrics.HasCounterRecord(shell.CommandHandlerCallsMetric, map[string]string{
		shell.LogAttrStatus: shell.StatusRejected,
	}))
	assert.True(t, fixture.metrics.HasCounterRecord(shell.CommandHandlerRejectionsMetric, map[string]string{
		shell.LogAttrErrorKind: core.KindLimitExceeded,
	}))
	assert.True(t, fixture.logger.HasRecord("warn", shell.LogMsgCommandRejected))
	assert.Empty(t, fixture.logger.Records("error"))

	spans := fixture.tracing.Spans(shell.SpanNameCommandHandle)
	require.Len(t, spans, 1)
	assert.Equal(t, shell.StatusSuccess, spans[0].Status)
	assert.Equal(t, core.KindLimitExceeded, spans[0].EndAttrs[shell.LogAttrErrorKind])
}

func Test_CommandWrapper_Handle_InfrastructureError(t *testing.T) {
	handler := &mockHandler{err: shell.ClassifyError(errors.New("connection reset"))}
	wrapper, fixture := wrap(t, handler)

	_, err := wrapper.Handle(t.Context(), mockCommand{})

	assert.ErrorIs(t, err, core.ErrTransient)
	assert.True(t, fixture.metrics.HasCounterRecord(shell.CommandHandlerCallsMetric, map[string]string{
		shell.LogAttrStatus: shell.StatusError,
	}))
	assert.Empty(t, fixture.metrics.CounterRecords(shell.CommandHandlerRejectionsMetric))

	records := fixture.logger.Records("error")
	require.Len(t, records, 1)
	assert.Equal(t, core.KindTransient, records[0].Attr(shell.LogAttrErrorKind))

	spans := fixture.tracing.Spans(shell.SpanNameCommandHandle)
	require.Len(t, spans, 1)
	assert.Equal(t, shell.StatusError, spans[0].Status)
}

func Test_CommandWrapper_Handle_RetriesExhausted(t *testing.T) {
	handler := &mockHandler{
		err: shell.ClassifyError(eventstore.ErrConcurrencyConflict),
		result: shell.HandlerResult{
			RetryAttempts:    6,
			LastErrorType:    shell.ErrorTypeConcurrencyConflict,
			RetriesExhausted: true,
		},
	}
	wrapper, fixture := wrap(t, handler)

	_, err := wrapper.Handle(t.Context(), mockCommand{})

	assert.ErrorIs(t, err, eventstore.ErrConcurrencyConflict)
	assert.True(t, fixture.metrics.HasCounterRecord(shell.CommandHandlerRetriesMetric, map[string]string{
		shell.LogAttrAttemptNumber: "5",
		shell.LogAttrErrorType:     shell.ErrorTypeConcurrencyConflict,
	}))
	assert.Len(t, fixture.metrics.DurationRecords(shell.CommandHandlerRetryDelayMetric), 1)
	assert.Len(t, fixture.metrics.CounterRecords(shell.CommandHandlerMaxRetriesReachedMetric), 1)
	assert.True(t, fixture.metrics.HasCounterRecord(shell.CommandHandlerCallsMetric, map[string]string{
		shell.LogAttrStatus: shell.StatusConcurrencyConflict,
	}))
}

func Test_CommandWrapper_Handle_Canceled(t *testing.T) {
	handler := &mockHandler{err: shell.ClassifyError(context.Canceled)}
	wrapper, fixture := wrap(t, handler)

	_, err := wrapper.Handle(t.Context(), mockCommand{})

	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, fixture.metrics.HasCounterRecord(shell.CommandHandlerCallsMetric, map[string]string{
		shell.LogAttrStatus: shell.StatusCanceled,
	}))
}

func Test_CommandWrapper_WithoutCollectors(t *testing.T) {
	handler := &mockHandler{}

	wrapper, err := observable.NewCommandWrapper[mockCommand](handler)
	require.NoError(t, err)

	_, err = wrapper.Handle(t.Context(), mockCommand{})

	assert.NoError(t, err)
	assert.Equal(t, 1, handler.calls)
}

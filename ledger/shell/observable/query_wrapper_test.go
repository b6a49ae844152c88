package observable_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-ledger/ledger/shell"
	"github.com/AntonStoeckl/lending-ledger/ledger/shell/observable"
	"github.com/AntonStoeckl/lending-ledger/testutil/ledgertest"
)

type mockQuery struct{}

func (mockQuery) QueryType() string { return "MockQuery" }

type mockQueryHandler struct {
	err error
}

func (h mockQueryHandler) Handle(_ context.Context, _ mockQuery) ([]string, error) {
	if h.err != nil {
		return nil, h.err
	}

	return []string{"a", "b"}, nil
}

func Test_QueryWrapper_Handle(t *testing.T) {
	// arrange
	metrics := ledgertest.NewMetricsCollectorSpy()
	tracing := ledgertest.NewTracingCollectorSpy()

	wrapper, err := observable.NewQueryWrapper[mockQuery, []string](
		mockQueryHandler{},
		observable.WithQueryMetrics[mockQuery, []string](metrics),
		observable.WithQueryTracing[mockQuery, []string](tracing),
	)
	require.NoError(t, err)

	// act
	result, err := wrapper.Handle(t.Context(), mockQuery{})

	// assert
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, result)
	assert.True(t, metrics.HasCounterRecord(shell.QueryHandlerCallsMetric, map[string]string{
		shell.LogAttrQueryType: "MockQuery",
		shell.LogAttrStatus:    shell.StatusSuccess,
	}))
	assert.Len(t, tracing.Spans(shell.SpanNameQueryHandle), 1)
}

func Test_QueryWrapper_Handle_Timeout(t *testing.T) {
	metrics := ledgertest.NewMetricsCollectorSpy()
	logger := ledgertest.NewContextualLoggerSpy()

	wrapper, err := observable.NewQueryWrapper[mockQuery, []string](
		mockQueryHandler{err: shell.ClassifyError(context.DeadlineExceeded)},
		observable.WithQueryMetrics[mockQuery, []string](metrics),
		observable.WithQueryContextualLogging[mockQuery, []string](logger),
	)
	require.NoError(t, err)

	_, err = wrapper.Handle(t.Context(), mockQuery{})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, metrics.HasCounterRecord(shell.QueryHandlerCallsMetric, map[string]string{
		shell.LogAttrStatus: shell.StatusTimeout,
	}))
	assert.True(t, logger.HasRecord("error", shell.LogMsgQueryFailed))
}

package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-ledger/eventstore/promadapters"
	"github.com/AntonStoeckl/lending-ledger/ledger/config"
	"github.com/AntonStoeckl/lending-ledger/ledger/fulfillment"
)

func Test_MetricsHandler_ServesRecordedMetrics(t *testing.T) {
	// arrange
	registry := prometheus.NewRegistry()
	metrics := promadapters.NewMetricsCollector(registry)
	metrics.IncrementCounter(fulfillment.NotificationsDeliveredMetric, map[string]string{})
	handler := metricsHandler(registry)

	// act
	metricsResponse := httptest.NewRecorder()
	handler.ServeHTTP(metricsResponse, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	healthResponse := httptest.NewRecorder()
	handler.ServeHTTP(healthResponse, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	// assert
	assert.Equal(t, http.StatusOK, metricsResponse.Code)
	assert.Contains(t, metricsResponse.Body.String(), "ledger_notifications_delivered_total 1")
	assert.Equal(t, http.StatusOK, healthResponse.Code)
}

func Test_Run_StopsWhenContextIsCanceled(t *testing.T) {
	// arrange
	cfg := config.Default()
	cfg.MetricsAddr = ""
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	// act
	go func() { done <- run(ctx, cfg) }()
	cancel()

	// assert
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after cancellation")
	}
}

package main

import (
	"time"

	"github.com/AntonStoeckl/lending-ledger/ledger/shell"
)

// metricsFanOut records every measurement in all collectors.
type metricsFanOut []shell.MetricsCollector

func (m metricsFanOut) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	for _, collector := range m {
		collector.RecordDuration(metric, duration, labels)
	}
}

func (m metricsFanOut) IncrementCounter(metric string, labels map[string]string) {
	for _, collector := range m {
		collector.IncrementCounter(metric, labels)
	}
}

func (m metricsFanOut) RecordValue(metric string, value float64, labels map[string]string) {
	for _, collector := range m {
		collector.RecordValue(metric, value, labels)
	}
}

package ledgertest

import (
	"maps"
	"sync"
	"time"

	"github.com/AntonStoeckl/lending-ledger/eventstore"
)

// MetricsCollectorSpy records all metric calls.
type MetricsCollectorSpy struct {
	mu        sync.Mutex
	durations []MetricRecord
	counters  []MetricRecord
	values    []MetricRecord
}

// MetricRecord is one recorded metric call.
type MetricRecord struct {
	Metric   string
	Duration time.Duration
	Value    float64
	Labels   map[string]string
}

// NewMetricsCollectorSpy creates an empty MetricsCollectorSpy.
func NewMetricsCollectorSpy() *MetricsCollectorSpy {
	return &MetricsCollectorSpy{}
}

func (s *MetricsCollectorSpy) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.durations = append(s.durations, MetricRecord{Metric: metric, Duration: duration, Labels: maps.Clone(labels)})
}

func (s *MetricsCollectorSpy) IncrementCounter(metric string, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters = append(s.counters, MetricRecord{Metric: metric, Labels: maps.Clone(labels)})
}

func (s *MetricsCollectorSpy) RecordValue(metric string, value float64, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = append(s.values, MetricRecord{Metric: metric, Value: value, Labels: maps.Clone(labels)})
}

// CounterRecords returns the counter increments of metric.
func (s *MetricsCollectorSpy) CounterRecords(metric string) []MetricRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return filterRecords(s.counters, metric)
}

// DurationRecords returns the recorded durations of metric.
func (s *MetricsCollectorSpy) DurationRecords(metric string) []MetricRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return filterRecords(s.durations, metric)
}

// ValueRecords returns the recorded values of metric.
func (s *MetricsCollectorSpy) ValueRecords(metric string) []MetricRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return filterRecords(s.values, metric)
}

// HasCounterRecord reports whether metric was incremented with all the given labels.
func (s *MetricsCollectorSpy) HasCounterRecord(metric string, labels map[string]string) bool {
	for _, r := range s.CounterRecords(metric) {
		if containsLabels(r.Labels, labels) {
			return true
		}
	}

	return false
}

func filterRecords(records []MetricRecord, metric string) []MetricRecord {
	found := make([]MetricRecord, 0)
	for _, r := range records {
		if r.Metric == metric {
			found = append(found, r)
		}
	}

	return found
}

func containsLabels(have, want map[string]string) bool {
	for k, v := range want {
		if have[k] != v {
			return false
		}
	}

	return true
}

var _ eventstore.MetricsCollector = (*MetricsCollectorSpy)(nil)

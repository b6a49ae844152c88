// Package promadapters implements eventstore.MetricsCollector on the Prometheus client library.
package promadapters

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AntonStoeckl/lending-ledger/eventstore"
)

// DefaultDurationBuckets fits storage round trips and command handling, in seconds.
var DefaultDurationBuckets = []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// MetricsCollector implements eventstore.ContextualMetricsCollector with Prometheus vectors:
//   - RecordDuration -> HistogramVec in seconds
//   - IncrementCounter -> CounterVec
//   - RecordValue -> GaugeVec
//
// Vectors are created and registered lazily, one per metric name and label name set.
// A measurement is dropped if its vector cannot be registered, e.g. because the same metric name
// was already registered with other label names.
type MetricsCollector struct {
	registerer prometheus.Registerer
	namespace  string
	buckets    []float64

	mu         sync.Mutex
	histograms map[string]*prometheus.HistogramVec
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
}

// Option configures a MetricsCollector.
type Option func(*MetricsCollector)

// WithNamespace prefixes all metric names with namespace and an underscore.
func WithNamespace(namespace string) Option {
	return func(m *MetricsCollector) {
		m.namespace = namespace
	}
}

// WithBuckets overrides DefaultDurationBuckets.
func WithBuckets(buckets ...float64) Option {
	return func(m *MetricsCollector) {
		if len(buckets) > 0 {
			m.buckets = slices.Clone(buckets)
		}
	}
}

// NewMetricsCollector creates a collector which registers its vectors with registerer.
func NewMetricsCollector(registerer prometheus.Registerer, opts ...Option) *MetricsCollector {
	m := &MetricsCollector{
		registerer: registerer,
		buckets:    DefaultDurationBuckets,
		histograms: make(map[string]*prometheus.HistogramVec),
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

func (m *MetricsCollector) RecordDuration(metricName string, duration time.Duration, labels map[string]string) {
	if histogram := m.histogram(metricName, labels); histogram != nil {
		histogram.With(labels).Observe(duration.Seconds())
	}
}

func (m *MetricsCollector) IncrementCounter(metricName string, labels map[string]string) {
	if counter := m.counter(metricName, labels); counter != nil {
		counter.With(labels).Inc()
	}
}

func (m *MetricsCollector) RecordValue(metricName string, value float64, labels map[string]string) {
	if gauge := m.gauge(metricName, labels); gauge != nil {
		gauge.With(labels).Set(value)
	}
}

func (m *MetricsCollector) RecordDurationContext(_ context.Context, metricName string, duration time.Duration, labels map[string]string) {
	m.RecordDuration(metricName, duration, labels)
}

func (m *MetricsCollector) IncrementCounterContext(_ context.Context, metricName string, labels map[string]string) {
	m.IncrementCounter(metricName, labels)
}

func (m *MetricsCollector) RecordValueContext(_ context.Context, metricName string, value float64, labels map[string]string) {
	m.RecordValue(metricName, value, labels)
}

func (m *MetricsCollector) histogram(name string, labels map[string]string) *prometheus.HistogramVec {
	labelNames := sortedLabelNames(labels)
	key := vectorKey(name, labelNames)

	m.mu.Lock()
	defer m.mu.Unlock()

	if histogram, exists := m.histograms[key]; exists {
		return histogram
	}

	histogram := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: m.namespace, Name: name, Help: "Operation duration in seconds.", Buckets: m.buckets},
		labelNames,
	)

	registered, ok := register(m.registerer, histogram).(*prometheus.HistogramVec)
	if !ok {
		return nil
	}

	m.histograms[key] = registered

	return registered
}

func (m *MetricsCollector) counter(name string, labels map[string]string) *prometheus.CounterVec {
	labelNames := sortedLabelNames(labels)
	key := vectorKey(name, labelNames)

	m.mu.Lock()
	defer m.mu.Unlock()

	if counter, exists := m.counters[key]; exists {
		return counter
	}

	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: m.namespace, Name: name, Help: "Operation counter."},
		labelNames,
	)

	registered, ok := register(m.registerer, counter).(*prometheus.CounterVec)
	if !ok {
		return nil
	}

	m.counters[key] = registered

	return registered
}

func (m *MetricsCollector) gauge(name string, labels map[string]string) *prometheus.GaugeVec {
	labelNames := sortedLabelNames(labels)
	key := vectorKey(name, labelNames)

	m.mu.Lock()
	defer m.mu.Unlock()

	if gauge, exists := m.gauges[key]; exists {
		return gauge
	}

	gauge := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: m.namespace, Name: name, Help: "Current value."},
		labelNames,
	)

	registered, ok := register(m.registerer, gauge).(*prometheus.GaugeVec)
	if !ok {
		return nil
	}

	m.gauges[key] = registered

	return registered
}

// register returns the collector which is registered for c's descriptor, or nil.
func register(registerer prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	err := registerer.Register(c)
	if err == nil {
		return c
	}

	var alreadyRegistered prometheus.AlreadyRegisteredError
	if errors.As(err, &alreadyRegistered) {
		return alreadyRegistered.ExistingCollector
	}

	return nil
}

func sortedLabelNames(labels map[string]string) []string {
	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

func vectorKey(name string, labelNames []string) string {
	return name + "{" + strings.Join(labelNames, ",") + "}"
}

var _ eventstore.ContextualMetricsCollector = (*MetricsCollector)(nil)

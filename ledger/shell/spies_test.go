package shell_test

import (
	"sync"
	"time"
)

type metricsSpy struct {
	mu        sync.Mutex
	counters  map[string]int
	histogram map[string]int
}

func (s *metricsSpy) RecordDuration(metric string, _ time.Duration, _ map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.histogram == nil {
		s.histogram = make(map[string]int)
	}
	s.histogram[metric]++
}

func (s *metricsSpy) IncrementCounter(metric string, _ map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.counters == nil {
		s.counters = make(map[string]int)
	}
	s.counters[metric]++
}

func (s *metricsSpy) RecordValue(string, float64, map[string]string) {}

func (s *metricsSpy) counts(metric string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.counters[metric]
}

func (s *metricsSpy) durations(metric string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.histogram[metric]
}

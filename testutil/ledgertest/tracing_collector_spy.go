package ledgertest

import (
	"context"
	"maps"
	"sync"

	"github.com/AntonStoeckl/lending-ledger/eventstore"
)

// SpanRecord is one started span. Status and EndAttrs are set when the span is finished.
type SpanRecord struct {
	Name       string
	StartAttrs map[string]string
	EndAttrs   map[string]string
	Status     string
	Finished   bool
}

// SpySpanContext is the SpanContext handed out by TracingCollectorSpy.
type SpySpanContext struct {
	mu     sync.Mutex
	record *SpanRecord
}

func (c *SpySpanContext) SetStatus(status string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.record.Status = status
}

func (c *SpySpanContext) AddAttribute(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.record.EndAttrs == nil {
		c.record.EndAttrs = make(map[string]string)
	}
	c.record.EndAttrs[key] = value
}

// TracingCollectorSpy records all spans.
type TracingCollectorSpy struct {
	mu    sync.Mutex
	spans []*SpanRecord
}

// NewTracingCollectorSpy creates an empty TracingCollectorSpy.
func NewTracingCollectorSpy() *TracingCollectorSpy {
	return &TracingCollectorSpy{}
}

func (s *TracingCollectorSpy) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, eventstore.SpanContext) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := &SpanRecord{Name: name, StartAttrs: maps.Clone(attrs)}
	s.spans = append(s.spans, record)

	return ctx, &SpySpanContext{record: record}
}

func (s *TracingCollectorSpy) FinishSpan(spanCtx eventstore.SpanContext, status string, attrs map[string]string) {
	spyCtx, ok := spanCtx.(*SpySpanContext)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	spyCtx.record.Status = status
	spyCtx.record.EndAttrs = maps.Clone(attrs)
	spyCtx.record.Finished = true
}

// Spans returns copies of all spans with the given name.
func (s *TracingCollectorSpy) Spans(name string) []SpanRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := make([]SpanRecord, 0)
	for _, r := range s.spans {
		if r.Name == name {
			found = append(found, *r)
		}
	}

	return found
}

var _ eventstore.TracingCollector = (*TracingCollectorSpy)(nil)

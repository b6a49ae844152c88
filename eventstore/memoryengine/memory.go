// Package memoryengine implements the eventstore.EventStore interface in process memory.
//
// All appends are serialized by one mutex, so the check of the expected max sequence number and the append
// are atomic. It is meant for tests, demos and single-process deployments without durability requirements.
package memoryengine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/AntonStoeckl/lending-ledger/eventstore"
	"github.com/AntonStoeckl/lending-ledger/eventstore/internal/observe"
)

const engineName = "memory"

type storedEvent struct {
	sequenceNumber eventstore.MaxSequenceNumberUint
	event          eventstore.StorableEvent
}

// EventStore keeps all events in a slice ordered by sequence number.
type EventStore struct {
	mu       sync.RWMutex
	events   []storedEvent
	lastSeq  eventstore.MaxSequenceNumberUint
	observer *observe.Observer
}

// Option defines a functional option for configuring EventStore.
type Option func(*EventStore) error

// WithLogger sets the logger for the EventStore.
func WithLogger(logger eventstore.Logger) Option {
	return func(es *EventStore) error {
		es.observer.Logger = logger
		return nil
	}
}

// WithContextualLogger sets a context-aware logger, it takes precedence over WithLogger.
func WithContextualLogger(logger eventstore.ContextualLogger) Option {
	return func(es *EventStore) error {
		es.observer.ContextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the EventStore.
func WithMetrics(collector eventstore.MetricsCollector) Option {
	return func(es *EventStore) error {
		es.observer.Metrics = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the EventStore.
func WithTracing(collector eventstore.TracingCollector) Option {
	return func(es *EventStore) error {
		es.observer.Tracing = collector
		return nil
	}
}

// NewEventStore creates an empty in-memory EventStore.
func NewEventStore(options ...Option) (*EventStore, error) {
	es := &EventStore{
		events:   make([]storedEvent, 0),
		observer: &observe.Observer{Engine: engineName},
	}

	for _, option := range options {
		if err := option(es); err != nil {
			return nil, err
		}
	}

	return es, nil
}

// Query returns all events matching the filter in append order and the max sequence number among them.
func (es *EventStore) Query(ctx context.Context, filter eventstore.Filter) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {

	ctx, op := es.observer.StartQuery(ctx, filter)

	if err := ctx.Err(); err != nil {
		op.Failed("query aborted", observe.ErrorTypeDatabase, err)
		return nil, 0, errors.Join(eventstore.ErrQueryingEventsFailed, err)
	}

	es.mu.RLock()
	defer es.mu.RUnlock()

	eventStream := make(eventstore.StorableEvents, 0)
	maxSequenceNumber := eventstore.MaxSequenceNumberUint(0)

	for _, stored := range es.events {
		if filter.Matches(stored.event.EventType, stored.event.PayloadValue) {
			eventStream = append(eventStream, stored.event)
			maxSequenceNumber = stored.sequenceNumber
		}
	}

	op.QuerySucceeded(len(eventStream), maxSequenceNumber)

	return eventStream, maxSequenceNumber, nil
}

// Append appends the events if the max sequence number of the events matching the filter
// still equals expectedMaxSequenceNumber, otherwise it returns eventstore.ErrConcurrencyConflict.
func (es *EventStore) Append(
	ctx context.Context,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
	storableEvents ...eventstore.StorableEvent,
) error {

	ctx, op := es.observer.StartAppend(ctx, storableEvents, expectedMaxSequenceNumber)

	if len(storableEvents) == 0 {
		op.Failed("nothing to append", observe.ErrorTypeBuildQuery, eventstore.ErrNoEventsToAppend)
		return eventstore.ErrNoEventsToAppend
	}

	if err := ctx.Err(); err != nil {
		op.Failed("append aborted", observe.ErrorTypeDatabase, err)
		return errors.Join(eventstore.ErrAppendingEventFailed, err)
	}

	es.mu.Lock()
	defer es.mu.Unlock()

	actualMaxSequenceNumber := es.maxSequenceNumberFor(filter)
	if actualMaxSequenceNumber != expectedMaxSequenceNumber {
		op.Conflict(expectedMaxSequenceNumber, observe.AttrMaxSequence, actualMaxSequenceNumber)
		return eventstore.ErrConcurrencyConflict
	}

	for _, event := range storableEvents {
		es.lastSeq++
		es.events = append(es.events, storedEvent{sequenceNumber: es.lastSeq, event: cloneEvent(event)})
	}

	op.AppendSucceeded(len(storableEvents))

	return nil
}

// Len returns the number of stored events.
func (es *EventStore) Len() int {
	es.mu.RLock()
	defer es.mu.RUnlock()

	return len(es.events)
}

func (es *EventStore) maxSequenceNumberFor(filter eventstore.Filter) eventstore.MaxSequenceNumberUint {
	for i := len(es.events) - 1; i >= 0; i-- {
		stored := es.events[i]
		if filter.Matches(stored.event.EventType, stored.event.PayloadValue) {
			return stored.sequenceNumber
		}
	}

	return 0
}

func cloneEvent(event eventstore.StorableEvent) eventstore.StorableEvent {
	return eventstore.StorableEvent{
		EventType:    event.EventType,
		OccurredAt:   event.OccurredAt.In(time.UTC),
		PayloadJSON:  append([]byte(nil), event.PayloadJSON...),
		MetadataJSON: append([]byte(nil), event.MetadataJSON...),
	}
}

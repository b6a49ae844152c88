// Package observe holds the logging, metrics and tracing plumbing shared by the event store engines.
package observe

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/AntonStoeckl/lending-ledger/eventstore"
)

const (
	MetricQueryDuration        = "eventstore_query_duration_seconds"
	MetricAppendDuration       = "eventstore_append_duration_seconds"
	MetricEventsQueried        = "eventstore_events_queried_total"
	MetricEventsAppended       = "eventstore_events_appended_total"
	MetricConcurrencyConflicts = "eventstore_concurrency_conflicts_total"
	MetricDatabaseErrors       = "eventstore_database_errors_total"

	SpanNameQuery  = "eventstore.query"
	SpanNameAppend = "eventstore.append"

	OperationQuery  = "query"
	OperationAppend = "append"

	AttrOperation    = "operation"
	AttrEngine       = "engine"
	AttrStatus       = "status"
	AttrErrorType    = "error_type"
	AttrEventCount   = "event_count"
	AttrEventType    = "event_type"
	AttrMaxSequence  = "max_sequence"
	AttrExpectedSeq  = "expected_sequence"
	AttrDurationMS   = "duration_ms"
	AttrFilter       = "filter"
	AttrConsistency  = "consistency"
	AttrQuery        = "query"
	AttrError        = "error"
	AttrConflictType = "conflict_type"

	ErrorTypeBuildQuery  = "build_query"
	ErrorTypeDatabase    = "database_query"
	ErrorTypeScan        = "row_scan"
	ErrorTypeBuildEvent  = "build_event"
	ErrorTypeTransaction = "transaction"
	ErrorTypeConflict    = "concurrency_conflict"
	ErrorTypeCanceled    = "context_canceled"

	logMsgOperation   = "eventstore operation: "
	logMsgSQLExecuted = "executed sql for: "
	logMsgQueried     = "query completed"
	logMsgAppended    = "events appended"
	logMsgConflict    = "concurrency conflict detected"
)

// Observer bundles the optional observability collaborators of an engine. All of them may be nil.
type Observer struct {
	Engine           string
	Logger           eventstore.Logger
	ContextualLogger eventstore.ContextualLogger
	Metrics          eventstore.MetricsCollector
	Tracing          eventstore.TracingCollector
}

// Operation tracks one Query or Append from start to finish.
type Operation struct {
	observer *Observer
	ctx      context.Context
	name     string
	span     eventstore.SpanContext
	start    time.Time
}

// StartQuery starts observing a Query.
func (o *Observer) StartQuery(ctx context.Context, filter eventstore.Filter) (context.Context, *Operation) {
	attrs := map[string]string{
		AttrOperation:   OperationQuery,
		AttrEngine:      o.Engine,
		AttrFilter:      filter.String(),
		AttrConsistency: eventstore.GetConsistencyLevel(ctx).String(),
	}

	return o.start(ctx, OperationQuery, SpanNameQuery, attrs)
}

// StartAppend starts observing an Append.
func (o *Observer) StartAppend(
	ctx context.Context,
	events eventstore.StorableEvents,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
) (context.Context, *Operation) {

	attrs := map[string]string{
		AttrOperation:   OperationAppend,
		AttrEngine:      o.Engine,
		AttrEventCount:  fmt.Sprintf("%d", len(events)),
		AttrExpectedSeq: fmt.Sprintf("%d", expectedMaxSequenceNumber),
	}

	if len(events) > 0 {
		attrs[AttrEventType] = events[0].EventType
	}

	return o.start(ctx, OperationAppend, SpanNameAppend, attrs)
}

func (o *Observer) start(ctx context.Context, name, spanName string, attrs map[string]string) (context.Context, *Operation) {
	op := &Operation{observer: o, name: name, start: time.Now()}

	if o.Tracing != nil {
		ctx, op.span = o.Tracing.StartSpan(ctx, spanName, attrs)
	}

	op.ctx = ctx

	return ctx, op
}

// SQL logs an executed statement at debug level.
func (op *Operation) SQL(sqlQuery string, duration time.Duration) {
	op.debug(logMsgSQLExecuted+op.name, AttrDurationMS, ToMilliseconds(duration), AttrQuery, sqlQuery)
}

// QuerySucceeded finishes a successful Query.
func (op *Operation) QuerySucceeded(eventCount int, maxSequenceNumber eventstore.MaxSequenceNumberUint) {
	duration := time.Since(op.start)

	op.info(logMsgOperation+logMsgQueried, AttrEventCount, eventCount, AttrDurationMS, ToMilliseconds(duration))
	op.recordDuration(MetricQueryDuration, duration, eventstore.StatusSuccess)
	op.recordValue(MetricEventsQueried, float64(eventCount), eventstore.StatusSuccess)
	op.finish(eventstore.StatusSuccess, map[string]string{
		AttrEventCount:  fmt.Sprintf("%d", eventCount),
		AttrMaxSequence: fmt.Sprintf("%d", maxSequenceNumber),
		AttrDurationMS:  fmt.Sprintf("%.2f", ToMilliseconds(duration)),
	})
}

// AppendSucceeded finishes a successful Append.
func (op *Operation) AppendSucceeded(eventCount int) {
	duration := time.Since(op.start)

	op.info(logMsgOperation+logMsgAppended, AttrEventCount, eventCount, AttrDurationMS, ToMilliseconds(duration))
	op.recordDuration(MetricAppendDuration, duration, eventstore.StatusSuccess)
	op.recordValue(MetricEventsAppended, float64(eventCount), eventstore.StatusSuccess)
	op.finish(eventstore.StatusSuccess, map[string]string{
		AttrEventCount: fmt.Sprintf("%d", eventCount),
		AttrDurationMS: fmt.Sprintf("%.2f", ToMilliseconds(duration)),
	})
}

// Conflict finishes an Append which was rejected by the concurrency check.
// A conflict is an expected outcome, so it is logged at info level.
func (op *Operation) Conflict(expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint, args ...any) {
	duration := time.Since(op.start)

	allArgs := append([]any{AttrExpectedSeq, expectedMaxSequenceNumber, AttrDurationMS, ToMilliseconds(duration)}, args...)
	op.info(logMsgOperation+logMsgConflict, allArgs...)

	op.recordDuration(MetricAppendDuration, duration, eventstore.StatusError)

	if op.observer.Metrics != nil {
		labels := map[string]string{AttrOperation: op.name, AttrEngine: op.observer.Engine, AttrConflictType: "concurrency"}
		if cmc, ok := op.observer.Metrics.(eventstore.ContextualMetricsCollector); ok {
			cmc.IncrementCounterContext(op.ctx, MetricConcurrencyConflicts, labels)
		} else {
			op.observer.Metrics.IncrementCounter(MetricConcurrencyConflicts, labels)
		}
	}

	op.finish(eventstore.StatusError, map[string]string{AttrErrorType: ErrorTypeConflict})
}

// Failed finishes an operation which failed with err, classified as errorType.
func (op *Operation) Failed(message, errorType string, err error, args ...any) {
	duration := time.Since(op.start)

	if op.ctx.Err() != nil {
		errorType = ErrorTypeCanceled
	}

	allArgs := append([]any{AttrError, err.Error(), AttrErrorType, errorType}, args...)

	switch {
	case op.observer.ContextualLogger != nil:
		op.observer.ContextualLogger.ErrorContext(op.ctx, message, allArgs...)
	case op.observer.Logger != nil:
		op.observer.Logger.Error(message, allArgs...)
	}

	metric := MetricQueryDuration
	if op.name == OperationAppend {
		metric = MetricAppendDuration
	}

	op.recordDuration(metric, duration, eventstore.StatusError)

	if op.observer.Metrics != nil {
		labels := map[string]string{
			AttrOperation: op.name,
			AttrEngine:    op.observer.Engine,
			AttrStatus:    eventstore.StatusError,
			AttrErrorType: errorType,
		}
		if cmc, ok := op.observer.Metrics.(eventstore.ContextualMetricsCollector); ok {
			cmc.IncrementCounterContext(op.ctx, MetricDatabaseErrors, labels)
		} else {
			op.observer.Metrics.IncrementCounter(MetricDatabaseErrors, labels)
		}
	}

	op.finish(eventstore.StatusError, map[string]string{AttrErrorType: errorType})
}

// Warn logs a non-critical issue, e.g. a failed cleanup.
func (op *Operation) Warn(message string, args ...any) {
	switch {
	case op.observer.ContextualLogger != nil:
		op.observer.ContextualLogger.WarnContext(op.ctx, message, args...)
	case op.observer.Logger != nil:
		op.observer.Logger.Warn(message, args...)
	}
}

func (op *Operation) debug(message string, args ...any) {
	switch {
	case op.observer.ContextualLogger != nil:
		op.observer.ContextualLogger.DebugContext(op.ctx, message, args...)
	case op.observer.Logger != nil:
		op.observer.Logger.Debug(message, args...)
	}
}

func (op *Operation) info(message string, args ...any) {
	switch {
	case op.observer.ContextualLogger != nil:
		op.observer.ContextualLogger.InfoContext(op.ctx, message, args...)
	case op.observer.Logger != nil:
		op.observer.Logger.Info(message, args...)
	}
}

func (op *Operation) labels(status string) map[string]string {
	return map[string]string{
		AttrOperation: op.name,
		AttrEngine:    op.observer.Engine,
		AttrStatus:    status,
	}
}

func (op *Operation) recordDuration(metric string, duration time.Duration, status string) {
	if op.observer.Metrics == nil {
		return
	}

	if cmc, ok := op.observer.Metrics.(eventstore.ContextualMetricsCollector); ok {
		cmc.RecordDurationContext(op.ctx, metric, duration, op.labels(status))
		return
	}

	op.observer.Metrics.RecordDuration(metric, duration, op.labels(status))
}

func (op *Operation) recordValue(metric string, value float64, status string) {
	if op.observer.Metrics == nil {
		return
	}

	if cmc, ok := op.observer.Metrics.(eventstore.ContextualMetricsCollector); ok {
		cmc.RecordValueContext(op.ctx, metric, value, op.labels(status))
		return
	}

	op.observer.Metrics.RecordValue(metric, value, op.labels(status))
}

func (op *Operation) finish(status string, attrs map[string]string) {
	if op.span == nil {
		return
	}

	op.span.SetStatus(status)
	for k, v := range attrs {
		op.span.AddAttribute(k, v)
	}

	op.observer.Tracing.FinishSpan(op.span, status, attrs)
}

// ToMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func ToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

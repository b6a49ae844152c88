// Package eventstore defines the abstractions shared by the event store engines of this module:
// Filter, StorableEvent, the EventStore interface, sentinel errors, consistency levels
// and backend-agnostic observability interfaces.
//
// A "dynamic event stream" is the set of events matched by a Filter. Command handlers query it,
// decide, and append conditioned on the stream being unchanged:
//
//	filter := eventstore.BuildEventFilter().
//		Matching().
//		AnyEventTypeOf(core.BookLentEventType, core.BookReturnedEventType).
//		AndAnyPredicateOf(eventstore.P("BookID", bookID)).
//		Finalize()
//
//	events, maxSeq, err := store.Query(ctx, filter)
//	// ... decide ...
//	err = store.Append(ctx, filter, maxSeq, newEvent)
//	if errors.Is(err, eventstore.ErrConcurrencyConflict) {
//		// somebody else wrote to the stream, query and decide again
//	}
//
// Engines: memoryengine (in-process), sqliteengine and postgresengine.
package eventstore

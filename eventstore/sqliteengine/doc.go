// Package sqliteengine implements the eventstore.EventStore interface on SQLite
// with the pure Go driver modernc.org/sqlite, sqlx and goqu.
//
// SQLite allows one writer at a time. The engine limits the pool to a single connection
// and runs the max sequence number check and the insert of Append in one transaction,
// which makes the conditional append atomic.
//
// Usage:
//
//	es, err := sqliteengine.Open(ctx, "/var/lib/ledger/events.db", sqliteengine.WithLogger(logger))
//	if err != nil {
//		// handle error
//	}
//	defer es.Close()
package sqliteengine

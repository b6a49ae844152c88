// Package postgresengine implements the eventstore.EventStore interface on PostgreSQL.
//
// It works with pgxpool.Pool, sql.DB (lib/pq) or sqlx.DB, optionally with a read replica
// which serves queries made with eventstore.WithEventualConsistency.
//
// Append runs in one transaction on the primary. It first takes transaction scoped advisory locks
// on every identity the decision depends on: the key=value predicates of the filter, plus the values
// of the configured lock fields (WithLockFields) in the payloads of the appended events.
// Then a CTE insert appends the events only if the max sequence number of the filter is unchanged.
// The locks make concurrent appends with overlapping identities run one after the other.
// Append transactions always run at READ COMMITTED, whatever default_transaction_isolation the server
// or session has, so the conditional insert sees the rows committed by the previous one.
// Filters without predicates take one global lock exclusively, all other appends take it shared.
//
// Usage:
//
//	es, err := postgresengine.NewEventStoreFromPGXPool(pool,
//		postgresengine.WithLockFields("BookID", "UserID", "LoanID", "ReservationID"),
//		postgresengine.WithLogger(logger))
package postgresengine

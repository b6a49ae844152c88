// Package adapters lets the PostgreSQL event store run on pgxpool.Pool, sql.DB (lib/pq) or sqlx.DB.
//
// All adapters route reads to an optional replica when the context asks for eventual consistency
// and run appends inside a transaction on the primary.
package adapters

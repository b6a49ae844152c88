// Package config holds the process configuration of the ledger binaries.
//
// Load reads an optional .env file, then the LEDGER_* environment variables, then command line flags,
// each layer overriding the one before. The result is validated before it is returned.
//
// OpenEngine turns a Config into a running event store: the in-memory engine, a SQLite file,
// or PostgreSQL through one of the pgx, database/sql or sqlx adapters.
// SetupTelemetry installs OpenTelemetry providers exporting over OTLP when an endpoint is configured.
package config

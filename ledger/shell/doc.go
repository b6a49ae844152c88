// Package shell contains the imperative shell shared by the ledger features:
// mapping between domain events and storable events, event metadata, retry with exponential backoff
// on concurrency conflicts, error classification, and observability helpers for command and query handlers.
package shell

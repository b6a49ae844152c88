package adapters

import (
	"context"

	"github.com/AntonStoeckl/lending-ledger/eventstore"
)

// DBAdapter defines the database operations needed by the event store.
type DBAdapter interface {
	Query(ctx context.Context, query string, args ...any) (DBRows, error)
	InTx(ctx context.Context, fn func(tx DBTx) error) error
	UsesReplica(ctx context.Context) bool
}

// DBTx is the part of a transaction the event store uses.
type DBTx interface {
	Exec(ctx context.Context, query string, args ...any) (DBResult, error)
	QueryRow(ctx context.Context, query string, args ...any) DBRow
}

// DBRows defines the interface for query result rows.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// DBRow is a single result row.
type DBRow interface {
	Scan(dest ...any) error
}

// DBResult defines the interface for execution results.
type DBResult interface {
	RowsAffected() (int64, error)
}

func wantsReplica(ctx context.Context, hasReplica bool) bool {
	return hasReplica && eventstore.GetConsistencyLevel(ctx) == eventstore.EventualConsistency
}

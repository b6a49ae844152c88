package adapters

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// SQLXAdapter implements DBAdapter for sqlx.DB.
type SQLXAdapter struct {
	db        *sqlx.DB
	replicaDB *sqlx.DB
}

// NewSQLXAdapter creates a new SQLX adapter.
func NewSQLXAdapter(db *sqlx.DB) *SQLXAdapter {
	return &SQLXAdapter{db: db}
}

// NewSQLXAdapterWithReplica creates a new SQLX adapter with a replica for reads.
func NewSQLXAdapterWithReplica(db *sqlx.DB, replica *sqlx.DB) *SQLXAdapter {
	return &SQLXAdapter{db: db, replicaDB: replica}
}

// UsesReplica reports whether a Query with this context would go to the replica.
func (s *SQLXAdapter) UsesReplica(ctx context.Context) bool {
	return wantsReplica(ctx, s.replicaDB != nil)
}

func (s *SQLXAdapter) Query(ctx context.Context, query string, args ...any) (DBRows, error) {
	db := s.db
	if s.UsesReplica(ctx) {
		db = s.replicaDB
	}

	rows, err := db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return rows, nil
}

func (s *SQLXAdapter) InTx(ctx context.Context, fn func(tx DBTx) error) error {
	tx, err := s.db.BeginTxx(ctx, readCommitted)
	if err != nil {
		return err
	}

	return runStdTx(ctx, &stdTx{tx: tx.Tx}, fn)
}

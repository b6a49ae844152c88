package adapters

import (
	"context"
	"database/sql"
	"errors"
)

// readCommitted pins the isolation level of appends, whatever the server's default_transaction_isolation is.
// Each statement then sees the rows committed before it, including those committed while waiting for a lock.
var readCommitted = &sql.TxOptions{Isolation: sql.LevelReadCommitted}

// SQLAdapter implements DBAdapter for sql.DB.
type SQLAdapter struct {
	db        *sql.DB
	replicaDB *sql.DB
}

// NewSQLAdapter creates a new SQL adapter.
func NewSQLAdapter(db *sql.DB) *SQLAdapter {
	return &SQLAdapter{db: db}
}

// NewSQLAdapterWithReplica creates a new SQL adapter with a replica for reads.
func NewSQLAdapterWithReplica(db *sql.DB, replica *sql.DB) *SQLAdapter {
	return &SQLAdapter{db: db, replicaDB: replica}
}

// UsesReplica reports whether a Query with this context would go to the replica.
func (s *SQLAdapter) UsesReplica(ctx context.Context) bool {
	return wantsReplica(ctx, s.replicaDB != nil)
}

func (s *SQLAdapter) Query(ctx context.Context, query string, args ...any) (DBRows, error) {
	db := s.db
	if s.UsesReplica(ctx) {
		db = s.replicaDB
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return rows, nil
}

func (s *SQLAdapter) InTx(ctx context.Context, fn func(tx DBTx) error) error {
	tx, err := s.db.BeginTx(ctx, readCommitted)
	if err != nil {
		return err
	}

	return runStdTx(ctx, &stdTx{tx: tx}, fn)
}

// stdTx adapts sql.Tx, which sqlx.Tx embeds as well.
type stdTx struct {
	tx *sql.Tx
}

func (t *stdTx) Exec(ctx context.Context, query string, args ...any) (DBResult, error) {
	return t.tx.ExecContext(ctx, query, args...)
}

func (t *stdTx) QueryRow(ctx context.Context, query string, args ...any) DBRow {
	return t.tx.QueryRowContext(ctx, query, args...)
}

func runStdTx(_ context.Context, tx *stdTx, fn func(tx DBTx) error) error {
	if err := fn(tx); err != nil {
		if rbErr := tx.tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, rbErr)
		}

		return err
	}

	return tx.tx.Commit()
}

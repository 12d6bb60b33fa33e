package service

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// TxRunner executes a function inside one database transaction: commit when
// the function returns nil, roll back otherwise.  Services depend on this
// interface rather than on *sqlx.DB directly so tests can substitute an
// in-memory runner.
type TxRunner interface {
	RunTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

// SQLTxRunner is the production TxRunner over a sqlx database handle.
type SQLTxRunner struct {
	db *sqlx.DB
}

// NewSQLTxRunner creates a SQLTxRunner.
func NewSQLTxRunner(db *sqlx.DB) *SQLTxRunner {
	return &SQLTxRunner{db: db}
}

// RunTx begins a transaction, runs fn, and commits or rolls back depending
// on fn's error.
func (r *SQLTxRunner) RunTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

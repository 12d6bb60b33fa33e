package repository

import (
	"context"
	"fmt"

	"github.com/denizolgu/chancepool/internal/domain"
	"github.com/jmoiron/sqlx"
)

// LockRepository persists the per-node settlement lock: one named boolean
// key per node, surviving process restarts.  Acquisition is a single SQL
// statement so the check-and-set is atomic — never read-then-write.
//
// The lock only guards concurrent fetch/submit cycles within one node; two
// different settler nodes racing on the same bet is resolved by the wager
// ledger's exactly-once removal, not here.
type LockRepository struct {
	db *sqlx.DB
}

// NewLockRepository creates a LockRepository.
func NewLockRepository(db *sqlx.DB) *LockRepository {
	return &LockRepository{db: db}
}

// Acquire takes the node's settlement lock.  A missing row counts as free
// (the lock has never been set).  Returns domain.ErrLockHeld when another
// invocation holds it.
func (r *LockRepository) Acquire(ctx context.Context, nodeID string) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO settlement_locks (node_id, held, acquired_at)
		VALUES ($1, TRUE, now())
		ON CONFLICT (node_id) DO UPDATE
		SET held = TRUE, acquired_at = now()
		WHERE settlement_locks.held = FALSE`,
		nodeID)
	if err != nil {
		return fmt.Errorf("lock_repo.Acquire: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrLockHeld
	}
	return nil
}

// Release frees the node's settlement lock.  Idempotent.
func (r *LockRepository) Release(ctx context.Context, nodeID string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE settlement_locks SET held = FALSE WHERE node_id = $1`,
		nodeID); err != nil {
		return fmt.Errorf("lock_repo.Release: %w", err)
	}
	return nil
}

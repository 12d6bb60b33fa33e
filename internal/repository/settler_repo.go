package repository

import (
	"context"
	"fmt"

	"github.com/denizolgu/chancepool/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// SettlerRepository persists the settler registry.  Rows are read back in
// identity order so the in-memory set is sorted without re-sorting; the
// canonical uuid text form preserves byte order.
type SettlerRepository struct {
	db *sqlx.DB
}

// NewSettlerRepository creates a SettlerRepository.
func NewSettlerRepository(db *sqlx.DB) *SettlerRepository {
	return &SettlerRepository{db: db}
}

// Load reads the full settler set into a sorted domain.SettlerSet with the
// given capacity.
func (r *SettlerRepository) Load(ctx context.Context, capacity int) (*domain.SettlerSet, error) {
	var members []uuid.UUID
	err := r.db.SelectContext(ctx, &members,
		`SELECT account_id FROM settlers ORDER BY account_id`)
	if err != nil {
		return nil, fmt.Errorf("settler_repo.Load: %w", err)
	}
	return domain.NewSettlerSet(capacity, members), nil
}

// LoadTx reads the full settler set inside a transaction, locking every
// roster row.  The roster is never empty, so concurrent mutations always
// collide on at least one locked row and queue behind each other; the
// blocked transaction re-reads the roster as the winner left it.
func (r *SettlerRepository) LoadTx(ctx context.Context, tx *sqlx.Tx, capacity int) (*domain.SettlerSet, error) {
	var members []uuid.UUID
	err := tx.SelectContext(ctx, &members,
		`SELECT account_id FROM settlers ORDER BY account_id FOR UPDATE`)
	if err != nil {
		return nil, fmt.Errorf("settler_repo.LoadTx: %w", err)
	}
	return domain.NewSettlerSet(capacity, members), nil
}

// Add inserts a settler row inside a transaction.
func (r *SettlerRepository) Add(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO settlers (account_id, added_at) VALUES ($1, now())
		ON CONFLICT (account_id) DO NOTHING`, id); err != nil {
		return fmt.Errorf("settler_repo.Add: %w", err)
	}
	return nil
}

// Remove deletes a settler row inside a transaction.
func (r *SettlerRepository) Remove(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM settlers WHERE account_id = $1`, id); err != nil {
		return fmt.Errorf("settler_repo.Remove: %w", err)
	}
	return nil
}

// SeedGenesis inserts the genesis settlers, ignoring identities already
// present.  Called once at startup; mirrors the registry's genesis config.
func (r *SettlerRepository) SeedGenesis(ctx context.Context, ids []uuid.UUID) error {
	for _, id := range ids {
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO settlers (account_id, added_at) VALUES ($1, now())
			ON CONFLICT (account_id) DO NOTHING`, id); err != nil {
			return fmt.Errorf("settler_repo.SeedGenesis: %w", err)
		}
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/denizolgu/chancepool/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// PoolRepository persists the share table and the pool-wide share supply.
// Invariant: the sum of pool_shares.shares equals the pool_supply row after
// every committed operation (floor division in the mint/burn algebra causes
// bounded downward drift of the reserve ratio, never of this sum).
type PoolRepository struct {
	db *sqlx.DB
}

// NewPoolRepository creates a PoolRepository.
func NewPoolRepository(db *sqlx.DB) *PoolRepository {
	return &PoolRepository{db: db}
}

// ShareBalance returns the share balance of an identity (zero when absent).
func (r *PoolRepository) ShareBalance(ctx context.Context, id uuid.UUID) (domain.Amount, error) {
	var shares domain.Amount
	err := r.db.GetContext(ctx, &shares, `SELECT shares FROM pool_shares WHERE account_id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("pool_repo.ShareBalance: %w", err)
	}
	return shares, nil
}

// ShareBalanceTx reads a share balance with FOR UPDATE inside a transaction.
func (r *PoolRepository) ShareBalanceTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (domain.Amount, error) {
	var shares domain.Amount
	err := tx.GetContext(ctx, &shares,
		`SELECT shares FROM pool_shares WHERE account_id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("pool_repo.ShareBalanceTx: %w", err)
	}
	return shares, nil
}

// TotalShares returns the pool-wide share supply.
func (r *PoolRepository) TotalShares(ctx context.Context) (domain.Amount, error) {
	var total domain.Amount
	err := r.db.GetContext(ctx, &total, `SELECT total_shares FROM pool_supply WHERE id = 1`)
	if err != nil {
		return 0, fmt.Errorf("pool_repo.TotalShares: %w", err)
	}
	return total, nil
}

// TotalSharesTx locks and reads the supply row inside a transaction.  Taking
// this lock first also serializes concurrent pool operations.
func (r *PoolRepository) TotalSharesTx(ctx context.Context, tx *sqlx.Tx) (domain.Amount, error) {
	var total domain.Amount
	err := tx.GetContext(ctx, &total, `SELECT total_shares FROM pool_supply WHERE id = 1 FOR UPDATE`)
	if err != nil {
		return 0, fmt.Errorf("pool_repo.TotalSharesTx: %w", err)
	}
	return total, nil
}

// CreditShares adds shares to an identity, creating the row when absent.
func (r *PoolRepository) CreditShares(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, shares domain.Amount) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO pool_shares (account_id, shares)
		VALUES ($1, $2)
		ON CONFLICT (account_id) DO UPDATE
		SET shares = pool_shares.shares + EXCLUDED.shares`,
		id, shares); err != nil {
		return fmt.Errorf("pool_repo.CreditShares: %w", err)
	}
	return nil
}

// DebitShares removes shares from an identity.  The caller must have already
// verified the balance under the same transaction; an underflow here means
// the check was skipped and the operation must abort.
func (r *PoolRepository) DebitShares(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, shares domain.Amount) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE pool_shares SET shares = shares - $1
		WHERE account_id = $2 AND shares >= $1`,
		shares, id)
	if err != nil {
		return fmt.Errorf("pool_repo.DebitShares: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrBalanceLow
	}
	return nil
}

// AddTotalShares grows the pool-wide supply.
func (r *PoolRepository) AddTotalShares(ctx context.Context, tx *sqlx.Tx, shares domain.Amount) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE pool_supply SET total_shares = total_shares + $1 WHERE id = 1`,
		shares); err != nil {
		return fmt.Errorf("pool_repo.AddTotalShares: %w", err)
	}
	return nil
}

// SubTotalShares shrinks the pool-wide supply.
func (r *PoolRepository) SubTotalShares(ctx context.Context, tx *sqlx.Tx, shares domain.Amount) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE pool_supply SET total_shares = total_shares - $1
		WHERE id = 1 AND total_shares >= $1`,
		shares)
	if err != nil {
		return fmt.Errorf("pool_repo.SubTotalShares: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrBalanceLow
	}
	return nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/denizolgu/chancepool/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// BetRepository persists the pending-bet queue.  The primary key is the full
// (bettor, net_wager) tuple: placement of a duplicate tuple is rejected and
// settlement removes exactly one row or none.
type BetRepository struct {
	db *sqlx.DB
}

// NewBetRepository creates a BetRepository.
func NewBetRepository(db *sqlx.DB) *BetRepository {
	return &BetRepository{db: db}
}

// Insert queues a pending bet inside a transaction.  A unique-violation on
// the tuple key maps to domain.ErrBetPending.
func (r *BetRepository) Insert(ctx context.Context, tx *sqlx.Tx, bet domain.PendingBet) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO pending_bets (bettor, net_wager, placed_at)
		VALUES ($1, $2, $3)`,
		bet.Bettor, bet.NetWager, bet.PlacedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return domain.ErrBetPending
		}
		return fmt.Errorf("bet_repo.Insert: %w", err)
	}
	return nil
}

// DeleteExact removes the exact (bettor, wager) tuple inside a transaction.
// Returns domain.ErrBetNotFound when no row matches — the caller must abort
// the whole settlement so a duplicate settlement rolls back its payout too.
func (r *BetRepository) DeleteExact(ctx context.Context, tx *sqlx.Tx, bettor uuid.UUID, wager domain.Amount) error {
	res, err := tx.ExecContext(ctx,
		`DELETE FROM pending_bets WHERE bettor = $1 AND net_wager = $2`,
		bettor, wager)
	if err != nil {
		return fmt.Errorf("bet_repo.DeleteExact: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrBetNotFound
	}
	return nil
}

// List returns a snapshot of the queue as a sorted domain.BetQueue.
func (r *BetRepository) List(ctx context.Context) (*domain.BetQueue, error) {
	var bets []domain.PendingBet
	err := r.db.SelectContext(ctx, &bets, `
		SELECT bettor, net_wager, placed_at
		FROM pending_bets
		ORDER BY bettor, net_wager`)
	if err != nil {
		return nil, fmt.Errorf("bet_repo.List: %w", err)
	}
	return domain.NewBetQueue(bets), nil
}

// ListByBettor returns the pending bets of one identity.
func (r *BetRepository) ListByBettor(ctx context.Context, bettor uuid.UUID) ([]domain.PendingBet, error) {
	var bets []domain.PendingBet
	err := r.db.SelectContext(ctx, &bets, `
		SELECT bettor, net_wager, placed_at
		FROM pending_bets
		WHERE bettor = $1
		ORDER BY net_wager`,
		bettor)
	if err != nil {
		return nil, fmt.Errorf("bet_repo.ListByBettor: %w", err)
	}
	return bets, nil
}

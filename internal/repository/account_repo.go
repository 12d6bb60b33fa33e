// Package repository holds the sqlx persistence layer.  Every state-mutating
// method takes a *sqlx.Tx so the owning service can make a whole ledger
// operation atomic: any failure rolls the transaction back and no partial
// mutation is observable.
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

// AccountRepository is the currency collaborator: a plain balance map keyed
// by identity, with transfer and free-balance operations.  It knows nothing
// about shares or wagers.
type AccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository creates an AccountRepository.
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// FreeBalance returns the spendable balance of an account.  A missing account
// reads as zero — accounts come into existence on first credit and may be
// reaped when emptied under AllowDeath.
func (r *AccountRepository) FreeBalance(ctx context.Context, id uuid.UUID) (domain.Amount, error) {
	var balance domain.Amount
	err := r.db.GetContext(ctx, &balance, `SELECT balance FROM accounts WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("account_repo.FreeBalance: %w", err)
	}
	return balance, nil
}

// FreeBalanceTx reads a balance inside a transaction with FOR UPDATE so the
// value stays stable for the remainder of the operation.
func (r *AccountRepository) FreeBalanceTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (domain.Amount, error) {
	var balance domain.Amount
	err := tx.GetContext(ctx, &balance, `SELECT balance FROM accounts WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("account_repo.FreeBalanceTx: %w", err)
	}
	return balance, nil
}

// Transfer moves amount from one account to another inside a transaction.
//
// The source row is locked FOR UPDATE before the balance check so concurrent
// transfers cannot overdraw.  Returns domain.ErrInsufficientBalance when the
// source cannot cover the amount, or — under KeepAlive — when the transfer
// would empty the source account entirely.  Under AllowDeath an emptied
// source row is deleted.
func (r *AccountRepository) Transfer(
	ctx context.Context,
	tx *sqlx.Tx,
	from, to uuid.UUID,
	amount domain.Amount,
	rule domain.ExistenceRule,
) error {
	if amount.IsZero() {
		return nil
	}

	var balance domain.Amount
	err := tx.GetContext(ctx, &balance, `SELECT balance FROM accounts WHERE id = $1 FOR UPDATE`, from)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrInsufficientBalance
		}
		return fmt.Errorf("account_repo.Transfer lock: %w", err)
	}

	if balance < amount {
		return domain.ErrInsufficientBalance
	}
	remaining := balance - amount
	if rule == domain.KeepAlive && remaining.IsZero() {
		return domain.ErrInsufficientBalance
	}

	if remaining.IsZero() && rule == domain.AllowDeath {
		if _, err = tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, from); err != nil {
			return fmt.Errorf("account_repo.Transfer reap: %w", err)
		}
	} else {
		if _, err = tx.ExecContext(ctx,
			`UPDATE accounts SET balance = $1, updated_at = now() WHERE id = $2`,
			remaining, from); err != nil {
			return fmt.Errorf("account_repo.Transfer debit: %w", err)
		}
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO accounts (id, balance, created_at, updated_at)
		VALUES ($1, $2, now(), now())
		ON CONFLICT (id) DO UPDATE
		SET balance = accounts.balance + EXCLUDED.balance, updated_at = now()`,
		to, amount); err != nil {
		return fmt.Errorf("account_repo.Transfer credit: %w", err)
	}
	return nil
}

// Credit adds amount to an account outside any transfer pairing.  Used only
// by the dev faucet and genesis seeding.
func (r *AccountRepository) Credit(ctx context.Context, id uuid.UUID, amount domain.Amount) error {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, balance, created_at, updated_at)
		VALUES ($1, $2, now(), now())
		ON CONFLICT (id) DO UPDATE
		SET balance = accounts.balance + EXCLUDED.balance, updated_at = now()`,
		id, amount); err != nil {
		return fmt.Errorf("account_repo.Credit: %w", err)
	}
	return nil
}

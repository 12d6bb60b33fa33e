package service

import (
	"context"
	"fmt"

	"github.com/denizolgu/chancepool/internal/config"
	"github.com/denizolgu/chancepool/internal/domain"
	"github.com/denizolgu/chancepool/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ──────────────────────────────────────────────────────────────────────────────
// Interfaces injected into PoolService to avoid import cycles
// ──────────────────────────────────────────────────────────────────────────────

// PoolBroadcaster is the minimal interface PoolService needs from the WS hub.
// Implemented by ws.Hub.
type PoolBroadcaster interface {
	BroadcastPoolUpdate(summary domain.PoolSummary)
}

// ──────────────────────────────────────────────────────────────────────────────
// PoolService
// ──────────────────────────────────────────────────────────────────────────────

// PoolService orchestrates deposits into and withdrawals from the shared
// liquidity pool.  All money and share movement for one operation happens
// inside a single PostgreSQL transaction; the pool_supply row is locked
// FOR UPDATE first, which serialises every pool mutation.
type PoolService struct {
	db          *sqlx.DB
	accountRepo *repository.AccountRepository
	poolRepo    *repository.PoolRepository
	betRepo     *repository.BetRepository
	cfg         *config.Config
	broadcaster PoolBroadcaster // injected after WS Hub is built
}

// NewPoolService creates a PoolService.
func NewPoolService(
	db *sqlx.DB,
	accountRepo *repository.AccountRepository,
	poolRepo *repository.PoolRepository,
	betRepo *repository.BetRepository,
	cfg *config.Config,
) *PoolService {
	return &PoolService{
		db:          db,
		accountRepo: accountRepo,
		poolRepo:    poolRepo,
		betRepo:     betRepo,
		cfg:         cfg,
	}
}

// SetBroadcaster injects the WS Hub dependency post-construction.
func (s *PoolService) SetBroadcaster(b PoolBroadcaster) { s.broadcaster = b }

// ──────────────────────────────────────────────────────────────────────────────
// Deposit
// ──────────────────────────────────────────────────────────────────────────────

// Deposit moves `amount` from the caller into the pool reserve and mints
// shares at the pre-deposit reserve÷supply ratio.  Returns the number of
// shares minted.
func (s *PoolService) Deposit(ctx context.Context, caller uuid.UUID, amount domain.Amount) (domain.Amount, error) {
	// A zero deposit mints zero shares; nothing moves, so skip the round
	// trip.  Only the share transfer treats zero as an error.
	if amount.IsZero() {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("pool_service.Deposit: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Lock the supply row first: every pool mutation queues behind this.
	totalShares, err := s.poolRepo.TotalSharesTx(ctx, tx)
	if err != nil {
		return 0, fmt.Errorf("pool_service.Deposit: total shares: %w", err)
	}

	// The share price uses the reserve as it stood BEFORE this deposit.
	reserveBefore, err := s.accountRepo.FreeBalanceTx(ctx, tx, domain.EscrowAccount())
	if err != nil {
		return 0, fmt.Errorf("pool_service.Deposit: reserve: %w", err)
	}

	var shares domain.Amount
	shares, err = domain.SharesForDeposit(amount, totalShares, reserveBefore)
	if err != nil {
		return 0, err
	}

	// A depositor may spend their whole balance; the emptied account dies.
	if err = s.accountRepo.Transfer(ctx, tx, caller, domain.EscrowAccount(), amount, domain.AllowDeath); err != nil {
		return 0, err
	}

	if err = s.poolRepo.CreditShares(ctx, tx, caller, shares); err != nil {
		return 0, fmt.Errorf("pool_service.Deposit: credit shares: %w", err)
	}
	if err = s.poolRepo.AddTotalShares(ctx, tx, shares); err != nil {
		return 0, fmt.Errorf("pool_service.Deposit: bump supply: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("pool_service.Deposit: commit: %w", err)
	}

	s.broadcastSummary(ctx)
	return shares, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Withdraw
// ──────────────────────────────────────────────────────────────────────────────

// Withdraw burns `shareAmount` of the caller's shares and pays out the
// matching slice of the reserve at the current reserve÷supply ratio.
// Returns the currency paid out.
func (s *PoolService) Withdraw(ctx context.Context, caller uuid.UUID, shareAmount domain.Amount) (domain.Amount, error) {
	// Burning zero shares pays zero; skip the round trip.
	if shareAmount.IsZero() {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("pool_service.Withdraw: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	totalShares, err := s.poolRepo.TotalSharesTx(ctx, tx)
	if err != nil {
		return 0, fmt.Errorf("pool_service.Withdraw: total shares: %w", err)
	}

	held, err := s.poolRepo.ShareBalanceTx(ctx, tx, caller)
	if err != nil {
		return 0, fmt.Errorf("pool_service.Withdraw: share balance: %w", err)
	}
	if held < shareAmount {
		err = domain.ErrBalanceLow
		return 0, err
	}

	reserve, err := s.accountRepo.FreeBalanceTx(ctx, tx, domain.EscrowAccount())
	if err != nil {
		return 0, fmt.Errorf("pool_service.Withdraw: reserve: %w", err)
	}

	var payout domain.Amount
	payout, err = domain.PayoutForShares(shareAmount, reserve, totalShares)
	if err != nil {
		return 0, err
	}

	// The burn debits share units, not payout units.  The reserve transfer
	// failing here means the reserve invariant is broken; the whole op rolls
	// back and nothing is burned.
	if err = s.accountRepo.Transfer(ctx, tx, domain.EscrowAccount(), caller, payout, domain.AllowDeath); err != nil {
		return 0, err
	}
	if err = s.poolRepo.DebitShares(ctx, tx, caller, shareAmount); err != nil {
		return 0, err
	}
	if err = s.poolRepo.SubTotalShares(ctx, tx, shareAmount); err != nil {
		return 0, fmt.Errorf("pool_service.Withdraw: drop supply: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("pool_service.Withdraw: commit: %w", err)
	}

	s.broadcastSummary(ctx)
	return payout, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// TransferShares
// ──────────────────────────────────────────────────────────────────────────────

// TransferShares moves shares between two holders without touching the
// reserve or the total supply.
func (s *PoolService) TransferShares(ctx context.Context, from, to uuid.UUID, shareAmount domain.Amount) error {
	if shareAmount.IsZero() {
		return domain.ErrAmountZero
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pool_service.TransferShares: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.poolRepo.DebitShares(ctx, tx, from, shareAmount); err != nil {
		return err
	}
	if err = s.poolRepo.CreditShares(ctx, tx, to, shareAmount); err != nil {
		return fmt.Errorf("pool_service.TransferShares: credit: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("pool_service.TransferShares: commit: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Query helpers
// ──────────────────────────────────────────────────────────────────────────────

// ShareBalance returns the caller's share holding.
func (s *PoolService) ShareBalance(ctx context.Context, id uuid.UUID) (domain.Amount, error) {
	return s.poolRepo.ShareBalance(ctx, id)
}

// Summary returns a snapshot of the pool.
func (s *PoolService) Summary(ctx context.Context) (domain.PoolSummary, error) {
	reserve, err := s.accountRepo.FreeBalance(ctx, domain.EscrowAccount())
	if err != nil {
		return domain.PoolSummary{}, fmt.Errorf("pool_service.Summary: reserve: %w", err)
	}
	supply, err := s.poolRepo.TotalShares(ctx)
	if err != nil {
		return domain.PoolSummary{}, fmt.Errorf("pool_service.Summary: supply: %w", err)
	}
	queue, err := s.betRepo.List(ctx)
	if err != nil {
		return domain.PoolSummary{}, fmt.Errorf("pool_service.Summary: bets: %w", err)
	}
	return domain.PoolSummary{
		Reserve:     reserve,
		TotalShares: supply,
		PendingBets: queue.Len(),
	}, nil
}

// broadcastSummary pushes a fresh pool snapshot to WS subscribers.
// Read failures after a successful commit are swallowed.
func (s *PoolService) broadcastSummary(ctx context.Context) {
	if s.broadcaster == nil {
		return
	}
	summary, err := s.Summary(ctx)
	if err != nil {
		return
	}
	s.broadcaster.BroadcastPoolUpdate(summary)
}

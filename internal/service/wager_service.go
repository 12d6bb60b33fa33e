package service

import (
	"context"
	"fmt"
	"time"

	"github.com/denizolgu/chancepool/internal/config"
	"github.com/denizolgu/chancepool/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ──────────────────────────────────────────────────────────────────────────────
// Interfaces injected into WagerService
// ──────────────────────────────────────────────────────────────────────────────

// WagerBroadcaster is the minimal interface WagerService needs from the WS
// hub.  Implemented by ws.Hub.
type WagerBroadcaster interface {
	BroadcastBetPlaced(bettor uuid.UUID, netWager domain.Amount)
	BroadcastBetSettled(bettor uuid.UUID, netWager domain.Amount, won bool)
}

// WagerAccountStore is what WagerService needs from the account repository.
// Implemented by repository.AccountRepository.
type WagerAccountStore interface {
	FreeBalanceTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (domain.Amount, error)
	Transfer(ctx context.Context, tx *sqlx.Tx, from, to uuid.UUID, amount domain.Amount, rule domain.ExistenceRule) error
}

// BetStore is what WagerService needs from the pending-bet repository.
// Implemented by repository.BetRepository.
type BetStore interface {
	Insert(ctx context.Context, tx *sqlx.Tx, bet domain.PendingBet) error
	DeleteExact(ctx context.Context, tx *sqlx.Tx, bettor uuid.UUID, wager domain.Amount) error
	List(ctx context.Context) (*domain.BetQueue, error)
	ListByBettor(ctx context.Context, bettor uuid.UUID) ([]domain.PendingBet, error)
}

// SettlerGate authorises settlement callers.  Implemented by SettlerService.
type SettlerGate interface {
	EnsureSettler(ctx context.Context, id uuid.UUID) error
}

// ──────────────────────────────────────────────────────────────────────────────
// WagerService
// ──────────────────────────────────────────────────────────────────────────────

// WagerService runs the two-phase wager flow: PlaceBet escrows the stake and
// queues the bet; Settle, called later by an authorised settler with the
// outcome, pays out a win at double the net wager and removes the bet in the
// same transaction either way.
type WagerService struct {
	txr         TxRunner
	accounts    WagerAccountStore
	bets        BetStore
	settlers    SettlerGate
	cfg         *config.Config
	broadcaster WagerBroadcaster // injected after WS Hub is built
}

// NewWagerService creates a WagerService.
func NewWagerService(
	txr TxRunner,
	accounts WagerAccountStore,
	bets BetStore,
	settlers SettlerGate,
	cfg *config.Config,
) *WagerService {
	return &WagerService{
		txr:      txr,
		accounts: accounts,
		bets:     bets,
		settlers: settlers,
		cfg:      cfg,
	}
}

// SetBroadcaster injects the WS Hub dependency post-construction.
func (s *WagerService) SetBroadcaster(b WagerBroadcaster) { s.broadcaster = b }

// ──────────────────────────────────────────────────────────────────────────────
// PlaceBet
// ──────────────────────────────────────────────────────────────────────────────

// PlaceBet escrows the full stake and queues the bet at its net wager, the
// stake minus the liquidity fee.  The pool must already hold enough to be
// worth betting against: a stake exceeding the locked reserve is rejected
// before any funds move.
//
// Returns the queued bet.  A bettor cannot hold two pending bets at the same
// net wager; the second placement fails with domain.ErrBetPending.
func (s *WagerService) PlaceBet(ctx context.Context, bettor uuid.UUID, amount domain.Amount) (domain.PendingBet, error) {
	var bet domain.PendingBet

	if amount.IsZero() {
		return bet, domain.ErrAmountZero
	}

	err := s.txr.RunTx(ctx, func(tx *sqlx.Tx) error {
		// Lock the reserve row; the fee depends on the locked total, so it
		// must not move under us.
		totalLocked, err := s.accounts.FreeBalanceTx(ctx, tx, domain.EscrowAccount())
		if err != nil {
			return fmt.Errorf("wager_service.PlaceBet: reserve: %w", err)
		}
		if totalLocked < amount {
			return domain.ErrNotEnoughLiquidity
		}

		net, err := domain.NetWager(
			amount,
			totalLocked,
			s.cfg.Ledger.DecimalsConstant(),
			domain.Amount(s.cfg.Ledger.FeeMultiplier),
		)
		if err != nil {
			return err
		}

		// The full stake is escrowed; the fee slice simply never comes back.
		// KeepAlive: a bettor may not wipe out their own account on a bet.
		if err := s.accounts.Transfer(ctx, tx, bettor, domain.EscrowAccount(), amount, domain.KeepAlive); err != nil {
			return err
		}

		bet = domain.PendingBet{
			Bettor:   bettor,
			NetWager: net,
			PlacedAt: time.Now().UTC(),
		}
		return s.bets.Insert(ctx, tx, bet)
	})
	if err != nil {
		return domain.PendingBet{}, err
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastBetPlaced(bet.Bettor, bet.NetWager)
	}
	return bet, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Settle
// ──────────────────────────────────────────────────────────────────────────────

// Settle resolves the pending bet identified by (bettor, netWager).  Only
// roster settlers may call it.  A win pays the bettor double the net wager
// out of the reserve; a loss pays nothing, the escrowed stake simply stays.
// The payout and the queue removal share one transaction, so settling an
// already-settled bet rolls back entirely with domain.ErrBetNotFound.
func (s *WagerService) Settle(ctx context.Context, settler, bettor uuid.UUID, netWager domain.Amount, didWin bool) error {
	if err := s.settlers.EnsureSettler(ctx, settler); err != nil {
		return err
	}

	err := s.txr.RunTx(ctx, func(tx *sqlx.Tx) error {
		if didWin {
			payout, err := netWager.CheckedAdd(netWager)
			if err != nil {
				return err
			}
			if err := s.accounts.Transfer(ctx, tx, domain.EscrowAccount(), bettor, payout, domain.AllowDeath); err != nil {
				return err
			}
		}

		// Removal last: if the bet is already gone, the payout above rolls
		// back and a racing duplicate settlement pays nobody twice.
		return s.bets.DeleteExact(ctx, tx, bettor, netWager)
	})
	if err != nil {
		return err
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastBetSettled(bettor, netWager, didWin)
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Query helpers
// ──────────────────────────────────────────────────────────────────────────────

// PendingBets returns every queued bet in (bettor, net wager) order.
func (s *WagerService) PendingBets(ctx context.Context) ([]domain.PendingBet, error) {
	queue, err := s.bets.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("wager_service.PendingBets: %w", err)
	}
	return queue.Bets(), nil
}

// PendingForBettor returns the queued bets belonging to one account.
func (s *WagerService) PendingForBettor(ctx context.Context, bettor uuid.UUID) ([]domain.PendingBet, error) {
	bets, err := s.bets.ListByBettor(ctx, bettor)
	if err != nil {
		return nil, fmt.Errorf("wager_service.PendingForBettor: %w", err)
	}
	return bets, nil
}

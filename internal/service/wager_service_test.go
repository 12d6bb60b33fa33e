package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/denizolgu/chancepool/internal/config"
	"github.com/denizolgu/chancepool/internal/domain"
	"github.com/denizolgu/chancepool/internal/service"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ──────────────────────────────────────────────────────────────────────────────
// In-memory ledger fakes
//
// The fakes reproduce the repository contracts (existence rules, tuple
// uniqueness, exactly-one-row delete) over maps, and the fake runner
// reproduces transactional rollback by snapshotting state before the
// function runs and restoring it when the function fails.
// ──────────────────────────────────────────────────────────────────────────────

type betKey struct {
	bettor uuid.UUID
	net    domain.Amount
}

type memLedger struct {
	balances map[uuid.UUID]domain.Amount
	bets     map[betKey]domain.PendingBet
}

func newMemLedger() *memLedger {
	return &memLedger{
		balances: make(map[uuid.UUID]domain.Amount),
		bets:     make(map[betKey]domain.PendingBet),
	}
}

func (l *memLedger) snapshot() *memLedger {
	s := newMemLedger()
	for k, v := range l.balances {
		s.balances[k] = v
	}
	for k, v := range l.bets {
		s.bets[k] = v
	}
	return s
}

func (l *memLedger) restore(s *memLedger) {
	l.balances = s.balances
	l.bets = s.bets
}

// memTxRunner rolls the shared ledger back when the transaction body fails.
type memTxRunner struct {
	ledger *memLedger
}

func (r *memTxRunner) RunTx(_ context.Context, fn func(tx *sqlx.Tx) error) error {
	saved := r.ledger.snapshot()
	if err := fn(nil); err != nil {
		r.ledger.restore(saved)
		return err
	}
	return nil
}

type memAccounts struct {
	ledger *memLedger
}

func (a *memAccounts) FreeBalanceTx(_ context.Context, _ *sqlx.Tx, id uuid.UUID) (domain.Amount, error) {
	return a.ledger.balances[id], nil
}

func (a *memAccounts) Transfer(_ context.Context, _ *sqlx.Tx, from, to uuid.UUID, amount domain.Amount, rule domain.ExistenceRule) error {
	if amount.IsZero() {
		return nil
	}
	have := a.ledger.balances[from]
	if have < amount {
		return domain.ErrInsufficientBalance
	}
	remaining := have - amount
	if rule == domain.KeepAlive && remaining.IsZero() {
		return domain.ErrInsufficientBalance
	}
	if remaining.IsZero() {
		delete(a.ledger.balances, from)
	} else {
		a.ledger.balances[from] = remaining
	}
	a.ledger.balances[to] += amount
	return nil
}

type memBets struct {
	ledger *memLedger
}

func (b *memBets) Insert(_ context.Context, _ *sqlx.Tx, bet domain.PendingBet) error {
	k := betKey{bettor: bet.Bettor, net: bet.NetWager}
	if _, ok := b.ledger.bets[k]; ok {
		return domain.ErrBetPending
	}
	b.ledger.bets[k] = bet
	return nil
}

func (b *memBets) DeleteExact(_ context.Context, _ *sqlx.Tx, bettor uuid.UUID, wager domain.Amount) error {
	k := betKey{bettor: bettor, net: wager}
	if _, ok := b.ledger.bets[k]; !ok {
		return domain.ErrBetNotFound
	}
	delete(b.ledger.bets, k)
	return nil
}

func (b *memBets) List(_ context.Context) (*domain.BetQueue, error) {
	bets := make([]domain.PendingBet, 0, len(b.ledger.bets))
	for _, bet := range b.ledger.bets {
		bets = append(bets, bet)
	}
	return domain.NewBetQueue(bets), nil
}

func (b *memBets) ListByBettor(_ context.Context, bettor uuid.UUID) ([]domain.PendingBet, error) {
	var out []domain.PendingBet
	for _, bet := range b.ledger.bets {
		if bet.Bettor == bettor {
			out = append(out, bet)
		}
	}
	return out, nil
}

type memGate struct {
	members map[uuid.UUID]bool
}

func (g *memGate) EnsureSettler(_ context.Context, id uuid.UUID) error {
	if !g.members[id] {
		return domain.ErrNotSettler
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Harness
// ──────────────────────────────────────────────────────────────────────────────

type wagerHarness struct {
	svc     *service.WagerService
	ledger  *memLedger
	settler uuid.UUID
	bettor  uuid.UUID
}

func newWagerHarness() *wagerHarness {
	cfg := &config.Config{
		Ledger: config.LedgerConfig{
			AmountScale:   11,
			FeeMultiplier: 10,
			MaxSettlers:   10,
		},
	}
	ledger := newMemLedger()
	settler := uuid.New()
	gate := &memGate{members: map[uuid.UUID]bool{settler: true}}
	svc := service.NewWagerService(
		&memTxRunner{ledger: ledger},
		&memAccounts{ledger: ledger},
		&memBets{ledger: ledger},
		gate,
		cfg,
	)
	return &wagerHarness{
		svc:     svc,
		ledger:  ledger,
		settler: settler,
		bettor:  uuid.New(),
	}
}

func (h *wagerHarness) queueBet(net domain.Amount) {
	h.ledger.bets[betKey{bettor: h.bettor, net: net}] = domain.PendingBet{
		Bettor:   h.bettor,
		NetWager: net,
		PlacedAt: time.Now().UTC(),
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Settle
// ──────────────────────────────────────────────────────────────────────────────

func TestSettleWinPaysDoubleAndRemovesBet(t *testing.T) {
	h := newWagerHarness()
	escrow := domain.EscrowAccount()
	net := domain.Amount(990_000_000_000)
	h.ledger.balances[escrow] = 100_000_000_000_000
	h.queueBet(net)

	if err := h.svc.Settle(context.Background(), h.settler, h.bettor, net, true); err != nil {
		t.Fatalf("settle: %v", err)
	}

	want := net + net
	if got := h.ledger.balances[h.bettor]; got != want {
		t.Errorf("bettor balance = %d, want %d", got, want)
	}
	if got := h.ledger.balances[escrow]; got != 100_000_000_000_000-want {
		t.Errorf("escrow balance = %d, want %d", got, 100_000_000_000_000-want)
	}
	if len(h.ledger.bets) != 0 {
		t.Errorf("queue has %d bets after settlement, want 0", len(h.ledger.bets))
	}
}

func TestSettleLossPaysNothing(t *testing.T) {
	h := newWagerHarness()
	escrow := domain.EscrowAccount()
	net := domain.Amount(500)
	h.ledger.balances[escrow] = 10_000
	h.queueBet(net)

	if err := h.svc.Settle(context.Background(), h.settler, h.bettor, net, false); err != nil {
		t.Fatalf("settle: %v", err)
	}

	if got := h.ledger.balances[h.bettor]; got != 0 {
		t.Errorf("bettor balance = %d, want 0", got)
	}
	if got := h.ledger.balances[escrow]; got != 10_000 {
		t.Errorf("escrow balance = %d, want 10000", got)
	}
	if len(h.ledger.bets) != 0 {
		t.Errorf("queue has %d bets after settlement, want 0", len(h.ledger.bets))
	}
}

// A duplicate settlement must fail with ErrBetNotFound and must not pay a
// second time: the payout and the queue removal share one transaction, so
// the missing-row failure rolls the payout back.
func TestSettleExactlyOnce(t *testing.T) {
	h := newWagerHarness()
	escrow := domain.EscrowAccount()
	net := domain.Amount(1_000)
	h.ledger.balances[escrow] = 100_000
	h.queueBet(net)

	if err := h.svc.Settle(context.Background(), h.settler, h.bettor, net, true); err != nil {
		t.Fatalf("first settle: %v", err)
	}
	bettorAfter := h.ledger.balances[h.bettor]
	escrowAfter := h.ledger.balances[escrow]

	err := h.svc.Settle(context.Background(), h.settler, h.bettor, net, true)
	if !errors.Is(err, domain.ErrBetNotFound) {
		t.Fatalf("second settle err = %v, want ErrBetNotFound", err)
	}

	if got := h.ledger.balances[h.bettor]; got != bettorAfter {
		t.Errorf("bettor balance moved on duplicate settle: %d -> %d", bettorAfter, got)
	}
	if got := h.ledger.balances[escrow]; got != escrowAfter {
		t.Errorf("escrow balance moved on duplicate settle: %d -> %d", escrowAfter, got)
	}
}

func TestSettleByNonSettlerLeavesQueueUntouched(t *testing.T) {
	h := newWagerHarness()
	escrow := domain.EscrowAccount()
	net := domain.Amount(1_000)
	h.ledger.balances[escrow] = 100_000
	h.queueBet(net)

	stranger := uuid.New()
	err := h.svc.Settle(context.Background(), stranger, h.bettor, net, true)
	if !errors.Is(err, domain.ErrNotSettler) {
		t.Fatalf("settle err = %v, want ErrNotSettler", err)
	}

	if len(h.ledger.bets) != 1 {
		t.Errorf("queue has %d bets, want 1", len(h.ledger.bets))
	}
	if got := h.ledger.balances[escrow]; got != 100_000 {
		t.Errorf("escrow balance = %d, want 100000", got)
	}
}

func TestSettleUnknownTupleRejected(t *testing.T) {
	h := newWagerHarness()
	escrow := domain.EscrowAccount()
	h.ledger.balances[escrow] = 100_000
	h.queueBet(1_000)

	// Same bettor, different net wager: the tuple does not match.
	err := h.svc.Settle(context.Background(), h.settler, h.bettor, 999, true)
	if !errors.Is(err, domain.ErrBetNotFound) {
		t.Fatalf("settle err = %v, want ErrBetNotFound", err)
	}
	if len(h.ledger.bets) != 1 {
		t.Errorf("queue has %d bets, want 1", len(h.ledger.bets))
	}
	if got := h.ledger.balances[escrow]; got != 100_000 {
		t.Errorf("escrow balance = %d, want 100000", got)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// PlaceBet
// ──────────────────────────────────────────────────────────────────────────────

func TestPlaceBetEscrowsStakeAndQueuesNetWager(t *testing.T) {
	h := newWagerHarness()
	escrow := domain.EscrowAccount()
	const unit = domain.Amount(100_000_000_000) // one display unit at scale 11

	h.ledger.balances[escrow] = 1000 * unit
	h.ledger.balances[h.bettor] = 20 * unit

	bet, err := h.svc.PlaceBet(context.Background(), h.bettor, 10*unit)
	if err != nil {
		t.Fatalf("place bet: %v", err)
	}

	// 10 units against a 1000-unit pool: fee is 1% of the stake.
	if want := domain.Amount(990_000_000_000); bet.NetWager != want {
		t.Errorf("net wager = %d, want %d", bet.NetWager, want)
	}
	if got := h.ledger.balances[escrow]; got != 1010*unit {
		t.Errorf("escrow balance = %d, want %d", got, 1010*unit)
	}
	if got := h.ledger.balances[h.bettor]; got != 10*unit {
		t.Errorf("bettor balance = %d, want %d", got, 10*unit)
	}
	if len(h.ledger.bets) != 1 {
		t.Fatalf("queue has %d bets, want 1", len(h.ledger.bets))
	}
}

func TestPlaceBetDuplicateTupleRollsBackStake(t *testing.T) {
	h := newWagerHarness()
	escrow := domain.EscrowAccount()
	const unit = domain.Amount(100_000_000_000)

	// A 10-unit stake against a 1000-unit pool nets 990_000_000_000 base
	// units.  Queue that exact tuple up front so the placement collides.
	h.ledger.balances[escrow] = 1000 * unit
	h.ledger.balances[h.bettor] = 30 * unit
	h.queueBet(990_000_000_000)

	_, err := h.svc.PlaceBet(context.Background(), h.bettor, 10*unit)
	if !errors.Is(err, domain.ErrBetPending) {
		t.Fatalf("duplicate placement err = %v, want ErrBetPending", err)
	}

	// The escrowed stake must come back with the rollback.
	if got := h.ledger.balances[h.bettor]; got != 30*unit {
		t.Errorf("bettor balance = %d, want %d", got, 30*unit)
	}
	if got := h.ledger.balances[escrow]; got != 1000*unit {
		t.Errorf("escrow balance = %d, want %d", got, 1000*unit)
	}
	if len(h.ledger.bets) != 1 {
		t.Errorf("queue has %d bets, want 1", len(h.ledger.bets))
	}
}

func TestPlaceBetRequiresFullCollateral(t *testing.T) {
	h := newWagerHarness()
	escrow := domain.EscrowAccount()
	h.ledger.balances[escrow] = 500
	h.ledger.balances[h.bettor] = 10_000

	_, err := h.svc.PlaceBet(context.Background(), h.bettor, 501)
	if !errors.Is(err, domain.ErrNotEnoughLiquidity) {
		t.Fatalf("place bet err = %v, want ErrNotEnoughLiquidity", err)
	}
	if got := h.ledger.balances[h.bettor]; got != 10_000 {
		t.Errorf("bettor balance = %d, want 10000", got)
	}
	if len(h.ledger.bets) != 0 {
		t.Errorf("queue has %d bets, want 0", len(h.ledger.bets))
	}
}

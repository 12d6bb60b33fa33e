// Package scheduler runs the settlement coordinator: the background loop that
// turns pending wagers into settled ones.  Each scan it takes the node's
// persistent settlement lock, asks the outcome oracle about every queued bet,
// and submits a signed settlement for each answer it gets.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/denizolgu/chancepool/internal/config"
	"github.com/denizolgu/chancepool/internal/domain"
	"github.com/google/uuid"
)

// ──────────────────────────────────────────────────────────────────────────────
// Collaborator interfaces — declared here so the coordinator is testable with
// fakes and does not depend on concrete repo/service types.
// ──────────────────────────────────────────────────────────────────────────────

// PendingLister supplies the queue of unsettled bets.
// Implemented by service.WagerService.
type PendingLister interface {
	PendingBets(ctx context.Context) ([]domain.PendingBet, error)
}

// LockStore is the persistent per-node settlement lock.
// Implemented by repository.LockRepository.
type LockStore interface {
	Acquire(ctx context.Context, nodeID string) error
	Release(ctx context.Context, nodeID string) error
}

// OutcomeFetcher asks the oracle whether a wager won.
// Implemented by service.OracleService.
type OutcomeFetcher interface {
	FetchOutcome(ctx context.Context) (bool, error)
}

// Submitter delivers a signed settlement for one bet.  CanSign reports
// whether this node has a settler identity configured at all; a node that
// cannot sign never takes the lock.
type Submitter interface {
	CanSign() bool
	Submit(ctx context.Context, bettor uuid.UUID, netWager domain.Amount, didWin bool) error
}

// ──────────────────────────────────────────────────────────────────────────────
// Coordinator
// ──────────────────────────────────────────────────────────────────────────────

// Coordinator owns the settlement scan loop.  Call Start(ctx) once from
// main(); cancel the context to shut it down gracefully.
type Coordinator struct {
	pending PendingLister
	locks   LockStore
	oracle  OutcomeFetcher
	submit  Submitter
	cfg     *config.CoordinatorConfig
	logger  *slog.Logger
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(
	pending PendingLister,
	locks LockStore,
	oracle OutcomeFetcher,
	submit Submitter,
	cfg *config.Config,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		pending: pending,
		locks:   locks,
		oracle:  oracle,
		submit:  submit,
		cfg:     &cfg.Coordinator,
		logger:  logger,
	}
}

// Start launches the scan loop.  It returns immediately; the loop runs until
// ctx is cancelled.
func (c *Coordinator) Start(ctx context.Context) {
	go c.scanLoop(ctx)
	c.logger.Info("settlement coordinator started",
		"node", c.cfg.NodeID, "interval", c.cfg.ScanInterval)
}

// scanLoop fires one settlement scan per tick.
func (c *Coordinator) scanLoop(ctx context.Context) {
	defer c.recoverAndLog("scanLoop")

	ticker := time.NewTicker(c.cfg.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("scanLoop: shutting down")
			return
		case <-ticker.C:
			c.RunScan(ctx)
		}
	}
}

// RunScan executes one settlement pass.  Exported so operators (and tests)
// can trigger a scan outside the ticker.
//
// The node lock is taken before any work and released on every path, so a
// slow oracle cannot let two concurrent scans on the same node double-fetch.
// A lock already held is not an error, just a skipped tick.
func (c *Coordinator) RunScan(ctx context.Context) {
	if !c.submit.CanSign() {
		// No settler identity configured; fetching would be wasted work
		// because nothing could be submitted afterwards.
		c.logger.Warn("scan skipped: no signing identity", "node", c.cfg.NodeID)
		return
	}

	if err := c.locks.Acquire(ctx, c.cfg.NodeID); err != nil {
		if errors.Is(err, domain.ErrLockHeld) {
			c.logger.Debug("scan skipped: previous scan still running", "node", c.cfg.NodeID)
			return
		}
		c.logger.Error("scan: lock acquire", "err", err)
		return
	}
	defer func() {
		if err := c.locks.Release(ctx, c.cfg.NodeID); err != nil {
			c.logger.Error("scan: lock release", "err", err)
		}
	}()

	bets, err := c.pending.PendingBets(ctx)
	if err != nil {
		c.logger.Error("scan: list pending", "err", err)
		return
	}
	if len(bets) == 0 {
		return
	}

	now := time.Now().UTC()
	for _, bet := range bets {
		if age := bet.Age(now); age > c.cfg.StaleBetAge {
			c.logger.Warn("bet pending unusually long",
				"bettor", bet.Bettor, "net_wager", bet.NetWager, "age", age.Round(time.Minute))
		}
		c.settleOne(ctx, bet)
	}
}

// settleOne fetches one outcome and submits the settlement.  Failures are
// logged and left for the next scan; the bet stays queued until a settlement
// commits.
func (c *Coordinator) settleOne(ctx context.Context, bet domain.PendingBet) {
	didWin, err := c.oracle.FetchOutcome(ctx)
	if err != nil {
		c.logger.Warn("scan: oracle fetch failed",
			"bettor", bet.Bettor, "net_wager", bet.NetWager, "err", err)
		return
	}

	if err := c.submit.Submit(ctx, bet.Bettor, bet.NetWager, didWin); err != nil {
		// ErrBetNotFound means another node settled it between our list and
		// our submit.  That is the race resolving itself, not a fault.
		if domain.IsNotFound(err) {
			c.logger.Debug("scan: bet already settled elsewhere",
				"bettor", bet.Bettor, "net_wager", bet.NetWager)
			return
		}
		c.logger.Error("scan: settlement submit failed",
			"bettor", bet.Bettor, "net_wager", bet.NetWager, "won", didWin, "err", err)
		return
	}

	c.logger.Info("bet settled",
		"bettor", bet.Bettor, "net_wager", bet.NetWager, "won", didWin)
}

// recoverAndLog is deferred inside the loop goroutine to catch unexpected
// panics, log them, and keep the process alive.
func (c *Coordinator) recoverAndLog(loop string) {
	if r := recover(); r != nil {
		c.logger.Error("PANIC recovered in coordinator loop",
			"loop", loop, "panic", r)
	}
}

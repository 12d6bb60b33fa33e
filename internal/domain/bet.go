package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// ──────────────────────────────────────────────────────────────────────────────
// PendingBet
// ──────────────────────────────────────────────────────────────────────────────

// PendingBet is a wager that has been collateralized and queued but not yet
// resolved.  The (Bettor, NetWager) pair is the full identity of the bet —
// there is no separate id — so two simultaneous equal-sized bets from the
// same bettor cannot both exist in the queue.
type PendingBet struct {
	Bettor   uuid.UUID `json:"bettor"    db:"bettor"`
	NetWager Amount    `json:"net_wager" db:"net_wager"`
	PlacedAt time.Time `json:"placed_at" db:"placed_at"`
}

// key compares two bets by the (bettor, netWager) tuple.
func (b PendingBet) compare(o PendingBet) int {
	if c := CompareIdentity(b.Bettor, o.Bettor); c != 0 {
		return c
	}
	switch {
	case b.NetWager < o.NetWager:
		return -1
	case b.NetWager > o.NetWager:
		return 1
	default:
		return 0
	}
}

// Age returns how long the bet has been pending.
func (b PendingBet) Age(now time.Time) time.Duration {
	return now.Sub(b.PlacedAt)
}

// ──────────────────────────────────────────────────────────────────────────────
// BetQueue
// ──────────────────────────────────────────────────────────────────────────────

// BetQueue is a read-side snapshot of the pending-bet set, sorted by
// (bettor, netWager).  Tuple uniqueness and exactly-once removal are
// enforced where the queue lives, in the persistence layer; this type only
// presents the set in its canonical order.
type BetQueue struct {
	bets []PendingBet
}

// NewBetQueue builds a queue snapshot from the given bets, sorting them.
// The input is assumed duplicate-free.
func NewBetQueue(bets []PendingBet) *BetQueue {
	q := &BetQueue{bets: make([]PendingBet, len(bets))}
	copy(q.bets, bets)
	sort.Slice(q.bets, func(i, j int) bool {
		return q.bets[i].compare(q.bets[j]) < 0
	})
	return q
}

// Len returns the number of pending bets.
func (q *BetQueue) Len() int { return len(q.bets) }

// Bets returns a snapshot of the queue in sorted order.
func (q *BetQueue) Bets() []PendingBet {
	out := make([]PendingBet, len(q.bets))
	copy(out, q.bets)
	return out
}

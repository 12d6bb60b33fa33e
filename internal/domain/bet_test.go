package domain_test

import (
	"testing"
	"time"

	"github.com/denizolgu/chancepool/internal/domain"
	"github.com/google/uuid"
)

func TestBetQueueSortedSnapshot(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")

	q := domain.NewBetQueue([]domain.PendingBet{
		{Bettor: b, NetWager: 50},
		{Bettor: a, NetWager: 300},
		{Bettor: a, NetWager: 100},
	})

	if q.Len() != 3 {
		t.Fatalf("Len = %d, want 3", q.Len())
	}

	bets := q.Bets()
	want := []struct {
		bettor uuid.UUID
		wager  domain.Amount
	}{
		{a, 100}, {a, 300}, {b, 50},
	}
	for i, w := range want {
		if bets[i].Bettor != w.bettor || bets[i].NetWager != w.wager {
			t.Fatalf("bets[%d] = (%s, %d), want (%s, %d)",
				i, bets[i].Bettor, bets[i].NetWager, w.bettor, w.wager)
		}
	}

	// The snapshot is a copy; mutating it leaves the queue intact.
	bets[0].NetWager = 1
	if again := q.Bets(); again[0].NetWager != 100 {
		t.Fatalf("queue mutated through snapshot: %d", again[0].NetWager)
	}
}

func TestPendingBetAge(t *testing.T) {
	placed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	bet := domain.PendingBet{PlacedAt: placed}

	if got := bet.Age(placed.Add(90 * time.Minute)); got != 90*time.Minute {
		t.Fatalf("Age = %v, want 90m", got)
	}
}

// Package domain defines the core ledger entities for the chancepool
// pooled-reserve wager system: fixed-point amounts, the share algebra,
// the settler set, and the pending-bet queue.
package domain

import (
	"bytes"

	"github.com/google/uuid"
)

// escrowSeed is the fixed seed from which the escrow account identity is
// derived.  The pool and the wager ledger share this single reserve account.
const escrowSeed = "chancepool/reserve/v1"

// escrowID is computed once at init; uuid.NewSHA1 is deterministic.
var escrowID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(escrowSeed))

// EscrowAccount returns the deterministic identity of the shared reserve
// account.  All deposited currency, wager stakes, and retained fees live in
// this account's balance.
func EscrowAccount() uuid.UUID {
	return escrowID
}

// CompareIdentity orders two identities by their raw bytes.  The settler set
// and the pending-bet queue rely on this total ordering for binary search.
func CompareIdentity(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}

// ──────────────────────────────────────────────────────────────────────────────
// ExistenceRule
// ──────────────────────────────────────────────────────────────────────────────

// ExistenceRule controls what a currency transfer does to a source account
// whose balance would reach zero.
type ExistenceRule int

const (
	// KeepAlive refuses the transfer if it would empty the source account.
	KeepAlive ExistenceRule = iota
	// AllowDeath lets the source account be removed when its balance hits zero.
	AllowDeath
)

func (r ExistenceRule) String() string {
	if r == KeepAlive {
		return "keep_alive"
	}
	return "allow_death"
}

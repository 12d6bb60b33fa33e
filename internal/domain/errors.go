package domain

import (
	"errors"
)

// ──────────────────────────────────────────────────────────────────────────────
// Sentinel errors — compare with errors.Is()
// ──────────────────────────────────────────────────────────────────────────────

// Pool share errors
var (
	// ErrAmountZero is returned when a share transfer carries a zero amount.
	ErrAmountZero = errors.New("amount must be non-zero")

	// ErrBalanceLow is returned when a share balance is smaller than the
	// amount being transferred or burned.
	ErrBalanceLow = errors.New("share balance is too low")

	// ErrBalanceZero is returned when an operation requires a non-zero share
	// supply (e.g. a withdrawal against an empty pool).
	ErrBalanceZero = errors.New("share supply is zero")
)

// Currency / account errors
var (
	// ErrInsufficientBalance is returned by the currency collaborator when the
	// source account cannot cover a transfer (including the keep-alive rule
	// refusing to empty an account).
	ErrInsufficientBalance = errors.New("insufficient account balance")

	// ErrAccountNotFound is returned when no account matches the given identity.
	ErrAccountNotFound = errors.New("account not found")
)

// Wager errors
var (
	// ErrNotEnoughLiquidity is returned when a wager exceeds the reserve
	// currently held by the escrow account.
	ErrNotEnoughLiquidity = errors.New("wager exceeds available pool liquidity")

	// ErrBetNotFound is returned when settlement targets a (bettor, wager)
	// tuple that is not in the pending queue.  This is the guard that makes
	// settlement exactly-once: a replayed settlement is rejected here.
	ErrBetNotFound = errors.New("no matching pending bet")

	// ErrBetPending is returned when a bettor places a wager whose net amount
	// exactly matches one of their bets already in the queue.  The queue is
	// keyed by the full (bettor, netWager) tuple, so the duplicate cannot be
	// represented and is rejected rather than silently merged.
	ErrBetPending = errors.New("an identical bet is already pending")
)

// Settler registry errors
var (
	// ErrAlreadySettler is returned when adding an identity that is already
	// in the settler set.
	ErrAlreadySettler = errors.New("identity is already a settler")

	// ErrNotSettler is returned when the caller (or removal target) is not in
	// the settler set.
	ErrNotSettler = errors.New("identity is not a settler")

	// ErrSettlerLimit is returned when the settler set is at capacity.
	ErrSettlerLimit = errors.New("settler set is at capacity")

	// ErrLastSettler is returned when removing the only remaining settler,
	// which would leave settlement permanently unauthorized.
	ErrLastSettler = errors.New("cannot remove the last settler")
)

// Conversion errors
var (
	// ErrConversion is returned on fixed-point overflow or when a decimal
	// value cannot be represented in base units.
	ErrConversion = errors.New("amount conversion overflow")
)

// Coordinator errors — recovered locally, never ledger-visible.
var (
	// ErrLockHeld is returned when the node-local settlement lock is already
	// held by a concurrent coordinator invocation.
	ErrLockHeld = errors.New("settlement lock already held")

	// ErrOracleFetch is returned on any oracle timeout, non-200 status, or
	// malformed response.
	ErrOracleFetch = errors.New("oracle fetch failed")

	// ErrNoSigningKey is returned when the coordinator has no settlement
	// signing credential configured.
	ErrNoSigningKey = errors.New("no settlement signing credential available")
)

// Auth errors
var (
	// ErrUnauthorized is returned when a valid token is not present.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTokenInvalid is returned when a token cannot be parsed or its
	// signature does not match.
	ErrTokenInvalid = errors.New("token is invalid")
)

// ──────────────────────────────────────────────────────────────────────────────
// Helper predicates
// ──────────────────────────────────────────────────────────────────────────────

// IsNotFound returns true when err (or any error in its chain) is one of the
// domain "not found" errors.  Use this when translating domain errors to
// HTTP 404 responses.
func IsNotFound(err error) bool {
	notFound := []error{
		ErrAccountNotFound,
		ErrBetNotFound,
	}
	for _, target := range notFound {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsConflict returns true for errors that represent a state conflict
// (duplicate registration, duplicate pending bet, capacity limits).
func IsConflict(err error) bool {
	conflict := []error{
		ErrAlreadySettler,
		ErrSettlerLimit,
		ErrLastSettler,
		ErrBetPending,
	}
	for _, target := range conflict {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsAuthError returns true for authentication/authorisation errors.
func IsAuthError(err error) bool {
	auth := []error{
		ErrUnauthorized,
		ErrTokenInvalid,
		ErrNotSettler,
	}
	for _, target := range auth {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Package ws holds WebSocket message types and the Hub implementation.
// messages.go defines all message structs broadcast to connected clients.
package ws

import (
	"time"

	"github.com/denizolgu/chancepool/internal/domain"
	"github.com/google/uuid"
)

// MsgType identifies the kind of WS message so clients can switch on it.
type MsgType string

const (
	MsgTypePoolUpdate MsgType = "pool_update"
	MsgTypeBetPlaced  MsgType = "bet_placed"
	MsgTypeBetSettled MsgType = "bet_settled"
	MsgTypeError      MsgType = "error"
)

// PoolUpdateMessage carries a fresh pool snapshot after any deposit,
// withdrawal, or settlement changes the reserve.  Amounts are base units.
type PoolUpdateMessage struct {
	Type        MsgType       `json:"type"`
	Reserve     domain.Amount `json:"reserve"`
	TotalShares domain.Amount `json:"total_shares"`
	PendingBets int           `json:"pending_bets"`
	Timestamp   time.Time     `json:"timestamp"`
}

// BetPlacedMessage notifies clients that a new wager joined the queue.
type BetPlacedMessage struct {
	Type      MsgType       `json:"type"`
	Bettor    uuid.UUID     `json:"bettor"`
	NetWager  domain.Amount `json:"net_wager"`
	Timestamp time.Time     `json:"timestamp"`
}

// BetSettledMessage tells clients a wager left the queue and how it ended.
type BetSettledMessage struct {
	Type      MsgType       `json:"type"`
	Bettor    uuid.UUID     `json:"bettor"`
	NetWager  domain.Amount `json:"net_wager"`
	Won       bool          `json:"won"`
	Payout    domain.Amount `json:"payout"` // zero on a loss
	Timestamp time.Time     `json:"timestamp"`
}

// ErrorMessage is sent to a single client when something goes wrong.
type ErrorMessage struct {
	Type    MsgType `json:"type"`
	Code    string  `json:"code"`
	Message string  `json:"message"`
}

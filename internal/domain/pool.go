package domain

// Share algebra for the liquidity pool.
//
// The pool never stores an explicit share price: depositors and withdrawers
// settle at the instantaneous reserve÷supply ratio, so the price per share
// rises automatically as wagering fees accrue to the reserve.  Both formulas
// use floor division; the bounded downward drift this causes always favours
// the remaining holders.

// SharesForDeposit returns the shares minted for depositing `amount` of
// currency when the pool has `totalShares` outstanding against
// `reserveBefore` — the reserve balance read BEFORE the deposit moves funds.
//
// Bootstrap: an empty pool mints 1:1.  A zero deposit legally mints zero
// shares.
func SharesForDeposit(amount, totalShares, reserveBefore Amount) (Amount, error) {
	if totalShares == 0 {
		return amount, nil
	}
	// reserveBefore cannot be zero while shares are outstanding; a zero here
	// means the reserve invariant is broken and the op must fail hard.
	return MulDiv(amount, totalShares, reserveBefore)
}

// PayoutForShares returns the currency paid out for burning `shares` when the
// pool holds `reserve` against `totalShares` outstanding.
//
// The burn debits share units, not payout units, which keeps the ratio for
// the remaining holders unaffected by rounding.
func PayoutForShares(shares, reserve, totalShares Amount) (Amount, error) {
	if totalShares == 0 {
		return 0, ErrBalanceZero
	}
	return MulDiv(shares, reserve, totalShares)
}

// NetWager returns the wager credited to the pending queue after the
// size-proportional fee:
//
//	fee = amount × decimalsConstant × feeMultiplier ÷ totalLocked
//	net = amount − fee   (saturating at zero)
//
// The fee grows with the fraction of pool liquidity the bet represents — a
// slippage penalty retained by the reserve for the share holders.
func NetWager(amount, totalLocked, decimalsConstant, feeMultiplier Amount) (Amount, error) {
	factor, err := decimalsConstant.CheckedMul(feeMultiplier)
	if err != nil {
		return 0, err
	}
	fee, err := MulDivSat(amount, factor, totalLocked)
	if err != nil {
		return 0, err
	}
	return amount.SaturatingSub(fee), nil
}

// PoolSummary is a point-in-time snapshot of the pool, in base units.
// Used by the public query API and websocket broadcasts.
type PoolSummary struct {
	Reserve     Amount `json:"reserve"`
	TotalShares Amount `json:"total_shares"`
	PendingBets int    `json:"pending_bets"`
}

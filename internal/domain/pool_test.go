package domain_test

import (
	"errors"
	"testing"

	"github.com/denizolgu/chancepool/internal/domain"
)

const (
	// One display unit at scale 11.
	unit = domain.Amount(100_000_000_000)

	decimalsConstant = domain.Amount(100_000_000_000)
	feeMultiplier    = domain.Amount(10)
)

func TestSharesForDepositBootstrap(t *testing.T) {
	// Empty pool mints 1:1 regardless of the reserve reading.
	shares, err := domain.SharesForDeposit(42*unit, 0, 0)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if shares != 42*unit {
		t.Fatalf("bootstrap shares = %d, want %d", shares, 42*unit)
	}
}

func TestSharesForDepositProRata(t *testing.T) {
	// 10 units into a pool of 1000 units backing 1000 shares: 10 shares.
	shares, err := domain.SharesForDeposit(10*unit, 1000*unit, 1000*unit)
	if err != nil {
		t.Fatalf("pro rata: %v", err)
	}
	if shares != 10*unit {
		t.Fatalf("pro rata shares = %d, want %d", shares, 10*unit)
	}

	// When fees have grown the reserve past the supply, the same deposit
	// mints proportionally fewer shares.
	shares, err = domain.SharesForDeposit(10*unit, 1000*unit, 2000*unit)
	if err != nil {
		t.Fatalf("appreciated: %v", err)
	}
	if shares != 5*unit {
		t.Fatalf("appreciated shares = %d, want %d", shares, 5*unit)
	}
}

func TestSharesForDepositFloors(t *testing.T) {
	// 1 base unit into a reserve of 3 backing 2 shares: 1×2÷3 floors to 0.
	shares, err := domain.SharesForDeposit(1, 2, 3)
	if err != nil {
		t.Fatalf("floor: %v", err)
	}
	if shares != 0 {
		t.Fatalf("floor shares = %d, want 0", shares)
	}
}

func TestPayoutForShares(t *testing.T) {
	// Burning half the supply pays out half the reserve.
	payout, err := domain.PayoutForShares(500*unit, 2000*unit, 1000*unit)
	if err != nil {
		t.Fatalf("payout: %v", err)
	}
	if payout != 1000*unit {
		t.Fatalf("payout = %d, want %d", payout, 1000*unit)
	}
}

func TestPayoutForSharesEmptySupply(t *testing.T) {
	if _, err := domain.PayoutForShares(unit, unit, 0); !errors.Is(err, domain.ErrBalanceZero) {
		t.Fatalf("empty supply: got %v, want ErrBalanceZero", err)
	}
}

func TestDepositWithdrawRoundTrip(t *testing.T) {
	// A depositor who immediately withdraws gets back at most what they put
	// in; floor division may shave base units but never adds them.
	reserve := domain.Amount(777_777_777_777)
	supply := domain.Amount(333_333_333_333)
	deposit := domain.Amount(123_456_789)

	shares, err := domain.SharesForDeposit(deposit, supply, reserve)
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	payout, err := domain.PayoutForShares(shares, reserve+deposit, supply+shares)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if payout > deposit {
		t.Fatalf("round trip paid out %d for a deposit of %d", payout, deposit)
	}
}

func TestNetWager(t *testing.T) {
	// 10 units against a reserve of 1000 units: fee is 0.1 units.
	net, err := domain.NetWager(10*unit, 1000*unit, decimalsConstant, feeMultiplier)
	if err != nil {
		t.Fatalf("NetWager: %v", err)
	}
	if net != 990_000_000_000 {
		t.Fatalf("net = %d, want 990000000000", net)
	}
}

func TestNetWagerFeeGrowsWithPoolShare(t *testing.T) {
	// The same wager against a smaller reserve pays a bigger fee.
	small, err := domain.NetWager(10*unit, 100*unit, decimalsConstant, feeMultiplier)
	if err != nil {
		t.Fatalf("small pool: %v", err)
	}
	large, err := domain.NetWager(10*unit, 10_000*unit, decimalsConstant, feeMultiplier)
	if err != nil {
		t.Fatalf("large pool: %v", err)
	}
	if small >= large {
		t.Fatalf("fee ordering wrong: net %d (small pool) >= net %d (large pool)", small, large)
	}
}

func TestNetWagerSaturatesToZero(t *testing.T) {
	// A tiny pool makes the computed fee exceed the wager; the net wager
	// clamps at zero instead of wrapping.
	net, err := domain.NetWager(10*unit, 1, decimalsConstant, feeMultiplier)
	if err != nil {
		t.Fatalf("saturating: %v", err)
	}
	if net != 0 {
		t.Fatalf("net = %d, want 0", net)
	}
}

func TestNetWagerZeroLockedFails(t *testing.T) {
	if _, err := domain.NetWager(unit, 0, decimalsConstant, feeMultiplier); !errors.Is(err, domain.ErrConversion) {
		t.Fatalf("zero locked: got %v, want ErrConversion", err)
	}
}

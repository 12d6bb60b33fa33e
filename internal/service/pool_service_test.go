package service_test

import (
	"context"
	"testing"

	"github.com/denizolgu/chancepool/internal/config"
	"github.com/denizolgu/chancepool/internal/service"
	"github.com/google/uuid"
)

// Zero-amount deposits and withdrawals are no-ops that mint and pay nothing.
// They must succeed without touching the database; the services here carry
// nil handles, so any database round trip would panic.
func TestZeroDepositIsANoOp(t *testing.T) {
	cfg := &config.Config{Ledger: config.LedgerConfig{AmountScale: 11, FeeMultiplier: 10, MaxSettlers: 10}}
	svc := service.NewPoolService(nil, nil, nil, nil, cfg)

	shares, err := svc.Deposit(context.Background(), uuid.New(), 0)
	if err != nil {
		t.Fatalf("zero deposit: %v", err)
	}
	if !shares.IsZero() {
		t.Errorf("zero deposit minted %d shares, want 0", shares)
	}
}

func TestZeroWithdrawIsANoOp(t *testing.T) {
	cfg := &config.Config{Ledger: config.LedgerConfig{AmountScale: 11, FeeMultiplier: 10, MaxSettlers: 10}}
	svc := service.NewPoolService(nil, nil, nil, nil, cfg)

	payout, err := svc.Withdraw(context.Background(), uuid.New(), 0)
	if err != nil {
		t.Fatalf("zero withdraw: %v", err)
	}
	if !payout.IsZero() {
		t.Errorf("zero withdraw paid %d, want 0", payout)
	}
}

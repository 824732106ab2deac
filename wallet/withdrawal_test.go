package wallet

import (
	"context"
	"errors"
	"testing"
)

func TestDeposit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tx, err := f.engine.Deposit(ctx, "carrier-1", 50000)
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if tx.Type != TxPayment || tx.Status != TxCompleted || tx.Amount != 50000 {
		t.Fatalf("wrong ledger entry: %+v", tx)
	}
	if w := f.wallet(t, "carrier-1"); w.AvailableBalance != 50000 {
		t.Fatalf("balance = %d, want 50000", w.AvailableBalance)
	}

	if _, err := f.engine.Deposit(ctx, "carrier-1", 0); err == nil {
		t.Fatal("expected error for non-positive deposit")
	}
}

func TestRequestWithdrawal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.deposit(t, "carrier-1", 50000)

	if _, err := f.engine.RequestWithdrawal(ctx, "carrier-1", 999); !errors.Is(err, ErrBelowMinimumWithdrawal) {
		t.Fatalf("expected ErrBelowMinimumWithdrawal, got %v", err)
	}
	if _, err := f.engine.RequestWithdrawal(ctx, "carrier-1", 60000); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	// Rejections leave the wallet untouched.
	if w := f.wallet(t, "carrier-1"); w.AvailableBalance != 50000 || w.PendingBalance != 0 {
		t.Fatalf("balances moved on rejected requests: %+v", w)
	}

	tx, err := f.engine.RequestWithdrawal(ctx, "carrier-1", 30000)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if tx.Type != TxPayout || tx.Status != TxPending {
		t.Fatalf("wrong ledger entry: %+v", tx)
	}
	if w := f.wallet(t, "carrier-1"); w.AvailableBalance != 20000 || w.PendingBalance != 30000 {
		t.Fatalf("balances = %+v", w)
	}
}

func TestCompleteWithdrawal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.deposit(t, "carrier-1", 50000)

	tx, err := f.engine.RequestWithdrawal(ctx, "carrier-1", 30000)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if err := f.engine.CompleteWithdrawal(ctx, tx.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	w := f.wallet(t, "carrier-1")
	if w.PendingBalance != 0 || w.TotalWithdrawn != 30000 || w.AvailableBalance != 20000 {
		t.Fatalf("balances = %+v", w)
	}
	settled, err := f.store.Transaction(ctx, tx.ID)
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
	if settled.Status != TxCompleted {
		t.Fatalf("status = %s, want completed", settled.Status)
	}

	// A second callback for the same payout is rejected.
	if err := f.engine.CompleteWithdrawal(ctx, tx.ID); err == nil {
		t.Fatal("expected error for already-settled payout")
	}
	if err := f.engine.CompleteWithdrawal(ctx, "ghost"); !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}
}

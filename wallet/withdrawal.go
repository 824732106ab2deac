package wallet

import (
	"context"
	"fmt"
)

// Deposit credits a user's available balance and records a payment entry.
func (e *Engine) Deposit(ctx context.Context, userID string, amount int64) (Transaction, error) {
	if amount <= 0 {
		return Transaction{}, fmt.Errorf("wallet: deposit amount must be positive")
	}

	unlock := e.lockUsers(userID)
	defer unlock()

	w, err := e.store.Wallet(ctx, userID)
	if err != nil {
		return Transaction{}, err
	}
	w.AvailableBalance += amount
	if err := e.store.SaveWallet(ctx, w); err != nil {
		return Transaction{}, err
	}

	tx := Transaction{
		ID:        e.idGen(),
		UserID:    userID,
		Type:      TxPayment,
		Amount:    amount,
		Status:    TxCompleted,
		CreatedAt: e.now(),
	}
	if err := e.store.AppendTransaction(ctx, tx); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

// RequestWithdrawal synchronously moves funds from available to pending and
// records a pending payout. Requests below the minimum or above the
// available balance are rejected with no side effects.
func (e *Engine) RequestWithdrawal(ctx context.Context, userID string, amount int64) (Transaction, error) {
	if amount < e.cfg.MinWithdrawal {
		return Transaction{}, ErrBelowMinimumWithdrawal
	}

	unlock := e.lockUsers(userID)
	defer unlock()

	w, err := e.store.Wallet(ctx, userID)
	if err != nil {
		return Transaction{}, err
	}
	if amount > w.AvailableBalance {
		return Transaction{}, ErrInsufficientFunds
	}

	w.AvailableBalance -= amount
	w.PendingBalance += amount
	if err := e.store.SaveWallet(ctx, w); err != nil {
		return Transaction{}, err
	}

	tx := Transaction{
		ID:        e.idGen(),
		UserID:    userID,
		Type:      TxPayout,
		Amount:    amount,
		Status:    TxPending,
		CreatedAt: e.now(),
	}
	if err := e.store.AppendTransaction(ctx, tx); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

// CompleteWithdrawal is the asynchronous settlement step: the mobile-money
// callback confirms payout, funds move from pending to withdrawn, and the
// ledger entry completes.
func (e *Engine) CompleteWithdrawal(ctx context.Context, transactionID string) error {
	tx, err := e.store.Transaction(ctx, transactionID)
	if err != nil {
		return err
	}
	if tx.Type != TxPayout || tx.Status != TxPending {
		return fmt.Errorf("wallet: transaction %s is not a pending payout", transactionID)
	}

	unlock := e.lockUsers(tx.UserID)
	defer unlock()

	w, err := e.store.Wallet(ctx, tx.UserID)
	if err != nil {
		return err
	}
	w.PendingBalance -= tx.Amount
	w.TotalWithdrawn += tx.Amount
	if err := e.store.SaveWallet(ctx, w); err != nil {
		return err
	}
	return e.store.UpdateTransactionStatus(ctx, transactionID, TxCompleted)
}

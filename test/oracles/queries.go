package oracles

import (
	"fmt"

	"mzigo/wallet"
)

// Oracle is an invariant over the whole wallet store. Check returns a
// description of the first violating row, or "" when the invariant holds.
type Oracle struct {
	Name  string
	Check func(store *wallet.MemoryStore) string
}

// All returns the consistency oracles for a mobile-money-only run. Cash
// escrows track a liability without wallet movements and would need a looser
// conservation check.
func All() []Oracle {
	return []Oracle{
		{
			Name:  "O1_nonnegative_balances",
			Check: nonNegativeBalances,
		},
		{
			Name:  "O2_money_conservation",
			Check: moneyConservation,
		},
		{
			Name:  "O3_escrow_liability_matches_holds",
			Check: escrowLiability,
		},
		{
			Name:  "O4_escrow_resolution_one_directional",
			Check: escrowResolution,
		},
		{
			Name:  "O5_platform_holds_only_commission",
			Check: platformCommission,
		},
	}
}

func nonNegativeBalances(store *wallet.MemoryStore) string {
	for _, w := range store.AllWallets() {
		if w.AvailableBalance < 0 || w.PendingBalance < 0 || w.EscrowBalance < 0 {
			return fmt.Sprintf("user=%s available=%d pending=%d escrow=%d",
				w.UserID, w.AvailableBalance, w.PendingBalance, w.EscrowBalance)
		}
	}
	return ""
}

// moneyConservation: every kwacha deposited is still in some wallet column
// or has left through a completed withdrawal.
func moneyConservation(store *wallet.MemoryStore) string {
	var deposited, held, withdrawn int64
	for _, tx := range store.AllTransactions() {
		if tx.Type == wallet.TxPayment && tx.Status == wallet.TxCompleted {
			deposited += tx.Amount
		}
	}
	for _, w := range store.AllWallets() {
		held += w.AvailableBalance + w.PendingBalance + w.EscrowBalance
		withdrawn += w.TotalWithdrawn
	}
	if deposited != held+withdrawn {
		return fmt.Sprintf("deposited=%d held=%d withdrawn=%d drift=%d",
			deposited, held, withdrawn, deposited-held-withdrawn)
	}
	return ""
}

// escrowLiability: each shipper's escrow balance equals the sum of their
// unresolved holds.
func escrowLiability(store *wallet.MemoryStore) string {
	expected := make(map[string]int64)
	for _, hold := range store.AllEscrows() {
		if hold.Status == wallet.EscrowHeld || hold.Status == wallet.EscrowDisputed {
			expected[hold.ShipperID] += hold.GrossAmount
		}
	}
	for _, w := range store.AllWallets() {
		if w.EscrowBalance != expected[w.UserID] {
			return fmt.Sprintf("user=%s escrow=%d expected=%d", w.UserID, w.EscrowBalance, expected[w.UserID])
		}
	}
	return ""
}

// escrowResolution: resolved holds carry a timestamp, unresolved ones do not,
// and no hold sits in an unknown status.
func escrowResolution(store *wallet.MemoryStore) string {
	for _, hold := range store.AllEscrows() {
		switch hold.Status {
		case wallet.EscrowHeld, wallet.EscrowDisputed:
			if hold.ResolvedAt != nil {
				return fmt.Sprintf("shipment=%s status=%s has resolved_at", hold.ShipmentID, hold.Status)
			}
		case wallet.EscrowReleased, wallet.EscrowRefunded:
			if hold.ResolvedAt == nil {
				return fmt.Sprintf("shipment=%s status=%s missing resolved_at", hold.ShipmentID, hold.Status)
			}
		default:
			return fmt.Sprintf("shipment=%s unknown status %q", hold.ShipmentID, hold.Status)
		}
	}
	return ""
}

// platformCommission: the platform account accumulates exactly the completed
// commission entries; it never receives principal.
func platformCommission(store *wallet.MemoryStore) string {
	var commissions int64
	for _, tx := range store.AllTransactions() {
		if tx.Type == wallet.TxCommission && tx.Status == wallet.TxCompleted {
			commissions += tx.Amount
		}
	}
	for _, w := range store.AllWallets() {
		if w.UserID != wallet.PlatformAccountID {
			continue
		}
		if w.AvailableBalance != commissions {
			return fmt.Sprintf("platform available=%d commission ledger=%d", w.AvailableBalance, commissions)
		}
	}
	return ""
}

// Run executes all oracles and returns the first failure, or empty name if
// all pass.
func Run(store *wallet.MemoryStore) (string, string) {
	for _, o := range All() {
		if detail := o.Check(store); detail != "" {
			return o.Name, detail
		}
	}
	return "", ""
}

package wallet

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore is the reference in-memory implementation of Store.
type MemoryStore struct {
	mu           sync.RWMutex
	wallets      map[string]Wallet
	escrows      map[string]EscrowHold // keyed by shipment id
	transactions map[string]Transaction
	ledgerOrder  []string
	now          func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		wallets:      make(map[string]Wallet),
		escrows:      make(map[string]EscrowHold),
		transactions: make(map[string]Transaction),
		now:          time.Now,
	}
}

// WithClock overrides the store clock; used by tests.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

// Wallet returns the user's wallet, creating an empty one on first access.
func (s *MemoryStore) Wallet(_ context.Context, userID string) (Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[userID]
	if !ok {
		now := s.now()
		w = Wallet{UserID: userID, CreatedAt: now, UpdatedAt: now}
		s.wallets[userID] = w
	}
	return cloneWallet(w), nil
}

// SaveWallet overwrites the stored wallet.
func (s *MemoryStore) SaveWallet(_ context.Context, w Wallet) error {
	s.mu.Lock()
	w.UpdatedAt = s.now()
	s.wallets[w.UserID] = cloneWallet(w)
	s.mu.Unlock()
	return nil
}

// EscrowByShipment returns the escrow for a shipment.
func (s *MemoryStore) EscrowByShipment(_ context.Context, shipmentID string) (EscrowHold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hold, ok := s.escrows[shipmentID]
	if !ok {
		return EscrowHold{}, ErrNoEscrow
	}
	return hold, nil
}

// SaveEscrow upserts the escrow record.
func (s *MemoryStore) SaveEscrow(_ context.Context, hold EscrowHold) error {
	s.mu.Lock()
	s.escrows[hold.ShipmentID] = hold
	s.mu.Unlock()
	return nil
}

// AppendTransaction adds a ledger entry. The ledger is append-only.
func (s *MemoryStore) AppendTransaction(_ context.Context, tx Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.transactions[tx.ID]; exists {
		return fmt.Errorf("wallet: duplicate transaction id %s", tx.ID)
	}
	s.transactions[tx.ID] = tx
	s.ledgerOrder = append(s.ledgerOrder, tx.ID)
	return nil
}

// Transaction returns a ledger entry by id.
func (s *MemoryStore) Transaction(_ context.Context, id string) (Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.transactions[id]
	if !ok {
		return Transaction{}, ErrTransactionNotFound
	}
	return tx, nil
}

// UpdateTransactionStatus flips the settlement status of an entry; the only
// mutation the ledger permits.
func (s *MemoryStore) UpdateTransactionStatus(_ context.Context, id string, status TxStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[id]
	if !ok {
		return ErrTransactionNotFound
	}
	tx.Status = status
	s.transactions[id] = tx
	return nil
}

// ListTransactions returns the user's ledger entries in append order.
func (s *MemoryStore) ListTransactions(_ context.Context, userID string) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Transaction
	for _, id := range s.ledgerOrder {
		if tx := s.transactions[id]; tx.UserID == userID {
			out = append(out, tx)
		}
	}
	return out, nil
}

// AllEscrows returns every escrow record; used by consistency oracles.
func (s *MemoryStore) AllEscrows() []EscrowHold {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]EscrowHold, 0, len(s.escrows))
	for _, hold := range s.escrows {
		out = append(out, hold)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ShipmentID < out[j].ShipmentID })
	return out
}

// AllWallets returns every wallet; used by consistency oracles.
func (s *MemoryStore) AllWallets() []Wallet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Wallet, 0, len(s.wallets))
	for _, w := range s.wallets {
		out = append(out, cloneWallet(w))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// AllTransactions returns the full ledger in append order; used by
// consistency oracles.
func (s *MemoryStore) AllTransactions() []Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Transaction, 0, len(s.ledgerOrder))
	for _, id := range s.ledgerOrder {
		out = append(out, s.transactions[id])
	}
	return out
}

// Snapshot deep-copies the named wallets, recording absent wallets as
// zero-value rows so restore puts them back exactly. A non-empty shipmentID
// also captures the shipment's escrow row, or its absence.
func (s *MemoryStore) Snapshot(_ context.Context, shipmentID string, userIDs ...string) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{Wallets: make(map[string]Wallet, len(userIDs)), ShipmentID: shipmentID}
	for _, id := range userIDs {
		w, ok := s.wallets[id]
		if !ok {
			w = Wallet{UserID: id}
		}
		snap.Wallets[id] = cloneWallet(w)
	}
	if shipmentID != "" {
		if hold, ok := s.escrows[shipmentID]; ok {
			h := hold
			snap.Escrow = &h
		}
	}
	return snap, nil
}

// Restore writes the snapshot back verbatim. An escrow row written since a
// nil-escrow snapshot is removed.
func (s *MemoryStore) Restore(_ context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, w := range snap.Wallets {
		s.wallets[id] = cloneWallet(w)
	}
	if snap.ShipmentID != "" {
		if snap.Escrow != nil {
			s.escrows[snap.ShipmentID] = *snap.Escrow
		} else {
			delete(s.escrows, snap.ShipmentID)
		}
	}
	return nil
}

func cloneWallet(w Wallet) Wallet {
	out := w
	out.PaymentMethods = append([]string(nil), w.PaymentMethods...)
	return out
}

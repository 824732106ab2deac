package wallet

import (
	"context"
	"errors"
)

var (
	// ErrNoEscrow signals no escrow record exists for the shipment.
	ErrNoEscrow = errors.New("wallet: no escrow for shipment")
	// ErrEscrowExists signals an escrow was already created for the shipment.
	ErrEscrowExists = errors.New("wallet: escrow already exists for shipment")
	// ErrTransactionNotFound signals an unknown ledger entry id.
	ErrTransactionNotFound = errors.New("wallet: transaction not found")
)

// Snapshot captures wallet rows, plus the shipment's escrow record when the
// operation touches one, for restore-on-failure. Restoring the same snapshot
// twice is harmless.
type Snapshot struct {
	Wallets map[string]Wallet

	// ShipmentID is set when an escrow is in play. Escrow nil means no
	// record existed at snapshot time; restore then removes any row the
	// failed operation wrote.
	ShipmentID string
	Escrow     *EscrowHold
}

// Store is the storage port for wallets, escrows and the ledger. The memory
// store is the reference implementation; PGStore backs it with Postgres.
// Snapshot/Restore exist because wallets and escrows are not automatically
// transactional: the engine snapshots before mutating and restores on any
// failure, so a half-applied hold or release leaves no orphan escrow behind.
type Store interface {
	// Wallet returns the user's wallet, creating an empty one on first access.
	Wallet(ctx context.Context, userID string) (Wallet, error)
	SaveWallet(ctx context.Context, w Wallet) error

	EscrowByShipment(ctx context.Context, shipmentID string) (EscrowHold, error)
	SaveEscrow(ctx context.Context, hold EscrowHold) error

	AppendTransaction(ctx context.Context, tx Transaction) error
	Transaction(ctx context.Context, id string) (Transaction, error)
	UpdateTransactionStatus(ctx context.Context, id string, status TxStatus) error
	ListTransactions(ctx context.Context, userID string) ([]Transaction, error)

	// Snapshot records the named wallets and, when shipmentID is non-empty,
	// the shipment's escrow row. Restore writes them back verbatim.
	Snapshot(ctx context.Context, shipmentID string, userIDs ...string) (Snapshot, error)
	Restore(ctx context.Context, snap Snapshot) error
}

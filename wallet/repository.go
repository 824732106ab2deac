package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mzigo/shipment"
)

// PGStore is the pgxpool-backed implementation of Store. Snapshot reads the
// affected wallet rows and Restore writes them back; under the engine's
// per-user serialization that is equivalent to the memory store's deep copy.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore wires a pgxpool-backed store implementation.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Wallet returns the user's wallet, creating an empty row on first access.
func (s *PGStore) Wallet(ctx context.Context, userID string) (Wallet, error) {
	const query = `
		INSERT INTO wallets (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING user_id, available_balance, pending_balance, escrow_balance,
		          total_earned, total_withdrawn, payment_methods, created_at, updated_at
	`
	var (
		w          Wallet
		methodsRaw []byte
	)
	if err := s.pool.QueryRow(ctx, query, userID).Scan(
		&w.UserID, &w.AvailableBalance, &w.PendingBalance, &w.EscrowBalance,
		&w.TotalEarned, &w.TotalWithdrawn, &methodsRaw, &w.CreatedAt, &w.UpdatedAt,
	); err != nil {
		return Wallet{}, fmt.Errorf("wallet: fetch wallet: %w", err)
	}
	if len(methodsRaw) > 0 {
		if err := json.Unmarshal(methodsRaw, &w.PaymentMethods); err != nil {
			return Wallet{}, fmt.Errorf("wallet: unmarshal payment methods: %w", err)
		}
	}
	return w, nil
}

// SaveWallet overwrites the stored wallet row.
func (s *PGStore) SaveWallet(ctx context.Context, w Wallet) error {
	methods, err := json.Marshal(w.PaymentMethods)
	if err != nil {
		return fmt.Errorf("wallet: marshal payment methods: %w", err)
	}
	const query = `
		INSERT INTO wallets (user_id, available_balance, pending_balance, escrow_balance,
		                     total_earned, total_withdrawn, payment_methods)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (user_id) DO UPDATE SET
			available_balance = EXCLUDED.available_balance,
			pending_balance = EXCLUDED.pending_balance,
			escrow_balance = EXCLUDED.escrow_balance,
			total_earned = EXCLUDED.total_earned,
			total_withdrawn = EXCLUDED.total_withdrawn,
			payment_methods = EXCLUDED.payment_methods,
			updated_at = NOW()
	`
	if _, err := s.pool.Exec(ctx, query,
		w.UserID, w.AvailableBalance, w.PendingBalance, w.EscrowBalance,
		w.TotalEarned, w.TotalWithdrawn, methods,
	); err != nil {
		return fmt.Errorf("wallet: save wallet: %w", err)
	}
	return nil
}

// EscrowByShipment returns the escrow for a shipment.
func (s *PGStore) EscrowByShipment(ctx context.Context, shipmentID string) (EscrowHold, error) {
	const query = `
		SELECT id, shipment_id, shipper_id, transporter_id,
		       gross_amount, platform_fee, net_amount, payment_method,
		       status, release_condition, created_at, resolved_at
		FROM escrow_holds WHERE shipment_id = $1
	`
	var (
		hold           EscrowHold
		method, status string
	)
	err := s.pool.QueryRow(ctx, query, shipmentID).Scan(
		&hold.ID, &hold.ShipmentID, &hold.ShipperID, &hold.TransporterID,
		&hold.GrossAmount, &hold.PlatformFee, &hold.NetAmount, &method,
		&status, &hold.ReleaseCondition, &hold.CreatedAt, &hold.ResolvedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return EscrowHold{}, ErrNoEscrow
		}
		return EscrowHold{}, fmt.Errorf("wallet: fetch escrow: %w", err)
	}
	hold.PaymentMethod = shipment.PaymentMethod(method)
	hold.Status = EscrowStatus(status)
	return hold, nil
}

// SaveEscrow upserts the escrow record.
func (s *PGStore) SaveEscrow(ctx context.Context, hold EscrowHold) error {
	const query = `
		INSERT INTO escrow_holds (id, shipment_id, shipper_id, transporter_id,
		                          gross_amount, platform_fee, net_amount, payment_method,
		                          status, release_condition, created_at, resolved_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (shipment_id) DO UPDATE SET
			status = EXCLUDED.status,
			release_condition = EXCLUDED.release_condition,
			resolved_at = EXCLUDED.resolved_at
	`
	if _, err := s.pool.Exec(ctx, query,
		hold.ID, hold.ShipmentID, hold.ShipperID, hold.TransporterID,
		hold.GrossAmount, hold.PlatformFee, hold.NetAmount, string(hold.PaymentMethod),
		string(hold.Status), hold.ReleaseCondition, hold.CreatedAt, hold.ResolvedAt,
	); err != nil {
		return fmt.Errorf("wallet: save escrow: %w", err)
	}
	return nil
}

// AppendTransaction adds a ledger entry.
func (s *PGStore) AppendTransaction(ctx context.Context, tx Transaction) error {
	metadata, err := json.Marshal(tx.Metadata)
	if err != nil {
		return fmt.Errorf("wallet: marshal tx metadata: %w", err)
	}
	const query = `
		INSERT INTO wallet_transactions (id, user_id, tx_type, amount, status, metadata, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`
	if _, err := s.pool.Exec(ctx, query,
		tx.ID, tx.UserID, string(tx.Type), tx.Amount, string(tx.Status), metadata, tx.CreatedAt,
	); err != nil {
		return fmt.Errorf("wallet: append transaction: %w", err)
	}
	return nil
}

// Transaction returns a ledger entry by id.
func (s *PGStore) Transaction(ctx context.Context, id string) (Transaction, error) {
	const query = `
		SELECT id, user_id, tx_type, amount, status, metadata, created_at
		FROM wallet_transactions WHERE id = $1
	`
	tx, err := scanTransaction(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrTransactionNotFound
		}
		return Transaction{}, fmt.Errorf("wallet: fetch transaction: %w", err)
	}
	return tx, nil
}

// UpdateTransactionStatus flips the settlement status of an entry.
func (s *PGStore) UpdateTransactionStatus(ctx context.Context, id string, status TxStatus) error {
	tag, err := s.pool.Exec(ctx, `UPDATE wallet_transactions SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return fmt.Errorf("wallet: update transaction status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

// ListTransactions returns the user's ledger entries in append order.
func (s *PGStore) ListTransactions(ctx context.Context, userID string) ([]Transaction, error) {
	const query = `
		SELECT id, user_id, tx_type, amount, status, metadata, created_at
		FROM wallet_transactions WHERE user_id = $1 ORDER BY created_at ASC, id ASC
	`
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("wallet: list transactions: %w", err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("wallet: scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("wallet: iterate transactions: %w", err)
	}
	return out, nil
}

// Snapshot reads the named wallet rows, and the shipment's escrow row when
// shipmentID is set, for potential restore.
func (s *PGStore) Snapshot(ctx context.Context, shipmentID string, userIDs ...string) (Snapshot, error) {
	snap := Snapshot{Wallets: make(map[string]Wallet, len(userIDs)), ShipmentID: shipmentID}
	for _, id := range userIDs {
		w, err := s.Wallet(ctx, id)
		if err != nil {
			return Snapshot{}, err
		}
		snap.Wallets[id] = w
	}
	if shipmentID != "" {
		hold, err := s.EscrowByShipment(ctx, shipmentID)
		switch {
		case err == nil:
			snap.Escrow = &hold
		case errors.Is(err, ErrNoEscrow):
		default:
			return Snapshot{}, err
		}
	}
	return snap, nil
}

// Restore writes the snapshot rows back verbatim, deleting any escrow row
// written since a nil-escrow snapshot.
func (s *PGStore) Restore(ctx context.Context, snap Snapshot) error {
	for _, w := range snap.Wallets {
		if err := s.SaveWallet(ctx, w); err != nil {
			return err
		}
	}
	if snap.ShipmentID != "" {
		if snap.Escrow != nil {
			if err := s.SaveEscrow(ctx, *snap.Escrow); err != nil {
				return err
			}
		} else if _, err := s.pool.Exec(ctx, `DELETE FROM escrow_holds WHERE shipment_id = $1`, snap.ShipmentID); err != nil {
			return fmt.Errorf("wallet: delete orphan escrow: %w", err)
		}
	}
	return nil
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var (
		tx             Transaction
		txType, status string
		metadataRaw    []byte
	)
	if err := row.Scan(&tx.ID, &tx.UserID, &txType, &tx.Amount, &status, &metadataRaw, &tx.CreatedAt); err != nil {
		return Transaction{}, err
	}
	tx.Type = TxType(txType)
	tx.Status = TxStatus(status)
	if len(metadataRaw) > 0 {
		if err := json.Unmarshal(metadataRaw, &tx.Metadata); err != nil {
			return Transaction{}, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return tx, nil
}

// Package wallet holds and releases shipment funds through an escrow
// workflow. Every balance mutation runs inside the enforcement engine and is
// made revertible by snapshotting wallet and escrow state before mutating.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"mzigo/config"
	"mzigo/invariant"
	"mzigo/rules"
	"mzigo/shipment"
)

var (
	// ErrNoHeldEscrow signals the shipment has no escrow in held status.
	ErrNoHeldEscrow = errors.New("wallet: no held escrow for shipment")
	// ErrEscrowNotDisputed signals a dispute operation on a non-disputed escrow.
	ErrEscrowNotDisputed = errors.New("wallet: escrow is not disputed")
	// ErrInsufficientFunds signals a withdrawal above the available balance.
	ErrInsufficientFunds = errors.New("wallet: insufficient available balance")
	// ErrBelowMinimumWithdrawal signals a withdrawal under the platform floor.
	ErrBelowMinimumWithdrawal = errors.New("wallet: amount below minimum withdrawal")
)

// ShipmentReader gives the release gate access to shipment status.
type ShipmentReader interface {
	Get(ctx context.Context, id string) (shipment.Shipment, error)
}

// Engine moves money between wallets under the enforcement engine.
type Engine struct {
	store     Store
	shipments ShipmentReader
	enforcer  *invariant.Engine
	cfg       config.Config
	idGen     func() string
	now       func() time.Time

	// locks serializes access per wallet. Snapshot-then-restore rollback is
	// only correct when no concurrent writer interleaves with the window.
	locks sync.Map
}

// NewEngine builds a wallet engine.
func NewEngine(store Store, shipments ShipmentReader, enforcer *invariant.Engine, cfg config.Config) *Engine {
	return &Engine{
		store:     store,
		shipments: shipments,
		enforcer:  enforcer,
		cfg:       cfg,
		idGen:     func() string { return uuid.NewString() },
		now:       time.Now,
	}
}

// WithIDGenerator overrides id generation; used by tests.
func (e *Engine) WithIDGenerator(gen func() string) *Engine {
	e.idGen = gen
	return e
}

// WithClock overrides the engine clock.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// GetWallet returns the user's wallet, creating it lazily.
func (e *Engine) GetWallet(ctx context.Context, userID string) (Wallet, error) {
	return e.store.Wallet(ctx, userID)
}

// ListTransactions returns the user's ledger entries in append order.
func (e *Engine) ListTransactions(ctx context.Context, userID string) ([]Transaction, error) {
	return e.store.ListTransactions(ctx, userID)
}

// lockUsers acquires per-user locks in sorted order to avoid deadlock when
// two operations touch overlapping wallet sets.
func (e *Engine) lockUsers(userIDs ...string) func() {
	ids := append([]string(nil), userIDs...)
	sort.Strings(ids)
	var held []*sync.Mutex
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		mu, _ := e.locks.LoadOrStore(id, &sync.Mutex{})
		m := mu.(*sync.Mutex)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

// CreateEscrowParams enumerates the inputs for a new escrow hold.
type CreateEscrowParams struct {
	ShipmentID    string
	ShipperID     string
	TransporterID string
	GrossAmount   int64
	VehicleType   shipment.VehicleType
	PaymentMethod shipment.PaymentMethod
	CashVerified  bool
}

// escrowCreateContext satisfies the solvency and minimum-price rules.
type escrowCreateContext struct {
	rules.SolvencyContext
	rules.HeavyPriceContext
}

// CreateEscrowHold sets funds aside for a shipment. Exactly one escrow may
// ever exist per shipment. Digital payments move the gross from available
// into escrow; verified cash only tracks the escrow liability, since the
// money never entered the wallet.
func (e *Engine) CreateEscrowHold(ctx context.Context, params CreateEscrowParams) (EscrowHold, error) {
	if params.ShipmentID == "" || params.ShipperID == "" || params.TransporterID == "" {
		return EscrowHold{}, fmt.Errorf("wallet: escrow hold missing identity fields")
	}

	unlock := e.lockUsers(params.ShipperID)
	defer unlock()

	if _, err := e.store.EscrowByShipment(ctx, params.ShipmentID); err == nil {
		return EscrowHold{}, ErrEscrowExists
	} else if !errors.Is(err, ErrNoEscrow) {
		return EscrowHold{}, err
	}

	shipper, err := e.store.Wallet(ctx, params.ShipperID)
	if err != nil {
		return EscrowHold{}, err
	}

	payload := escrowCreateContext{
		SolvencyContext: rules.SolvencyContext{
			AvailableBalance: shipper.AvailableBalance,
			GrossAmount:      params.GrossAmount,
			PaymentMethod:    params.PaymentMethod,
			CashVerified:     params.CashVerified,
		},
		HeavyPriceContext: rules.HeavyPriceContext{
			PriceMWK: params.GrossAmount,
			Vehicle:  params.VehicleType,
		},
	}

	snap, err := e.store.Snapshot(ctx, params.ShipmentID, params.ShipperID)
	if err != nil {
		return EscrowHold{}, err
	}

	var hold EscrowHold
	err = e.enforcer.Execute(ctx, []string{rules.EscrowSolvency, rules.MinPriceHeavyVehicle}, payload, func(ctx context.Context) error {
		if err := e.applyHold(ctx, params, &hold); err != nil {
			if restoreErr := e.store.Restore(ctx, snap); restoreErr != nil {
				return fmt.Errorf("wallet: restore after failed hold: %w (original: %v)", restoreErr, err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return EscrowHold{}, err
	}
	return hold, nil
}

func (e *Engine) applyHold(ctx context.Context, params CreateEscrowParams, out *EscrowHold) error {
	now := e.now()
	fee := platformFee(params.GrossAmount, e.cfg.CommissionRate)
	hold := EscrowHold{
		ID:               "escrow-" + params.ShipmentID,
		ShipmentID:       params.ShipmentID,
		ShipperID:        params.ShipperID,
		TransporterID:    params.TransporterID,
		GrossAmount:      params.GrossAmount,
		PlatformFee:      fee,
		NetAmount:        params.GrossAmount - fee,
		PaymentMethod:    params.PaymentMethod,
		Status:           EscrowHeld,
		ReleaseCondition: "delivery_confirmed",
		CreatedAt:        now,
	}
	if err := e.store.SaveEscrow(ctx, hold); err != nil {
		return err
	}

	shipper, err := e.store.Wallet(ctx, params.ShipperID)
	if err != nil {
		return err
	}
	if params.PaymentMethod != shipment.PaymentCash {
		shipper.AvailableBalance -= params.GrossAmount
	}
	shipper.EscrowBalance += params.GrossAmount
	if err := e.store.SaveWallet(ctx, shipper); err != nil {
		return err
	}

	if err := e.store.AppendTransaction(ctx, Transaction{
		ID:     e.idGen(),
		UserID: params.ShipperID,
		Type:   TxEscrowHold,
		Amount: params.GrossAmount,
		Status: TxCompleted,
		Metadata: TxMetadata{
			ShipmentID: params.ShipmentID,
			Gross:      params.GrossAmount,
			Net:        hold.NetAmount,
			Commission: fee,
		},
		CreatedAt: now,
	}); err != nil {
		return err
	}
	*out = hold
	return nil
}

// escrowReleaseContext satisfies the price binding and release gating rules.
type escrowReleaseContext struct {
	rules.PriceBindContext
	rules.ReleaseContext
}

// ReleaseEscrow moves a held escrow to released: the gross leaves the
// shipper's escrow balance, the transporter is credited the net, and the
// platform takes its commission. ActualPrice of zero keeps the agreed price;
// any other deviation demands a documented exception.
func (e *Engine) ReleaseEscrow(ctx context.Context, shipmentID string, actualPrice int64, exceptionReason string) (Transaction, error) {
	hold, err := e.heldEscrow(ctx, shipmentID)
	if err != nil {
		return Transaction{}, err
	}

	sh, err := e.shipments.Get(ctx, shipmentID)
	if err != nil {
		return Transaction{}, err
	}

	unlock := e.lockUsers(hold.ShipperID, hold.TransporterID, PlatformAccountID)
	defer unlock()

	payload := escrowReleaseContext{
		PriceBindContext: rules.PriceBindContext{
			AgreedPrice:     hold.GrossAmount,
			ProposedPrice:   actualPrice,
			ExceptionReason: exceptionReason,
		},
		ReleaseContext: rules.ReleaseContext{
			ShipmentStatus:   sh.Status,
			ShipperConfirmed: sh.ShipperConfirmed,
		},
	}

	snap, err := e.store.Snapshot(ctx, hold.ShipmentID, hold.ShipperID, hold.TransporterID, PlatformAccountID)
	if err != nil {
		return Transaction{}, err
	}

	var payout Transaction
	err = e.enforcer.Execute(ctx, []string{rules.PriceBinding, rules.EscrowRelease}, payload, func(ctx context.Context) error {
		if err := e.applyRelease(ctx, hold, exceptionReason, &payout); err != nil {
			if restoreErr := e.store.Restore(ctx, snap); restoreErr != nil {
				return fmt.Errorf("wallet: restore after failed release: %w (original: %v)", restoreErr, err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return Transaction{}, err
	}
	return payout, nil
}

func (e *Engine) applyRelease(ctx context.Context, hold EscrowHold, reason string, out *Transaction) error {
	now := e.now()

	shipper, err := e.store.Wallet(ctx, hold.ShipperID)
	if err != nil {
		return err
	}
	shipper.EscrowBalance -= hold.GrossAmount
	if err := e.store.SaveWallet(ctx, shipper); err != nil {
		return err
	}

	carrier, err := e.store.Wallet(ctx, hold.TransporterID)
	if err != nil {
		return err
	}
	carrier.AvailableBalance += hold.NetAmount
	carrier.TotalEarned += hold.NetAmount
	if err := e.store.SaveWallet(ctx, carrier); err != nil {
		return err
	}

	platform, err := e.store.Wallet(ctx, PlatformAccountID)
	if err != nil {
		return err
	}
	platform.AvailableBalance += hold.PlatformFee
	if err := e.store.SaveWallet(ctx, platform); err != nil {
		return err
	}

	hold.Status = EscrowReleased
	hold.ResolvedAt = &now
	if err := e.store.SaveEscrow(ctx, hold); err != nil {
		return err
	}

	payout := Transaction{
		ID:     e.idGen(),
		UserID: hold.TransporterID,
		Type:   TxEscrowRelease,
		Amount: hold.NetAmount,
		Status: TxCompleted,
		Metadata: TxMetadata{
			ShipmentID: hold.ShipmentID,
			Gross:      hold.GrossAmount,
			Net:        hold.NetAmount,
			Commission: hold.PlatformFee,
			Reason:     reason,
		},
		CreatedAt: now,
	}
	if err := e.store.AppendTransaction(ctx, payout); err != nil {
		return err
	}
	if err := e.store.AppendTransaction(ctx, Transaction{
		ID:     e.idGen(),
		UserID: PlatformAccountID,
		Type:   TxCommission,
		Amount: hold.PlatformFee,
		Status: TxCompleted,
		Metadata: TxMetadata{
			ShipmentID: hold.ShipmentID,
			Gross:      hold.GrossAmount,
			Commission: hold.PlatformFee,
		},
		CreatedAt: now,
	}); err != nil {
		return err
	}
	*out = payout
	return nil
}

// RefundEscrow returns a held escrow to the shipper: digital funds move back
// to the available balance, cash holds simply clear the liability.
func (e *Engine) RefundEscrow(ctx context.Context, shipmentID, reason string) (Transaction, error) {
	hold, err := e.heldEscrow(ctx, shipmentID)
	if err != nil {
		return Transaction{}, err
	}
	return e.applyRefund(ctx, hold, reason)
}

func (e *Engine) applyRefund(ctx context.Context, hold EscrowHold, reason string) (Transaction, error) {
	unlock := e.lockUsers(hold.ShipperID)
	defer unlock()

	snap, err := e.store.Snapshot(ctx, hold.ShipmentID, hold.ShipperID)
	if err != nil {
		return Transaction{}, err
	}

	now := e.now()
	shipper, err := e.store.Wallet(ctx, hold.ShipperID)
	if err != nil {
		return Transaction{}, err
	}
	shipper.EscrowBalance -= hold.GrossAmount
	if hold.PaymentMethod != shipment.PaymentCash {
		shipper.AvailableBalance += hold.GrossAmount
	}
	if err := e.store.SaveWallet(ctx, shipper); err != nil {
		return Transaction{}, err
	}

	hold.Status = EscrowRefunded
	hold.ResolvedAt = &now
	if err := e.store.SaveEscrow(ctx, hold); err != nil {
		if restoreErr := e.store.Restore(ctx, snap); restoreErr != nil {
			return Transaction{}, fmt.Errorf("wallet: restore after failed refund: %w (original: %v)", restoreErr, err)
		}
		return Transaction{}, err
	}

	refund := Transaction{
		ID:     e.idGen(),
		UserID: hold.ShipperID,
		Type:   TxRefund,
		Amount: hold.GrossAmount,
		Status: TxCompleted,
		Metadata: TxMetadata{
			ShipmentID: hold.ShipmentID,
			Gross:      hold.GrossAmount,
			Reason:     reason,
		},
		CreatedAt: now,
	}
	if err := e.store.AppendTransaction(ctx, refund); err != nil {
		if restoreErr := e.store.Restore(ctx, snap); restoreErr != nil {
			return Transaction{}, fmt.Errorf("wallet: restore after failed refund: %w (original: %v)", restoreErr, err)
		}
		return Transaction{}, err
	}
	return refund, nil
}

func (e *Engine) heldEscrow(ctx context.Context, shipmentID string) (EscrowHold, error) {
	hold, err := e.store.EscrowByShipment(ctx, shipmentID)
	if err != nil {
		if errors.Is(err, ErrNoEscrow) {
			return EscrowHold{}, ErrNoHeldEscrow
		}
		return EscrowHold{}, err
	}
	if hold.Status != EscrowHeld {
		return EscrowHold{}, ErrNoHeldEscrow
	}
	return hold, nil
}

func platformFee(gross int64, rate float64) int64 {
	return int64(float64(gross)*rate + 0.5)
}

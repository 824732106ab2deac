package wallet

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"mzigo/config"
	"mzigo/invariant"
	"mzigo/rules"
	"mzigo/shipment"
)

// faultStore wraps the memory store with switchable write failures so the
// engine's restore paths can be exercised.
type faultStore struct {
	*MemoryStore
	failAppend bool
}

func (s *faultStore) AppendTransaction(ctx context.Context, tx Transaction) error {
	if s.failAppend {
		return errors.New("wallet: ledger unavailable")
	}
	return s.MemoryStore.AppendTransaction(ctx, tx)
}

type faultFixture struct {
	engine *Engine
	store  *faultStore
	ships  *shipment.MemoryStore
}

func newFaultFixture(t *testing.T) *faultFixture {
	t.Helper()
	cfg := config.Default()
	registry, err := rules.Register(cfg)
	if err != nil {
		t.Fatalf("register rules: %v", err)
	}
	enforcer := invariant.NewEngine(registry)
	ships := shipment.NewMemoryStore()
	store := &faultStore{MemoryStore: NewMemoryStore()}

	seq := 0
	engine := NewEngine(store, ships, enforcer, cfg).WithIDGenerator(func() string {
		seq++
		return fmt.Sprintf("tx-%d", seq)
	})
	return &faultFixture{engine: engine, store: store, ships: ships}
}

// A ledger failure mid-hold must leave neither an escrow row nor a balance
// move behind, so the shipper can simply retry.
func TestCreateEscrowHold_StoreFailureLeavesNoOrphan(t *testing.T) {
	ctx := context.Background()
	f := newFaultFixture(t)
	if _, err := f.engine.Deposit(ctx, "shipper-1", 100000); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	f.store.failAppend = true
	if _, err := f.engine.CreateEscrowHold(ctx, holdParams("ship-1")); err == nil {
		t.Fatal("expected hold to fail on ledger write")
	}

	if _, err := f.store.EscrowByShipment(ctx, "ship-1"); !errors.Is(err, ErrNoEscrow) {
		t.Fatalf("expected no escrow after rollback, got %v", err)
	}
	shipper, err := f.store.Wallet(ctx, "shipper-1")
	if err != nil {
		t.Fatalf("wallet: %v", err)
	}
	if shipper.AvailableBalance != 100000 || shipper.EscrowBalance != 0 {
		t.Fatalf("balances not restored: available=%d escrow=%d", shipper.AvailableBalance, shipper.EscrowBalance)
	}

	// The retry must not trip the one-escrow-per-shipment guard.
	f.store.failAppend = false
	hold, err := f.engine.CreateEscrowHold(ctx, holdParams("ship-1"))
	if err != nil {
		t.Fatalf("retry hold: %v", err)
	}
	if hold.Status != EscrowHeld {
		t.Fatalf("retry hold status = %s", hold.Status)
	}
	shipper, _ = f.store.Wallet(ctx, "shipper-1")
	if shipper.AvailableBalance != 20000 || shipper.EscrowBalance != 80000 {
		t.Fatalf("retry balances wrong: available=%d escrow=%d", shipper.AvailableBalance, shipper.EscrowBalance)
	}
}

// A ledger failure mid-release must roll the escrow back to held along with
// every wallet it touched; the liability and the balances stay in step.
func TestReleaseEscrow_StoreFailureKeepsEscrowHeld(t *testing.T) {
	ctx := context.Background()
	f := newFaultFixture(t)
	if _, err := f.engine.Deposit(ctx, "shipper-1", 100000); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := f.engine.CreateEscrowHold(ctx, holdParams("ship-1")); err != nil {
		t.Fatalf("hold: %v", err)
	}
	err := f.ships.Save(ctx, shipment.Shipment{
		ID:               "ship-1",
		ShipperID:        "shipper-1",
		TransporterID:    "carrier-1",
		Status:           shipment.StatusDelivered,
		ShipperConfirmed: true,
	})
	if err != nil {
		t.Fatalf("seed shipment: %v", err)
	}

	f.store.failAppend = true
	if _, err := f.engine.ReleaseEscrow(ctx, "ship-1", 0, ""); err == nil {
		t.Fatal("expected release to fail on ledger write")
	}

	hold, err := f.store.EscrowByShipment(ctx, "ship-1")
	if err != nil {
		t.Fatalf("escrow after rollback: %v", err)
	}
	if hold.Status != EscrowHeld {
		t.Fatalf("escrow status = %s, want held", hold.Status)
	}
	shipper, _ := f.store.Wallet(ctx, "shipper-1")
	carrier, _ := f.store.Wallet(ctx, "carrier-1")
	platform, _ := f.store.Wallet(ctx, PlatformAccountID)
	if shipper.EscrowBalance != 80000 || carrier.AvailableBalance != 0 || platform.AvailableBalance != 0 {
		t.Fatalf("balances not restored: shipper escrow=%d carrier=%d platform=%d",
			shipper.EscrowBalance, carrier.AvailableBalance, platform.AvailableBalance)
	}

	f.store.failAppend = false
	payout, err := f.engine.ReleaseEscrow(ctx, "ship-1", 0, "")
	if err != nil {
		t.Fatalf("retry release: %v", err)
	}
	if payout.Amount != 76000 {
		t.Fatalf("payout = %d, want 76000", payout.Amount)
	}
	carrier, _ = f.store.Wallet(ctx, "carrier-1")
	if carrier.AvailableBalance != 76000 {
		t.Fatalf("carrier balance = %d, want 76000", carrier.AvailableBalance)
	}
}

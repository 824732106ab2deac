package wallet

import (
	"context"
	"errors"
	"testing"

	"mzigo/shipment"
)

func TestOpenDispute(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.deposit(t, "shipper-1", 100000)
	if _, err := f.engine.CreateEscrowHold(ctx, holdParams("ship-1")); err != nil {
		t.Fatalf("create hold: %v", err)
	}

	hold, err := f.engine.OpenDispute(ctx, "ship-1", "cargo arrived damaged")
	if err != nil {
		t.Fatalf("open dispute: %v", err)
	}
	if hold.Status != EscrowDisputed || hold.ReleaseCondition != "dispute_resolution" {
		t.Fatalf("wrong disputed hold: %+v", hold)
	}

	// No money moved.
	shipper := f.wallet(t, "shipper-1")
	if shipper.EscrowBalance != 80000 {
		t.Fatalf("escrow balance = %d, want 80000", shipper.EscrowBalance)
	}

	// A disputed escrow is no longer releasable through the normal path.
	f.seedShipment(t, "ship-1", shipment.StatusDelivered, true)
	if _, err := f.engine.ReleaseEscrow(ctx, "ship-1", 0, ""); !errors.Is(err, ErrNoHeldEscrow) {
		t.Fatalf("expected ErrNoHeldEscrow on disputed hold, got %v", err)
	}

	// And cannot be disputed twice.
	if _, err := f.engine.OpenDispute(ctx, "ship-1", "again"); !errors.Is(err, ErrNoHeldEscrow) {
		t.Fatalf("expected ErrNoHeldEscrow, got %v", err)
	}
}

func TestResolveDispute_Release(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.deposit(t, "shipper-1", 100000)
	// The shipment is deliberately left undelivered: resolution is an
	// arbiter action and does not run the delivery-confirmation gate.
	f.seedShipment(t, "ship-1", shipment.StatusInTransit, false)
	if _, err := f.engine.CreateEscrowHold(ctx, holdParams("ship-1")); err != nil {
		t.Fatalf("create hold: %v", err)
	}
	if _, err := f.engine.OpenDispute(ctx, "ship-1", "delivery contested"); err != nil {
		t.Fatalf("open dispute: %v", err)
	}

	payout, err := f.engine.ResolveDispute(ctx, "ship-1", OutcomeRelease, "POD photo verified by support")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if payout.Amount != 76000 || payout.UserID != "carrier-1" {
		t.Fatalf("wrong payout: %+v", payout)
	}
	if payout.Metadata.Reason != "POD photo verified by support" {
		t.Fatalf("resolution reason not recorded: %+v", payout.Metadata)
	}

	carrier := f.wallet(t, "carrier-1")
	if carrier.AvailableBalance != 76000 {
		t.Fatalf("carrier balance = %d, want 76000", carrier.AvailableBalance)
	}
	hold, _ := f.store.EscrowByShipment(ctx, "ship-1")
	if hold.Status != EscrowReleased {
		t.Fatalf("hold status = %s, want released", hold.Status)
	}
}

func TestResolveDispute_Refund(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.deposit(t, "shipper-1", 100000)
	if _, err := f.engine.CreateEscrowHold(ctx, holdParams("ship-1")); err != nil {
		t.Fatalf("create hold: %v", err)
	}
	if _, err := f.engine.OpenDispute(ctx, "ship-1", "cargo never arrived"); err != nil {
		t.Fatalf("open dispute: %v", err)
	}

	refund, err := f.engine.ResolveDispute(ctx, "ship-1", OutcomeRefund, "transporter abandoned trip")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if refund.Type != TxRefund || refund.Amount != 80000 {
		t.Fatalf("wrong refund: %+v", refund)
	}

	shipper := f.wallet(t, "shipper-1")
	if shipper.AvailableBalance != 100000 || shipper.EscrowBalance != 0 {
		t.Fatalf("shipper balances = %+v", shipper)
	}
}

func TestResolveDispute_Guards(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.deposit(t, "shipper-1", 100000)
	if _, err := f.engine.CreateEscrowHold(ctx, holdParams("ship-1")); err != nil {
		t.Fatalf("create hold: %v", err)
	}

	// Held but not disputed.
	if _, err := f.engine.ResolveDispute(ctx, "ship-1", OutcomeRefund, "r"); !errors.Is(err, ErrEscrowNotDisputed) {
		t.Fatalf("expected ErrEscrowNotDisputed, got %v", err)
	}

	if _, err := f.engine.OpenDispute(ctx, "ship-1", "contested"); err != nil {
		t.Fatalf("open dispute: %v", err)
	}
	if _, err := f.engine.ResolveDispute(ctx, "ship-1", DisputeOutcome("split"), "r"); err == nil {
		t.Fatal("expected error for unknown outcome")
	}
}

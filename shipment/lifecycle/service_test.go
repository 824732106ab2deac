package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"mzigo/config"
	"mzigo/invariant"
	"mzigo/rules"
	"mzigo/shipment"
)

func newTestService(t *testing.T) (*Service, *shipment.MemoryStore) {
	t.Helper()
	registry, err := rules.Register(config.Default())
	if err != nil {
		t.Fatalf("register rules: %v", err)
	}
	store := shipment.NewMemoryStore()
	svc := NewService(store, invariant.NewEngine(registry)).
		WithIDGenerator(func() string { return "ship-1" }).
		WithClock(func() time.Time { return time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC) })
	return svc, store
}

func validParams() PostParams {
	return PostParams{
		ShipperID:           "shipper-1",
		Origin:              shipment.Location{City: "Lilongwe"},
		Destination:         shipment.Location{City: "Blantyre"},
		CargoType:           shipment.CargoGeneral,
		WeightKg:            5000,
		RequiredVehicleType: shipment.VehicleMediumTruck,
		PriceMWK:            150000,
		PaymentMethod:       shipment.PaymentMobileMoney,
	}
}

func TestPost(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	sh, err := svc.Post(ctx, validParams())
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if sh.ID != "ship-1" || sh.Status != shipment.StatusPosted {
		t.Fatalf("wrong shipment: %+v", sh)
	}
	if sh.CreatedAt.IsZero() || !sh.CreatedAt.Equal(sh.UpdatedAt) {
		t.Fatalf("timestamps not set: %+v", sh)
	}
	if _, err := store.Get(ctx, sh.ID); err != nil {
		t.Fatalf("shipment not persisted: %v", err)
	}
}

func TestPost_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	mutations := []struct {
		name   string
		mutate func(*PostParams)
	}{
		{"missing shipper", func(p *PostParams) { p.ShipperID = "" }},
		{"zero weight", func(p *PostParams) { p.WeightKg = 0 }},
		{"zero price", func(p *PostParams) { p.PriceMWK = 0 }},
	}
	for _, tc := range mutations {
		t.Run(tc.name, func(t *testing.T) {
			p := validParams()
			tc.mutate(&p)
			if _, err := svc.Post(ctx, p); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestPost_IncompatibleCargo(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	p := validParams()
	p.CargoType = shipment.CargoFuel
	p.RequiredVehicleType = shipment.VehiclePickup

	_, err := svc.Post(ctx, p)
	if invariant.ViolatedRule(err) != rules.CargoCompatibility {
		t.Fatalf("expected cargo compatibility violation, got %v", err)
	}
	if _, err := store.Get(ctx, "ship-1"); !errors.Is(err, shipment.ErrNotFound) {
		t.Fatal("blocked post must not persist")
	}
}

func TestPost_OverweightForClass(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	p := validParams()
	p.RequiredVehicleType = shipment.VehiclePickup
	p.WeightKg = 5000

	if _, err := svc.Post(ctx, p); invariant.ViolatedRule(err) != rules.ShipmentWeight {
		t.Fatalf("expected weight violation, got %v", err)
	}
}

func TestTransition_HappyPath(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	sh, err := svc.Post(ctx, validParams())
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	for _, next := range []shipment.Status{
		shipment.StatusMatched,
		shipment.StatusAccepted,
		shipment.StatusInTransit,
		shipment.StatusDelivered,
	} {
		sh, err = svc.Transition(ctx, sh.ID, next)
		if err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
		if sh.Status != next {
			t.Fatalf("status = %s, want %s", sh.Status, next)
		}
	}

	sh, err = svc.ConfirmDelivery(ctx, sh.ID)
	if err != nil {
		t.Fatalf("confirm delivery: %v", err)
	}
	if !sh.ShipperConfirmed {
		t.Fatal("confirmation not recorded")
	}

	sh, err = svc.Transition(ctx, sh.ID, shipment.StatusCompleted)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if sh.Status != shipment.StatusCompleted {
		t.Fatalf("status = %s, want completed", sh.Status)
	}
}

func TestAccept_RecordsTransporter(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	sh, err := svc.Post(ctx, validParams())
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if _, err := svc.Transition(ctx, sh.ID, shipment.StatusMatched); err != nil {
		t.Fatalf("match: %v", err)
	}

	sh, err = svc.Accept(ctx, sh.ID, "trans-7")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if sh.Status != shipment.StatusAccepted || sh.TransporterID != "trans-7" {
		t.Fatalf("got status=%s transporter=%q, want accepted/trans-7", sh.Status, sh.TransporterID)
	}

	stored, err := store.Get(ctx, sh.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.TransporterID != "trans-7" {
		t.Fatalf("stored transporter = %q, want trans-7", stored.TransporterID)
	}

	// Accepting out of order or without a transporter is rejected.
	if _, err := svc.Accept(ctx, sh.ID, "trans-8"); err == nil {
		t.Fatal("expected transition violation on double accept")
	}
	if _, err := svc.Accept(ctx, sh.ID, ""); err == nil {
		t.Fatal("expected error for missing transporter id")
	}
}

func TestTransition_Illegal(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	sh, err := svc.Post(ctx, validParams())
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	if _, err := svc.Transition(ctx, sh.ID, shipment.StatusDelivered); invariant.ViolatedRule(err) != rules.ShipmentTransition {
		t.Fatalf("expected transition violation, got %v", err)
	}

	got, _ := store.Get(ctx, sh.ID)
	if got.Status != shipment.StatusPosted {
		t.Fatalf("status moved to %s on a blocked transition", got.Status)
	}
}

func TestTransition_Unknown(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.Transition(context.Background(), "ghost", shipment.StatusMatched); !errors.Is(err, shipment.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHighValueReviewGate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	p := validParams()
	p.PriceMWK = 600000
	sh, err := svc.Post(ctx, p)
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	if _, err := svc.Transition(ctx, sh.ID, shipment.StatusMatched); invariant.ViolatedRule(err) != rules.HighValueReview {
		t.Fatalf("expected review violation, got %v", err)
	}

	if _, err := svc.MarkReviewed(ctx, sh.ID); err != nil {
		t.Fatalf("mark reviewed: %v", err)
	}
	if _, err := svc.Transition(ctx, sh.ID, shipment.StatusMatched); err != nil {
		t.Fatalf("reviewed shipment should match: %v", err)
	}
}

func TestConfirmDelivery_RequiresDelivered(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	sh, err := svc.Post(ctx, validParams())
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if _, err := svc.ConfirmDelivery(ctx, sh.ID); err == nil {
		t.Fatal("expected error confirming an undelivered shipment")
	}
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	sh, err := svc.Post(ctx, validParams())
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	sh, err = svc.Cancel(ctx, sh.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if sh.Status != shipment.StatusCancelled {
		t.Fatalf("status = %s", sh.Status)
	}

	// Terminal states reject further movement.
	if _, err := svc.Transition(ctx, sh.ID, shipment.StatusPosted); invariant.ViolatedRule(err) != rules.ShipmentTransition {
		t.Fatalf("expected transition violation, got %v", err)
	}
}

package matching

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestOfferStore_GetUnknown(t *testing.T) {
	s := NewOfferStore()
	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, ErrOfferNotFound) {
		t.Fatalf("expected ErrOfferNotFound, got %v", err)
	}
}

func TestOfferStore_LazyExpiry(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	current := base
	s := NewOfferStore().WithClock(func() time.Time { return current })

	offer := LoadOffer{
		ID:         "o1",
		ShipmentID: "ship-1",
		Status:     OfferPending,
		CreatedAt:  base,
		ExpiresAt:  base.Add(time.Minute),
	}
	if err := s.Save(ctx, offer); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Get(ctx, "o1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != OfferPending {
		t.Fatalf("status = %s before TTL", got.Status)
	}

	current = base.Add(2 * time.Minute)
	got, err = s.Get(ctx, "o1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != OfferExpired {
		t.Fatalf("status = %s after TTL, want expired", got.Status)
	}

	// Closed offers never flip, even past their TTL.
	accepted := offer
	accepted.ID = "o2"
	accepted.Status = OfferAccepted
	if err := s.Save(ctx, accepted); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err = s.Get(ctx, "o2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != OfferAccepted {
		t.Fatalf("accepted offer flipped to %s", got.Status)
	}
}

func TestOfferStore_ListByShipment(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	s := NewOfferStore().WithClock(func() time.Time { return now })

	for _, o := range []LoadOffer{
		{ID: "low", ShipmentID: "ship-1", MatchScore: 40, Status: OfferPending, ExpiresAt: now.Add(time.Minute)},
		{ID: "high", ShipmentID: "ship-1", MatchScore: 90, Status: OfferPending, ExpiresAt: now.Add(time.Minute)},
		{ID: "other", ShipmentID: "ship-2", MatchScore: 99, Status: OfferPending, ExpiresAt: now.Add(time.Minute)},
	} {
		if err := s.Save(ctx, o); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	offers, err := s.ListByShipment(ctx, "ship-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(offers) != 2 || offers[0].ID != "high" || offers[1].ID != "low" {
		t.Fatalf("wrong listing: %+v", offers)
	}
}

func TestOfferStore_ListOpenForTransporter(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	s := NewOfferStore().WithClock(func() time.Time { return now })

	for _, o := range []LoadOffer{
		{ID: "open", TransporterID: "c1", MatchScore: 70, Status: OfferPending, ExpiresAt: now.Add(time.Minute)},
		{ID: "stale", TransporterID: "c1", MatchScore: 95, Status: OfferPending, ExpiresAt: now.Add(-time.Minute)},
		{ID: "declined", TransporterID: "c1", MatchScore: 80, Status: OfferDeclined, ExpiresAt: now.Add(time.Minute)},
		{ID: "foreign", TransporterID: "c2", MatchScore: 60, Status: OfferPending, ExpiresAt: now.Add(time.Minute)},
	} {
		if err := s.Save(ctx, o); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	offers, err := s.ListOpenForTransporter(ctx, "c1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(offers) != 1 || offers[0].ID != "open" {
		t.Fatalf("wrong listing: %+v", offers)
	}

	// The stale offer was flipped on the way through.
	stale, err := s.Get(ctx, "stale")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stale.Status != OfferExpired {
		t.Fatalf("stale offer status = %s, want expired", stale.Status)
	}
}

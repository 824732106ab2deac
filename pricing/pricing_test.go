package pricing

import (
	"math"
	"testing"
	"time"

	"mzigo/config"
	"mzigo/shipment"
)

func fixedClock(month time.Month) func() time.Time {
	return func() time.Time {
		return time.Date(2025, month, 15, 12, 0, 0, 0, time.UTC)
	}
}

func testEngine(month time.Month) *Engine {
	return NewEngine(config.Default()).WithClock(fixedClock(month))
}

var (
	lilongwe = shipment.Location{City: "Lilongwe"}
	blantyre = shipment.Location{City: "Blantyre"}
)

func TestQuote_KnownCorridor(t *testing.T) {
	e := testEngine(time.January)

	b := e.Quote(lilongwe, blantyre, 5000, shipment.VehicleMediumTruck, shipment.CargoGeneral, false)

	if b.DistanceKm != 311 {
		t.Fatalf("expected tabulated 311km, got %v", b.DistanceKm)
	}
	if b.DistanceCharge != 311*800 {
		t.Fatalf("distance charge = %v, want %v", b.DistanceCharge, 311*800)
	}
	if b.WeightSurcharge != 40000 {
		t.Fatalf("weight surcharge = %v, want 40000", b.WeightSurcharge)
	}
	if b.SeasonalMultiplier != 1.0 || b.SeasonalAdjustment != 0 {
		t.Fatalf("general cargo must have no seasonal adjustment: %+v", b)
	}
	if b.DemandMultiplier != 1.10 {
		t.Fatalf("demand multiplier = %v, want 1.10", b.DemandMultiplier)
	}
	if b.GrossPrice != 317680 {
		t.Fatalf("gross = %d, want 317680", b.GrossPrice)
	}
	if b.PlatformFee != 15884 {
		t.Fatalf("fee = %d, want 15884", b.PlatformFee)
	}
	if b.NetEarnings != 301796 {
		t.Fatalf("net = %d, want 301796", b.NetEarnings)
	}
}

// Every breakdown must reconcile: components sum to the subtotal, and the
// three integer figures are consistent with each other.
func TestQuote_BreakdownReconciles(t *testing.T) {
	e := testEngine(time.May)

	cases := []struct {
		name     string
		origin   shipment.Location
		dest     shipment.Location
		weight   float64
		vehicle  shipment.VehicleType
		cargo    shipment.CargoType
		backhaul bool
	}{
		{"maize in season", lilongwe, blantyre, 8000, shipment.VehicleLargeTruck, shipment.CargoMaize, false},
		{"fuel tanker", blantyre, lilongwe, 12000, shipment.VehicleTanker, shipment.CargoFuel, false},
		{"backhaul general", blantyre, lilongwe, 3000, shipment.VehicleCanter, shipment.CargoGeneral, true},
		{"unknown pair", shipment.Location{City: "Likoma"}, shipment.Location{City: "Chitipa"}, 500, shipment.VehiclePickup, shipment.CargoHousehold, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := e.Quote(tc.origin, tc.dest, tc.weight, tc.vehicle, tc.cargo, tc.backhaul)

			base := b.DistanceCharge + b.WeightSurcharge
			wantSubtotal := base + b.SeasonalAdjustment + b.DemandAdjustment + b.CargoSurcharge
			if math.Abs(b.Subtotal-wantSubtotal) > 0.01 {
				t.Fatalf("subtotal %v does not reconcile with components %v", b.Subtotal, wantSubtotal)
			}
			if !tc.backhaul && b.BackhaulDiscount != 0 {
				t.Fatalf("unexpected backhaul discount %v", b.BackhaulDiscount)
			}
			if b.GrossPrice < config.Default().MinShipmentPrice {
				t.Fatalf("gross %d below floor", b.GrossPrice)
			}
			if b.NetEarnings != b.GrossPrice-b.PlatformFee {
				t.Fatalf("net %d != gross %d - fee %d", b.NetEarnings, b.GrossPrice, b.PlatformFee)
			}
		})
	}
}

func TestQuote_SeasonalWindows(t *testing.T) {
	tests := []struct {
		cargo shipment.CargoType
		month time.Month
		want  float64
	}{
		{shipment.CargoMaize, time.May, 1.25},
		{shipment.CargoMaize, time.July, 1.0},
		{shipment.CargoTobacco, time.March, 1.35},
		{shipment.CargoTobacco, time.August, 1.35},
		{shipment.CargoTobacco, time.September, 1.0},
		{shipment.CargoFertilizer, time.November, 1.20},
		{shipment.CargoFertilizer, time.January, 1.0},
		{shipment.CargoGeneral, time.May, 1.0},
	}
	for _, tc := range tests {
		e := testEngine(tc.month)
		b := e.Quote(lilongwe, blantyre, 2000, shipment.VehicleMediumTruck, tc.cargo, false)
		if b.SeasonalMultiplier != tc.want {
			t.Errorf("%s in %s: multiplier %v, want %v", tc.cargo, tc.month, b.SeasonalMultiplier, tc.want)
		}
	}
}

func TestQuote_DemandIsAsymmetric(t *testing.T) {
	e := testEngine(time.January)

	inbound := e.Quote(blantyre, lilongwe, 2000, shipment.VehicleMediumTruck, shipment.CargoGeneral, false)
	outbound := e.Quote(lilongwe, blantyre, 2000, shipment.VehicleMediumTruck, shipment.CargoGeneral, false)

	if inbound.DemandMultiplier != 1.20 || outbound.DemandMultiplier != 1.10 {
		t.Fatalf("expected 1.20 inbound / 1.10 outbound, got %v / %v",
			inbound.DemandMultiplier, outbound.DemandMultiplier)
	}
	if inbound.GrossPrice <= outbound.GrossPrice {
		t.Fatalf("inbound leg must price above outbound: %d vs %d", inbound.GrossPrice, outbound.GrossPrice)
	}
}

func TestQuote_BackhaulDiscount(t *testing.T) {
	e := testEngine(time.January)

	full := e.Quote(lilongwe, blantyre, 5000, shipment.VehicleMediumTruck, shipment.CargoGeneral, false)
	back := e.Quote(lilongwe, blantyre, 5000, shipment.VehicleMediumTruck, shipment.CargoGeneral, true)

	wantGross := int64(math.Round(full.Subtotal * (1 - config.Default().BackhaulDiscount)))
	if back.GrossPrice != wantGross {
		t.Fatalf("backhaul gross = %d, want %d", back.GrossPrice, wantGross)
	}
}

func TestQuote_FloorClampsSmallJobs(t *testing.T) {
	e := testEngine(time.January)

	// 86km on a motorcycle is far below the platform floor.
	b := e.Quote(lilongwe, shipment.Location{City: "Dedza"}, 50, shipment.VehicleMotorcycle, shipment.CargoGeneral, false)
	if b.GrossPrice != config.Default().MinShipmentPrice {
		t.Fatalf("expected floor %d, got %d", config.Default().MinShipmentPrice, b.GrossPrice)
	}

	// The floor applies to the backhaul-discounted figure too.
	back := e.Quote(lilongwe, shipment.Location{City: "Dedza"}, 50, shipment.VehicleMotorcycle, shipment.CargoGeneral, true)
	if back.GrossPrice != config.Default().MinShipmentPrice {
		t.Fatalf("expected floor %d on backhaul, got %d", config.Default().MinShipmentPrice, back.GrossPrice)
	}
}

func TestQuote_UnknownVehicleUsesDefaultRate(t *testing.T) {
	e := testEngine(time.January)
	b := e.Quote(lilongwe, blantyre, 1000, shipment.VehicleType("oxcart"), shipment.CargoGeneral, false)
	if b.DistanceCharge != 311*600 {
		t.Fatalf("expected default rate, got charge %v", b.DistanceCharge)
	}
}

func TestQuickEstimate(t *testing.T) {
	e := testEngine(time.January)

	min, max := e.QuickEstimate(lilongwe, blantyre, 5000, shipment.VehicleMediumTruck)
	if min != 173280 || max != 389880 {
		t.Fatalf("estimate band = [%d, %d], want [173280, 389880]", min, max)
	}

	// A tiny job's band collapses onto the floor.
	min, max = e.QuickEstimate(lilongwe, shipment.Location{City: "Dedza"}, 10, shipment.VehicleMotorcycle)
	if min != config.Default().MinShipmentPrice {
		t.Fatalf("expected floored min, got %d", min)
	}
	if max < min {
		t.Fatalf("band inverted: [%d, %d]", min, max)
	}
}

func TestDistanceKm(t *testing.T) {
	// Coordinates win over the city table.
	withCoords := func(city string, lat, lng float64) shipment.Location {
		return shipment.Location{City: city, Coordinates: &shipment.Coordinates{Lat: lat, Lng: lng}}
	}
	d := DistanceKm(
		withCoords("Lilongwe", -13.9626, 33.7741),
		withCoords("Blantyre", -15.7861, 35.0058),
	)
	if d < 230 || d > 255 {
		t.Fatalf("great-circle Lilongwe-Blantyre = %v, want ~242", d)
	}

	// City table, symmetric.
	if d := DistanceKm(blantyre, lilongwe); d != 311 {
		t.Fatalf("expected 311 from the pair table, got %v", d)
	}

	// Unknown pair falls back.
	if d := DistanceKm(shipment.Location{City: "Likoma"}, shipment.Location{City: "Chitipa"}); d != DefaultDistanceKm {
		t.Fatalf("expected default %v, got %v", float64(DefaultDistanceKm), d)
	}
}

// Package pricing computes shipment quotes from route, weight, vehicle,
// cargo, season and backhaul status. Everything here is a pure function of
// its inputs and the injected clock; it is safe to call repeatedly for
// quotes and never touches stores.
package pricing

import (
	"math"
	"time"

	"mzigo/config"
	"mzigo/shipment"
)

const (
	earthRadiusKm = 6371.0
	// freeWeightKg is the allowance before the per-kg surcharge starts.
	freeWeightKg = 1000.0
	// surchargePerKg is charged on every kg above the allowance, in MWK.
	surchargePerKg = 10.0
	// quickEstimateLow and quickEstimateHigh band the undiscounted base for
	// pre-commit browsing.
	quickEstimateLow  = 0.60
	quickEstimateHigh = 1.35
)

// Breakdown reconciles every component of a computed price. Intermediates
// stay in float MWK; the three caller-facing figures are rounded integers.
type Breakdown struct {
	DistanceKm         float64
	DistanceCharge     float64
	WeightSurcharge    float64
	SeasonalMultiplier float64
	SeasonalAdjustment float64
	DemandMultiplier   float64
	DemandAdjustment   float64
	CargoSurcharge     float64
	Subtotal           float64
	BackhaulDiscount   float64

	GrossPrice  int64
	PlatformFee int64
	NetEarnings int64
}

// Engine evaluates quotes under a fixed configuration.
type Engine struct {
	cfg config.Config
	now func() time.Time
}

// NewEngine builds a pricing engine.
func NewEngine(cfg config.Config) *Engine {
	return &Engine{cfg: cfg, now: time.Now}
}

// WithClock overrides the clock used for seasonal lookups.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Quote computes the full price breakdown. The component order matters for
// the breakdown to reconcile: distance and weight form the base, the three
// adjustments apply to that base, the backhaul discount applies to the
// subtotal, and the floor applies last.
func (e *Engine) Quote(origin, destination shipment.Location, weightKg float64, vehicle shipment.VehicleType, cargo shipment.CargoType, isBackhaul bool) Breakdown {
	b := Breakdown{DistanceKm: DistanceKm(origin, destination)}

	rate, ok := baseRatePerKm[vehicle]
	if !ok {
		rate = defaultBaseRate
	}
	b.DistanceCharge = b.DistanceKm * rate
	b.WeightSurcharge = math.Max(0, weightKg-freeWeightKg) * surchargePerKg
	base := b.DistanceCharge + b.WeightSurcharge

	b.SeasonalMultiplier = seasonalMultiplier(cargo, e.now().Month())
	b.SeasonalAdjustment = base * (b.SeasonalMultiplier - 1)

	b.DemandMultiplier = demandMultiplier(origin.City, destination.City)
	b.DemandAdjustment = base * (b.DemandMultiplier - 1)

	b.CargoSurcharge = base * cargoSurchargeRate[cargo]

	b.Subtotal = base + b.SeasonalAdjustment + b.DemandAdjustment + b.CargoSurcharge
	if isBackhaul {
		b.BackhaulDiscount = b.Subtotal * e.cfg.BackhaulDiscount
	}

	gross := int64(math.Round(b.Subtotal - b.BackhaulDiscount))
	if gross < e.cfg.MinShipmentPrice {
		gross = e.cfg.MinShipmentPrice
	}
	b.GrossPrice = gross
	b.PlatformFee = int64(math.Round(float64(gross) * e.cfg.CommissionRate))
	b.NetEarnings = gross - b.PlatformFee
	return b
}

// QuickEstimate returns a [min,max] MWK band around the undiscounted base
// for pre-commit browsing, skipping the seasonal/demand/cargo pipeline. The
// band's low end is clamped to the platform minimum so browsing never shows
// a figure the full quote could not charge.
func (e *Engine) QuickEstimate(origin, destination shipment.Location, weightKg float64, vehicle shipment.VehicleType) (int64, int64) {
	rate, ok := baseRatePerKm[vehicle]
	if !ok {
		rate = defaultBaseRate
	}
	base := DistanceKm(origin, destination)*rate + math.Max(0, weightKg-freeWeightKg)*surchargePerKg

	min := int64(math.Round(base * quickEstimateLow))
	if min < e.cfg.MinShipmentPrice {
		min = e.cfg.MinShipmentPrice
	}
	max := int64(math.Round(base * quickEstimateHigh))
	if max < min {
		max = min
	}
	return min, max
}

// DistanceKm resolves the distance between two locations: great-circle when
// both carry coordinates, then the city-pair table, then the default.
func DistanceKm(origin, destination shipment.Location) float64 {
	if origin.Coordinates != nil && destination.Coordinates != nil {
		return haversineKm(*origin.Coordinates, *destination.Coordinates)
	}
	if km, ok := lookupCityPairKm(origin.City, destination.City); ok {
		return km
	}
	return DefaultDistanceKm
}

func haversineKm(a, b shipment.Coordinates) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

package matching

import (
	"time"

	"mzigo/pricing"
)

// OfferStatus is the lifecycle of a dispatched load offer.
type OfferStatus string

const (
	OfferPending  OfferStatus = "pending"
	OfferAccepted OfferStatus = "accepted"
	OfferDeclined OfferStatus = "declined"
	OfferExpired  OfferStatus = "expired"
)

// LoadOffer is an ephemeral pairing of a shipment and a transporter,
// consumed within its TTL or expired automatically.
type LoadOffer struct {
	ID            string
	ShipmentID    string
	TransporterID string
	MatchScore    int
	IsBackhaul    bool
	Pricing       pricing.Breakdown
	Status        OfferStatus
	CreatedAt     time.Time
	ExpiresAt     time.Time
}

// Expired reports whether the offer's TTL has elapsed.
func (o LoadOffer) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

// ScoreResult is the outcome of scoring one transporter against one
// shipment. A score below the platform floor comes back ineligible rather
// than erroring, so batch scans continue.
type ScoreResult struct {
	Score      int
	Eligible   bool
	Reason     string
	IsBackhaul bool
}

// Candidate pairs a transporter id with its score for ranked output.
type Candidate struct {
	TransporterID string
	Result        ScoreResult
}

// ScoreWeights are the factor weights of the match score. They must sum to
// 1.0; Validate guards against drift when they are tuned.
type ScoreWeights struct {
	DistanceToPickup    float64
	Rating              float64
	VehicleRightSizing  float64
	Availability        float64
	BackhaulBonus       float64
	OnTimeRate          float64
	RoutePreference     float64
	CargoSpecialization float64
}

// DefaultWeights are the reference weights.
func DefaultWeights() ScoreWeights {
	return ScoreWeights{
		DistanceToPickup:    0.20,
		Rating:              0.15,
		VehicleRightSizing:  0.25,
		Availability:        0.10,
		BackhaulBonus:       0.10,
		OnTimeRate:          0.10,
		RoutePreference:     0.05,
		CargoSpecialization: 0.05,
	}
}

// Sum totals the weights; callers assert it equals 1.0.
func (w ScoreWeights) Sum() float64 {
	return w.DistanceToPickup + w.Rating + w.VehicleRightSizing + w.Availability +
		w.BackhaulBonus + w.OnTimeRate + w.RoutePreference + w.CargoSpecialization
}

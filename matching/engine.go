// Package matching scores transporter/shipment pairs and dispatches load
// offers. Eligibility rides the enforcement engine; scoring itself is a
// pure weighted sum.
package matching

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"mzigo/config"
	"mzigo/invariant"
	"mzigo/pricing"
	"mzigo/rules"
	"mzigo/shipment"
	"mzigo/transporter"
)

// distanceHorizonKm normalizes the distance-to-pickup factor: anything at or
// beyond this distance scores zero.
const distanceHorizonKm = 500.0

// oversizeLoadKg hides loads above this weight from light vehicle classes
// even when raw capacity math might pass.
const (
	oversizeLoadKg     = 15000.0
	oversizeMinClassKg = 10000.0
)

// TransporterSource lists scoring candidates.
type TransporterSource interface {
	ListActive(ctx context.Context) ([]transporter.Profile, error)
}

// Engine computes match scores and recommendations.
type Engine struct {
	enforcer     *invariant.Engine
	transporters TransporterSource
	pricer       *pricing.Engine
	offers       *OfferStore
	cfg          config.Config
	weights      ScoreWeights
	idGen        func() string
	now          func() time.Time
}

// NewEngine builds a matching engine.
func NewEngine(enforcer *invariant.Engine, transporters TransporterSource, pricer *pricing.Engine, offers *OfferStore, cfg config.Config) *Engine {
	return &Engine{
		enforcer:     enforcer,
		transporters: transporters,
		pricer:       pricer,
		offers:       offers,
		cfg:          cfg,
		weights:      DefaultWeights(),
		idGen:        func() string { return uuid.NewString() },
		now:          time.Now,
	}
}

// WithClock overrides the engine clock.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// WithIDGenerator overrides id generation; used by tests.
func (e *Engine) WithIDGenerator(gen func() string) *Engine {
	e.idGen = gen
	return e
}

// WithWeights overrides the score weights. The weights must sum to 1.0.
func (e *Engine) WithWeights(w ScoreWeights) (*Engine, error) {
	if math.Abs(w.Sum()-1.0) > 1e-9 {
		return nil, fmt.Errorf("matching: score weights sum to %v, want 1.0", w.Sum())
	}
	e.weights = w
	return e, nil
}

// eligibilityContext satisfies the weight and cargo compatibility rules.
type eligibilityContext struct {
	rules.WeightContext
	rules.CargoContext
}

// CalculateMatchScore computes eligibility and a 0-100 weighted score for
// one pairing. Ineligible pairs come back with score zero and the violated
// statement as the reason; scores under the floor come back ineligible
// rather than erroring so batch scans keep going.
func (e *Engine) CalculateMatchScore(ctx context.Context, sh shipment.Shipment, t transporter.Profile, backhaulHint bool) (ScoreResult, error) {
	if reason, ok := e.canHandle(sh, t); !ok {
		return ScoreResult{Reason: reason}, nil
	}

	payload := eligibilityContext{
		WeightContext: rules.WeightContext{WeightKg: sh.WeightKg, VehicleCapacityKg: t.VehicleCapacityKg},
		CargoContext:  rules.CargoContext{Cargo: sh.CargoType, Vehicle: t.VehicleType},
	}
	err := e.enforcer.Execute(ctx, []string{rules.ShipmentWeight, rules.CargoCompatibility}, payload, func(context.Context) error {
		return nil
	})
	if err != nil {
		var violation *invariant.ViolationError
		if errors.As(err, &violation) {
			return ScoreResult{Reason: violation.Statement}, nil
		}
		return ScoreResult{}, err
	}

	isBackhaul := backhaulHint || IsBackhaulOpportunity(sh, t)
	score := e.weightedScore(sh, t, isBackhaul)

	if score < e.cfg.MatchScoreFloor {
		return ScoreResult{
			Score:      score,
			IsBackhaul: isBackhaul,
			Reason:     "match score below platform floor",
		}, nil
	}
	return ScoreResult{Score: score, Eligible: true, IsBackhaul: isBackhaul}, nil
}

// canHandle is the cheap pre-filter applied before the invariant chain.
func (e *Engine) canHandle(sh shipment.Shipment, t transporter.Profile) (string, bool) {
	switch {
	case !t.IsActive || !t.IsAvailable:
		return "transporter offline", false
	case t.VehicleCapacityKg <= 0:
		return "vehicle fully loaded", false
	case shipment.RequiresRefrigeration(sh.CargoType) && !t.HasRefrigeration:
		return "cargo requires refrigeration", false
	case !shipment.MeetsMinimumClass(sh.CargoType, t.VehicleType):
		return "vehicle class below cargo minimum", false
	case sh.CargoType == shipment.CargoFuel && t.VehicleType != shipment.VehicleTanker:
		return "fuel moves only in tankers", false
	case sh.WeightKg > oversizeLoadKg && shipment.ClassRatingKg(t.VehicleType) < oversizeMinClassKg:
		return "load oversized for vehicle class", false
	}
	return "", true
}

func (e *Engine) weightedScore(sh shipment.Shipment, t transporter.Profile, isBackhaul bool) int {
	w := e.weights

	distanceKm := pricing.DistanceKm(t.CurrentLocation, sh.Origin)
	distanceFactor := math.Max(0, 1-distanceKm/distanceHorizonKm)

	ratingFactor := t.Rating / 5.0

	sizingFactor := rightSizing(sh, t)

	availabilityFactor := 0.0
	if t.IsAvailable {
		availabilityFactor = 1.0
	}

	backhaulFactor := 0.0
	if isBackhaul {
		backhaulFactor = 1.0
	}

	routeFactor := routePreference(sh, t)

	cargoFactor := 0.5
	if t.HasRefrigeration && shipment.RequiresRefrigeration(sh.CargoType) {
		cargoFactor = 1.0
	}

	sum := w.DistanceToPickup*distanceFactor +
		w.Rating*ratingFactor +
		w.VehicleRightSizing*sizingFactor +
		w.Availability*availabilityFactor +
		w.BackhaulBonus*backhaulFactor +
		w.OnTimeRate*t.OnTimeRate +
		w.RoutePreference*routeFactor +
		w.CargoSpecialization*cargoFactor

	return int(math.Round(sum * 100))
}

// rightSizing rewards neither under- nor over-capacity vehicles: an exact
// type match gets full credit, otherwise the utilization band decides.
func rightSizing(sh shipment.Shipment, t transporter.Profile) float64 {
	if sh.RequiredVehicleType != "" && t.VehicleType == sh.RequiredVehicleType {
		return 1.0
	}
	if t.VehicleCapacityKg <= 0 {
		return 0
	}
	utilization := sh.WeightKg / t.VehicleCapacityKg
	switch {
	case utilization >= 0.75:
		return 0.95
	case utilization >= 0.50:
		return 0.80
	case utilization >= 0.25:
		return 0.60
	default:
		return 0.40
	}
}

// routePreference gives full credit when the shipment's route is in the
// transporter's preferred list, a neutral half credit when no preferences
// are set, and a low score otherwise.
func routePreference(sh shipment.Shipment, t transporter.Profile) float64 {
	if len(t.PreferredRoutes) == 0 {
		return 0.5
	}
	route := shipment.Route{OriginCity: sh.Origin.City, DestinationCity: sh.Destination.City}
	if t.PrefersRoute(route) {
		return 1.0
	}
	return 0.3
}

// IsBackhaulOpportunity reports whether the transporter sits at the
// shipment's destination and would otherwise return empty.
func IsBackhaulOpportunity(sh shipment.Shipment, t transporter.Profile) bool {
	return t.CurrentLocation.City != "" && t.CurrentLocation.City == sh.Destination.City
}

// FindMatches scores every active transporter against the shipment
// concurrently, discards ineligible pairs, and returns the top-N by score
// descending. Ties preserve candidate order.
func (e *Engine) FindMatches(ctx context.Context, sh shipment.Shipment, limit int) ([]Candidate, error) {
	profiles, err := e.transporters.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]ScoreResult, len(profiles))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range profiles {
		g.Go(func() error {
			result, err := e.CalculateMatchScore(gctx, sh, p, false)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(profiles))
	for i, p := range profiles {
		if results[i].Eligible {
			candidates = append(candidates, Candidate{TransporterID: p.ID, Result: results[i]})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Result.Score > candidates[j].Result.Score
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// GetSmartRecommendations is FindMatches with backhaul opportunities ranked
// first at equal score, for the transporter-facing browse surface.
func (e *Engine) GetSmartRecommendations(ctx context.Context, sh shipment.Shipment, limit int) ([]Candidate, error) {
	candidates, err := e.FindMatches(ctx, sh, 0)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		ci, cj := candidates[i].Result, candidates[j].Result
		if ci.Score != cj.Score {
			return ci.Score > cj.Score
		}
		return ci.IsBackhaul && !cj.IsBackhaul
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

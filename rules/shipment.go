package rules

import (
	"context"

	"mzigo/config"
	"mzigo/invariant"
	"mzigo/shipment"
)

// WeightContext feeds the vehicle weight rule.
type WeightContext struct {
	WeightKg          float64
	VehicleCapacityKg float64
}

// WeightInput satisfies the weight rule's payload lookup.
func (c WeightContext) WeightInput() WeightContext { return c }

type weightInput interface{ WeightInput() WeightContext }

// CargoContext feeds the cargo/vehicle compatibility rule.
type CargoContext struct {
	Cargo   shipment.CargoType
	Vehicle shipment.VehicleType
}

// CargoInput satisfies the compatibility rule's payload lookup.
func (c CargoContext) CargoInput() CargoContext { return c }

type cargoInput interface{ CargoInput() CargoContext }

// TransitionContext feeds the shipment state machine rule.
type TransitionContext struct {
	From shipment.Status
	To   shipment.Status
}

// TransitionInput satisfies the state rule's payload lookup.
func (c TransitionContext) TransitionInput() TransitionContext { return c }

type transitionInput interface{ TransitionInput() TransitionContext }

// ReviewContext feeds the high-value review rule.
type ReviewContext struct {
	PriceMWK   int64
	IsReviewed bool
	// NextStatus gates the rule: review is demanded only when the shipment
	// is about to be matched.
	NextStatus shipment.Status
}

// ReviewInput satisfies the review rule's payload lookup.
func (c ReviewContext) ReviewInput() ReviewContext { return c }

type reviewInput interface{ ReviewInput() ReviewContext }

// weightTolerance allows loads up to 10% over the vehicle's rated capacity.
const weightTolerance = 1.10

// ShipmentRules returns the shipment module's catalogue entries.
func ShipmentRules(cfg config.Config) []invariant.Definition {
	return []invariant.Definition{
		{
			ID:               ShipmentWeight,
			Statement:        "shipment weight must not exceed 110% of the assigned vehicle's rated capacity",
			Criticality:      invariant.CriticalityCritical,
			Enforcement:      invariant.EnforcementBlock,
			Owner:            "shipment",
			ThreatsMitigated: []string{"vehicle overload", "road safety"},
			PreCheck: func(_ context.Context, payload any) (bool, error) {
				in, ok := payload.(weightInput)
				if !ok {
					return false, errMissingInput(ShipmentWeight, payload)
				}
				c := in.WeightInput()
				if c.VehicleCapacityKg <= 0 {
					return false, nil
				}
				return c.WeightKg <= c.VehicleCapacityKg*weightTolerance, nil
			},
		},
		{
			ID:               CargoCompatibility,
			Statement:        "cargo may only travel on a vehicle type approved for it",
			Criticality:      invariant.CriticalityCritical,
			Enforcement:      invariant.EnforcementBlock,
			Owner:            "shipment",
			ThreatsMitigated: []string{"cargo damage", "regulatory breach"},
			PreCheck: func(_ context.Context, payload any) (bool, error) {
				in, ok := payload.(cargoInput)
				if !ok {
					return false, errMissingInput(CargoCompatibility, payload)
				}
				c := in.CargoInput()
				return shipment.CargoCompatible(c.Cargo, c.Vehicle), nil
			},
		},
		{
			ID:               ShipmentTransition,
			Statement:        "shipment status may only follow the declared state machine",
			Criticality:      invariant.CriticalityCritical,
			Enforcement:      invariant.EnforcementBlock,
			Owner:            "shipment",
			ThreatsMitigated: []string{"lifecycle corruption", "premature payout"},
			PreCheck: func(_ context.Context, payload any) (bool, error) {
				in, ok := payload.(transitionInput)
				if !ok {
					return false, errMissingInput(ShipmentTransition, payload)
				}
				c := in.TransitionInput()
				return shipment.CanTransition(c.From, c.To), nil
			},
		},
		{
			ID:               HighValueReview,
			Statement:        "high-value shipments must be manually reviewed before matching",
			Criticality:      invariant.CriticalityImportant,
			Enforcement:      invariant.EnforcementBlock,
			Dependencies:     []string{ShipmentTransition},
			Owner:            "shipment",
			ThreatsMitigated: []string{"fraud", "money laundering"},
			PreCheck: func(_ context.Context, payload any) (bool, error) {
				in, ok := payload.(reviewInput)
				if !ok {
					return false, errMissingInput(HighValueReview, payload)
				}
				c := in.ReviewInput()
				if c.NextStatus != shipment.StatusMatched {
					return true, nil
				}
				if c.PriceMWK <= cfg.HighValueReviewThreshold {
					return true, nil
				}
				return c.IsReviewed, nil
			},
		},
	}
}

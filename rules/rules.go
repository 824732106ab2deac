// Package rules holds the platform's invariant catalogue, grouped by owning
// module. Every rule is a pure predicate over a payload struct declared
// beside it; acting services own their own snapshot/restore, so rollback
// hooks stay nil unless a rule genuinely has something to undo.
//
// Payload structs carry a self-returning input method so that composite
// operation payloads can embed several contexts and satisfy every rule in a
// chain at once.
package rules

import (
	"fmt"

	"mzigo/config"
	"mzigo/invariant"
)

// Stable rule ids. These are contract keys: audit logs, module boundaries
// and callers all reference them.
const (
	ShipmentWeight       = "SHIP-WEIGHT"
	CargoCompatibility   = "SHIP-CARGO-COMPAT"
	ShipmentTransition   = "SHIP-STATE"
	HighValueReview      = "SHIP-REVIEW-HIGH-VALUE"
	EscrowSolvency       = "ESCROW-SOLVENCY"
	MinPriceHeavyVehicle = "PRICE-MIN-TRUCK"
	MatchScoreFloor      = "MATCH-SCORE-FLOOR"
	PriceBinding         = "PRICE-BIND"
	EscrowRelease        = "ESCROW-RELEASE"
	PhoneFormat          = "ID-PHONE-FORMAT"
	PlateFormat          = "ID-PLATE-FORMAT"
	NoShowSuspension     = "ID-NOSHOW-SUSPEND"
	SessionTTL           = "USSD-SESSION-TTL"
)

// All returns the complete catalogue for registration at startup.
func All(cfg config.Config) []invariant.Definition {
	defs := ShipmentRules(cfg)
	defs = append(defs, WalletRules(cfg)...)
	defs = append(defs, MatchingRules(cfg)...)
	defs = append(defs, IdentityRules(cfg)...)
	defs = append(defs, USSDRules(cfg)...)
	return defs
}

// Register builds a validated registry holding the whole catalogue.
func Register(cfg config.Config) (*invariant.Registry, error) {
	registry := invariant.NewRegistry()
	if err := registry.RegisterAll(All(cfg)...); err != nil {
		return nil, err
	}
	if err := registry.Validate(); err != nil {
		return nil, err
	}
	return registry, nil
}

// errMissingInput is returned when a chain runs against a payload that does
// not carry the context a rule needs. Treated as a check failure, never a
// silent pass.
func errMissingInput(ruleID string, payload any) error {
	return fmt.Errorf("rules: payload %T carries no input for %s", payload, ruleID)
}

package rules

import (
	"context"

	"mzigo/config"
	"mzigo/invariant"
	"mzigo/shipment"
)

// SolvencyContext feeds the escrow solvency rule.
type SolvencyContext struct {
	AvailableBalance int64
	GrossAmount      int64
	PaymentMethod    shipment.PaymentMethod
	CashVerified     bool
}

// SolvencyInput satisfies the solvency rule's payload lookup.
func (c SolvencyContext) SolvencyInput() SolvencyContext { return c }

type solvencyInput interface{ SolvencyInput() SolvencyContext }

// HeavyPriceContext feeds the heavy-vehicle minimum price rule.
type HeavyPriceContext struct {
	PriceMWK int64
	Vehicle  shipment.VehicleType
}

// HeavyPriceInput satisfies the minimum price rule's payload lookup.
func (c HeavyPriceContext) HeavyPriceInput() HeavyPriceContext { return c }

type heavyPriceInput interface{ HeavyPriceInput() HeavyPriceContext }

// PriceBindContext feeds the accepted-price binding rule.
type PriceBindContext struct {
	AgreedPrice     int64
	ProposedPrice   int64
	ExceptionReason string
}

// PriceBindInput satisfies the price binding rule's payload lookup.
func (c PriceBindContext) PriceBindInput() PriceBindContext { return c }

type priceBindInput interface{ PriceBindInput() PriceBindContext }

// ReleaseContext feeds the escrow release gating rule.
type ReleaseContext struct {
	ShipmentStatus   shipment.Status
	ShipperConfirmed bool
}

// ReleaseInput satisfies the release gating rule's payload lookup.
func (c ReleaseContext) ReleaseInput() ReleaseContext { return c }

type releaseInput interface{ ReleaseInput() ReleaseContext }

// WalletRules returns the wallet module's catalogue entries. All of these
// gate money movement and are therefore BLOCK-level without exception.
func WalletRules(cfg config.Config) []invariant.Definition {
	return []invariant.Definition{
		{
			ID:               EscrowSolvency,
			Statement:        "escrow can only be funded from a sufficient wallet balance or verified cash",
			Criticality:      invariant.CriticalityCritical,
			Enforcement:      invariant.EnforcementBlock,
			Owner:            "wallet",
			ThreatsMitigated: []string{"overdraft", "unfunded escrow"},
			PreCheck: func(_ context.Context, payload any) (bool, error) {
				in, ok := payload.(solvencyInput)
				if !ok {
					return false, errMissingInput(EscrowSolvency, payload)
				}
				c := in.SolvencyInput()
				if c.GrossAmount <= 0 {
					return false, nil
				}
				if c.PaymentMethod == shipment.PaymentCash {
					return c.CashVerified, nil
				}
				return c.AvailableBalance >= c.GrossAmount, nil
			},
		},
		{
			ID:               MinPriceHeavyVehicle,
			Statement:        "medium/large trucks and tankers must be priced at or above the heavy-vehicle minimum",
			Criticality:      invariant.CriticalityImportant,
			Enforcement:      invariant.EnforcementBlock,
			Owner:            "wallet",
			ThreatsMitigated: []string{"predatory pricing", "transporter exploitation"},
			PreCheck: func(_ context.Context, payload any) (bool, error) {
				in, ok := payload.(heavyPriceInput)
				if !ok {
					return false, errMissingInput(MinPriceHeavyVehicle, payload)
				}
				c := in.HeavyPriceInput()
				if !shipment.IsHeavyVehicle(c.Vehicle) {
					return true, nil
				}
				return c.PriceMWK >= cfg.MinHeavyVehiclePrice, nil
			},
		},
		{
			ID:               EscrowRelease,
			Statement:        "escrow funds release only after delivery is confirmed by the shipper",
			Criticality:      invariant.CriticalityCritical,
			Enforcement:      invariant.EnforcementBlock,
			Owner:            "wallet",
			ThreatsMitigated: []string{"premature payout", "delivery disputes"},
			PreCheck: func(_ context.Context, payload any) (bool, error) {
				in, ok := payload.(releaseInput)
				if !ok {
					return false, errMissingInput(EscrowRelease, payload)
				}
				c := in.ReleaseInput()
				return c.ShipmentStatus == shipment.StatusDelivered && c.ShipperConfirmed, nil
			},
		},
		{
			ID:               PriceBinding,
			Statement:        "an accepted match price may not change without a documented exception",
			Criticality:      invariant.CriticalityCritical,
			Enforcement:      invariant.EnforcementBlock,
			Dependencies:     []string{EscrowRelease},
			Owner:            "wallet",
			ThreatsMitigated: []string{"bait-and-switch pricing"},
			PreCheck: func(_ context.Context, payload any) (bool, error) {
				in, ok := payload.(priceBindInput)
				if !ok {
					return false, errMissingInput(PriceBinding, payload)
				}
				c := in.PriceBindInput()
				if c.ProposedPrice == 0 || c.ProposedPrice == c.AgreedPrice {
					return true, nil
				}
				return c.ExceptionReason != "", nil
			},
		},
	}
}

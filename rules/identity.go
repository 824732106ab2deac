package rules

import (
	"context"
	"regexp"

	"mzigo/config"
	"mzigo/invariant"
)

// Malawi mobile numbers: +265 or leading 0 followed by a 9-digit subscriber
// number. Vehicle plates: two letters, optional space, four digits.
var (
	phonePattern = regexp.MustCompile(`^(?:\+265|0)(?:88|99|98|77|31)\d{7}$`)
	platePattern = regexp.MustCompile(`^[A-Z]{2} ?\d{4}$`)
)

// PhoneContext feeds the phone format rule.
type PhoneContext struct {
	Phone string
}

// PhoneInput satisfies the phone format rule's payload lookup.
func (c PhoneContext) PhoneInput() PhoneContext { return c }

type phoneInput interface{ PhoneInput() PhoneContext }

// PlateContext feeds the plate format rule.
type PlateContext struct {
	Plate string
}

// PlateInput satisfies the plate format rule's payload lookup.
func (c PlateContext) PlateInput() PlateContext { return c }

type plateInput interface{ PlateInput() PlateContext }

// NoShowContext feeds the no-show suspension rule. WindowCount is the number
// of no-shows recorded inside the rule's decay window.
type NoShowContext struct {
	WindowCount int
}

// NoShowInput satisfies the suspension rule's payload lookup.
func (c NoShowContext) NoShowInput() NoShowContext { return c }

type noShowInput interface{ NoShowInput() NoShowContext }

// IdentityRules returns the identity module's catalogue entries. The format
// rules are WARN-level: they are completeness checks, not safety gates.
func IdentityRules(cfg config.Config) []invariant.Definition {
	return []invariant.Definition{
		{
			ID:          PhoneFormat,
			Statement:   "phone numbers must follow the Malawi mobile format",
			Criticality: invariant.CriticalityOptional,
			Enforcement: invariant.EnforcementWarn,
			Owner:       "identity",
			PreCheck: func(_ context.Context, payload any) (bool, error) {
				in, ok := payload.(phoneInput)
				if !ok {
					return false, errMissingInput(PhoneFormat, payload)
				}
				return phonePattern.MatchString(in.PhoneInput().Phone), nil
			},
		},
		{
			ID:          PlateFormat,
			Statement:   "vehicle plates must follow the Malawi registration format",
			Criticality: invariant.CriticalityOptional,
			Enforcement: invariant.EnforcementWarn,
			Owner:       "identity",
			PreCheck: func(_ context.Context, payload any) (bool, error) {
				in, ok := payload.(plateInput)
				if !ok {
					return false, errMissingInput(PlateFormat, payload)
				}
				return platePattern.MatchString(in.PlateInput().Plate), nil
			},
		},
		{
			ID:               NoShowSuspension,
			Statement:        "three or more no-shows within the rolling window mandates suspension",
			Criticality:      invariant.CriticalityImportant,
			Enforcement:      invariant.EnforcementBlock,
			DecayWindow:      cfg.NoShowWindow,
			Owner:            "identity",
			ThreatsMitigated: []string{"unreliable transporters"},
			PreCheck: func(_ context.Context, payload any) (bool, error) {
				in, ok := payload.(noShowInput)
				if !ok {
					return false, errMissingInput(NoShowSuspension, payload)
				}
				return in.NoShowInput().WindowCount < cfg.NoShowSuspensionCount, nil
			},
		},
	}
}

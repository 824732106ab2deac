package rules

import (
	"context"
	"time"

	"mzigo/config"
	"mzigo/invariant"
)

// SessionContext feeds the USSD session TTL rule.
type SessionContext struct {
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionInput satisfies the session TTL rule's payload lookup.
func (c SessionContext) SessionInput() SessionContext { return c }

type sessionInput interface{ SessionInput() SessionContext }

// USSDRules returns the USSD module's catalogue entries. Feature-phone
// sessions below the minimum TTL time out mid-menu, so short sessions are
// rejected at creation.
func USSDRules(cfg config.Config) []invariant.Definition {
	return []invariant.Definition{
		{
			ID:          SessionTTL,
			Statement:   "USSD sessions must live at least the platform minimum",
			Criticality: invariant.CriticalityImportant,
			Enforcement: invariant.EnforcementBlock,
			Owner:       "ussd",
			PreCheck: func(_ context.Context, payload any) (bool, error) {
				in, ok := payload.(sessionInput)
				if !ok {
					return false, errMissingInput(SessionTTL, payload)
				}
				c := in.SessionInput()
				return c.ExpiresAt.Sub(c.CreatedAt) >= cfg.USSDSessionMinTTL, nil
			},
		},
	}
}

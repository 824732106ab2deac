package rules

import (
	"context"

	"mzigo/config"
	"mzigo/invariant"
)

// ScoreContext feeds the match score floor rule.
type ScoreContext struct {
	Score int
}

// ScoreInput satisfies the score floor rule's payload lookup.
func (c ScoreContext) ScoreInput() ScoreContext { return c }

type scoreInput interface{ ScoreInput() ScoreContext }

// MatchingRules returns the matching module's catalogue entries.
func MatchingRules(cfg config.Config) []invariant.Definition {
	return []invariant.Definition{
		{
			ID:               MatchScoreFloor,
			Statement:        "matches scoring below the platform floor are never surfaced to transporters",
			Criticality:      invariant.CriticalityImportant,
			Enforcement:      invariant.EnforcementBlock,
			Owner:            "matching",
			ThreatsMitigated: []string{"poor match quality", "transporter churn"},
			PreCheck: func(_ context.Context, payload any) (bool, error) {
				in, ok := payload.(scoreInput)
				if !ok {
					return false, errMissingInput(MatchScoreFloor, payload)
				}
				return in.ScoreInput().Score >= cfg.MatchScoreFloor, nil
			},
		},
	}
}

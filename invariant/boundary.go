package invariant

import (
	"context"
	"fmt"
)

// Boundary is a named contract between two subsystems composed of a subset
// of invariants. It is used for point-in-time contract verification when
// data crosses the boundary, not for execution wrapping.
type Boundary struct {
	Source string
	Target string

	registry *Registry
	ruleIDs  []string
}

// NewBoundary declares a contract between source and target over the given
// rule ids. Unknown ids surface on the first VerifyContract call.
func NewBoundary(registry *Registry, source, target string, ruleIDs []string) *Boundary {
	ids := make([]string, len(ruleIDs))
	copy(ids, ruleIDs)
	return &Boundary{
		Source:   source,
		Target:   target,
		registry: registry,
		ruleIDs:  ids,
	}
}

// Name returns the boundary's identity, e.g. "shipment->wallet".
func (b *Boundary) Name() string {
	return fmt.Sprintf("%s->%s", b.Source, b.Target)
}

// VerifyContract runs every contract rule's pre-check against the payload in
// dependency order. WARN-level rules are skipped silently here; contract
// verification reports only blocking breaches.
func (b *Boundary) VerifyContract(ctx context.Context, payload any) error {
	chain, err := b.registry.Resolve(b.ruleIDs)
	if err != nil {
		return err
	}
	for _, rule := range chain {
		ok, err := rule.def.PreCheck(ctx, payload)
		if err != nil {
			return fmt.Errorf("invariant: boundary %s pre-check %s: %w", b.Name(), rule.def.ID, err)
		}
		if !ok && rule.def.Enforcement == EnforcementBlock {
			return &ViolationError{
				RuleID:      rule.def.ID,
				Statement:   rule.def.Statement,
				Criticality: rule.def.Criticality,
				Phase:       PhasePreCheck,
			}
		}
	}
	return nil
}

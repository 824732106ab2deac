// Package invariant implements the enforcement engine that gates every
// pricing, matching, and money-moving mutation in the platform. Rules are
// registered once at startup into a flat namespace and executed in
// dependency order around a caller-supplied action.
package invariant

import (
	"context"
	"time"
)

// Criticality documents how severe a violation of the rule is. It is carried
// for audit purposes; control flow depends only on Enforcement.
type Criticality string

const (
	CriticalityCritical  Criticality = "CRITICAL"
	CriticalityImportant Criticality = "IMPORTANT"
	CriticalityOptional  Criticality = "OPTIONAL"
)

// Enforcement decides whether a failed check blocks the action or is only
// logged. Rules touching wallets, escrow, or shipment status must be Block.
type Enforcement string

const (
	EnforcementBlock Enforcement = "BLOCK"
	EnforcementWarn  Enforcement = "WARN"
)

// PredicateFunc evaluates a rule against the caller's payload. A nil
// PostCheck means the rule only guards entry.
type PredicateFunc func(ctx context.Context, payload any) (bool, error)

// RollbackFunc undoes whatever the rule needs undone after a failure. Most
// rules are pure predicates and leave this nil; the acting service owns its
// own snapshot/restore.
type RollbackFunc func(ctx context.Context, payload any, cause error) error

// VerifyFunc revalidates the rule's own assumptions when its decay window
// elapses.
type VerifyFunc func(ctx context.Context) (bool, error)

// Definition is a named, versioned business rule. Definitions are stateless;
// the registry owns per-rule bookkeeping such as last-verified timestamps.
type Definition struct {
	ID           string
	Statement    string
	Criticality  Criticality
	Enforcement  Enforcement
	Dependencies []string
	// DecayWindow bounds how long a Verify result stays trusted. Zero means
	// the rule never decays.
	DecayWindow      time.Duration
	Owner            string
	ThreatsMitigated []string

	PreCheck  PredicateFunc
	PostCheck PredicateFunc
	Rollback  RollbackFunc
	Verify    VerifyFunc
}

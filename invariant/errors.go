package invariant

import (
	"errors"
	"fmt"
)

// Phase records where in the execute lifecycle a violation surfaced.
type Phase string

const (
	PhaseVerify    Phase = "verify"
	PhasePreCheck  Phase = "pre_check"
	PhasePostCheck Phase = "post_check"
)

// ViolationError is returned when a BLOCK-level rule fails. The Statement is
// the user-facing text; the ID and Owner are for audit logs.
type ViolationError struct {
	RuleID      string
	Statement   string
	Criticality Criticality
	Phase       Phase
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("invariant violated: %s", e.Statement)
}

// ConfigError signals a broken rule catalogue: an unknown id, a duplicate
// registration, or a dependency cycle. These must never reach production.
type ConfigError struct {
	RuleID string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invariant: configuration error for %q: %s", e.RuleID, e.Reason)
}

// FrozenError is returned for every call once the engine kill-switch is set.
type FrozenError struct {
	Reason string
}

func (e *FrozenError) Error() string {
	return fmt.Sprintf("invariant: engine frozen: %s", e.Reason)
}

// CompromisedError is raised when rollback itself fails after a post-check
// violation. The engine freezes and this is the error class that should page
// a human rather than just log.
type CompromisedError struct {
	RuleID string
	Cause  error
}

func (e *CompromisedError) Error() string {
	return fmt.Sprintf("invariant: system compromised: rollback failed for %s: %v", e.RuleID, e.Cause)
}

func (e *CompromisedError) Unwrap() error { return e.Cause }

// ViolatedRule extracts the offending rule id from an error chain, or ""
// when the error is not a violation.
func ViolatedRule(err error) string {
	var v *ViolationError
	if errors.As(err, &v) {
		return v.RuleID
	}
	return ""
}

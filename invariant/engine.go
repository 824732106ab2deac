package invariant

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// State is the engine's observable run state. Frozen is set by the engine
// itself when a rollback fails and is never cleared automatically; clearing
// it is an explicit operator action.
type State string

const (
	StateRunning State = "running"
	StateFrozen  State = "frozen"
)

// Engine executes actions under a set of invariants with
// pre-check → action → post-check → rollback-on-failure semantics.
type Engine struct {
	registry *Registry
	log      *slog.Logger
	metrics  *Metrics
	now      func() time.Time

	mu           sync.Mutex
	state        State
	freezeReason string
}

// Option customises engine construction.
type Option func(*Engine)

// WithLogger sets the structured logger used for warn-level hits and freezes.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithMetrics attaches violation/freeze counters.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock overrides the engine clock; used by decay tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine builds an engine over a validated registry.
func NewEngine(registry *Registry, opts ...Option) *Engine {
	e := &Engine{
		registry: registry,
		log:      slog.Default(),
		now:      time.Now,
		state:    StateRunning,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State reports the engine's run state and, when frozen, the reason.
func (e *Engine) State() (State, string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state, e.freezeReason
}

// Unfreeze clears the kill-switch. Exposed for operator tooling only; the
// engine never calls it.
func (e *Engine) Unfreeze() {
	e.mu.Lock()
	e.state = StateRunning
	e.freezeReason = ""
	e.mu.Unlock()
}

func (e *Engine) freeze(reason string) {
	e.mu.Lock()
	e.state = StateFrozen
	e.freezeReason = reason
	e.mu.Unlock()
	if e.metrics != nil {
		e.metrics.Freezes.Inc()
	}
	e.log.Error("invariant engine frozen", "reason", reason)
}

// Execute runs action under the named invariants. Results flow back to the
// caller through the action closure; any non-nil return means no mutation
// performed by action may be treated as durable.
func (e *Engine) Execute(ctx context.Context, ids []string, payload any, action func(context.Context) error) error {
	e.mu.Lock()
	if e.state == StateFrozen {
		reason := e.freezeReason
		e.mu.Unlock()
		return &FrozenError{Reason: reason}
	}
	e.mu.Unlock()

	chain, err := e.registry.Resolve(ids)
	if err != nil {
		return err
	}

	// Decayed rules revalidate before any check runs.
	now := e.now()
	for _, rule := range chain {
		if !rule.needsVerify(now) {
			continue
		}
		ok, err := rule.def.Verify(ctx)
		if err != nil {
			return fmt.Errorf("invariant: verify %s: %w", rule.def.ID, err)
		}
		if !ok {
			return e.violation(rule, PhaseVerify)
		}
		rule.markVerified(now)
	}

	for _, rule := range chain {
		ok, err := rule.def.PreCheck(ctx, payload)
		if err != nil {
			return fmt.Errorf("invariant: pre-check %s: %w", rule.def.ID, err)
		}
		if ok {
			continue
		}
		if rule.def.Enforcement == EnforcementWarn {
			e.warn(rule, PhasePreCheck)
			continue
		}
		return e.violation(rule, PhasePreCheck)
	}

	if err := action(ctx); err != nil {
		// The action failed on its own; unwind the chain and hand the
		// original error back unchanged.
		e.rollbackChain(ctx, chain, payload, err)
		return err
	}

	for _, rule := range chain {
		if rule.def.PostCheck == nil {
			continue
		}
		ok, err := rule.def.PostCheck(ctx, payload)
		if err == nil && ok {
			continue
		}
		if err == nil && rule.def.Enforcement == EnforcementWarn {
			e.warn(rule, PhasePostCheck)
			continue
		}
		violation := e.violation(rule, PhasePostCheck)
		if err != nil {
			violation = fmt.Errorf("invariant: post-check %s: %w", rule.def.ID, err)
		}
		if rbErr := e.rollbackChain(ctx, chain, payload, violation); rbErr != nil {
			e.freeze(fmt.Sprintf("rollback failed after post-check violation of %s: %v", rule.def.ID, rbErr))
			return &CompromisedError{RuleID: rule.def.ID, Cause: rbErr}
		}
		return violation
	}

	return nil
}

// rollbackChain invokes rollback hooks in reverse dependency order. It
// returns the first rollback failure; remaining hooks still run so partial
// cleanup is not abandoned.
func (e *Engine) rollbackChain(ctx context.Context, chain []*registered, payload any, cause error) error {
	var firstErr error
	for i := len(chain) - 1; i >= 0; i-- {
		rule := chain[i]
		if rule.def.Rollback == nil {
			continue
		}
		if err := rule.def.Rollback(ctx, payload, cause); err != nil {
			e.log.Error("invariant rollback failed", "invariant", rule.def.ID, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("rollback %s: %w", rule.def.ID, err)
			}
		}
	}
	return firstErr
}

func (e *Engine) violation(rule *registered, phase Phase) error {
	if e.metrics != nil {
		e.metrics.Violations.WithLabelValues(rule.def.ID, string(rule.def.Criticality), string(phase)).Inc()
	}
	e.log.Warn("invariant violation",
		"invariant", rule.def.ID,
		"owner", rule.def.Owner,
		"criticality", string(rule.def.Criticality),
		"phase", string(phase),
	)
	return &ViolationError{
		RuleID:      rule.def.ID,
		Statement:   rule.def.Statement,
		Criticality: rule.def.Criticality,
		Phase:       phase,
	}
}

func (e *Engine) warn(rule *registered, phase Phase) {
	if e.metrics != nil {
		e.metrics.Violations.WithLabelValues(rule.def.ID, string(rule.def.Criticality), string(phase)).Inc()
	}
	e.log.Warn("invariant warn-level failure",
		"invariant", rule.def.ID,
		"owner", rule.def.Owner,
		"phase", string(phase),
	)
}

package invariant

import (
	"fmt"
	"sync"
	"time"
)

// Registry holds every rule by id and resolves dependency order. It is
// append-only after startup registration.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]*registered
}

// registered pairs a definition with its mutable verification bookkeeping.
type registered struct {
	def Definition

	mu           sync.Mutex
	lastVerified time.Time
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]*registered)}
}

// Register adds a rule. Duplicate ids and rules without a pre-check are
// configuration errors.
func (r *Registry) Register(def Definition) error {
	if def.ID == "" {
		return &ConfigError{RuleID: def.ID, Reason: "empty rule id"}
	}
	if def.PreCheck == nil {
		return &ConfigError{RuleID: def.ID, Reason: "rule has no pre-check"}
	}
	if def.Enforcement == "" {
		def.Enforcement = EnforcementBlock
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rules[def.ID]; exists {
		return &ConfigError{RuleID: def.ID, Reason: "duplicate registration"}
	}
	r.rules[def.ID] = &registered{def: def}
	return nil
}

// RegisterAll registers every definition, failing fast on the first error.
func (r *Registry) RegisterAll(defs ...Definition) error {
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks that every declared dependency exists and that the
// dependency graph is acyclic. Call it once after startup registration.
func (r *Registry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.rules))
	for id := range r.rules {
		ids = append(ids, id)
	}
	_, err := r.resolveLocked(ids)
	return err
}

// Resolve expands the requested ids into a deterministic, dependency-first
// execution order. Unknown ids and cycles are configuration errors.
func (r *Registry) Resolve(ids []string) ([]*registered, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolveLocked(ids)
}

func (r *Registry) resolveLocked(ids []string) ([]*registered, error) {
	const (
		unvisited = iota
		visiting
		done
	)

	state := make(map[string]int, len(ids))
	var order []*registered

	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case done:
			return nil
		case visiting:
			return &ConfigError{RuleID: id, Reason: "dependency cycle"}
		}
		rule, ok := r.rules[id]
		if !ok {
			return &ConfigError{RuleID: id, Reason: "unknown invariant id"}
		}
		state[id] = visiting
		for _, dep := range rule.def.Dependencies {
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[id] = done
		order = append(order, rule)
		return nil
	}

	for _, id := range ids {
		if err := visit(id); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// Get returns the definition for an id.
func (r *Registry) Get(id string) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[id]
	if !ok {
		return Definition{}, &ConfigError{RuleID: id, Reason: "unknown invariant id"}
	}
	return rule.def, nil
}

// IDs returns every registered rule id, unordered.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.rules))
	for id := range r.rules {
		ids = append(ids, id)
	}
	return ids
}

// markVerified stamps the rule's last successful verification.
func (reg *registered) markVerified(at time.Time) {
	reg.mu.Lock()
	reg.lastVerified = at
	reg.mu.Unlock()
}

// needsVerify reports whether the rule's verification has decayed.
func (reg *registered) needsVerify(now time.Time) bool {
	if reg.def.Verify == nil || reg.def.DecayWindow <= 0 {
		return false
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return now.Sub(reg.lastVerified) > reg.def.DecayWindow
}

func (reg *registered) String() string {
	return fmt.Sprintf("invariant(%s)", reg.def.ID)
}

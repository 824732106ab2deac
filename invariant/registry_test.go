package invariant

import (
	"context"
	"errors"
	"testing"
)

func passCheck(_ context.Context, _ any) (bool, error) { return true, nil }

func def(id string, deps ...string) Definition {
	return Definition{
		ID:           id,
		Statement:    "test rule " + id,
		Criticality:  CriticalityImportant,
		Enforcement:  EnforcementBlock,
		Dependencies: deps,
		PreCheck:     passCheck,
	}
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name   string
		def    Definition
		reason string
	}{
		{
			name:   "empty id",
			def:    Definition{PreCheck: passCheck},
			reason: "empty rule id",
		},
		{
			name:   "missing pre-check",
			def:    Definition{ID: "NO-CHECK"},
			reason: "rule has no pre-check",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRegistry()
			err := r.Register(tc.def)
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if cfgErr.Reason != tc.reason {
				t.Fatalf("expected reason %q, got %q", tc.reason, cfgErr.Reason)
			}
		})
	}
}

func TestRegister_Duplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(def("DUP")); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	err := r.Register(def("DUP"))
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Reason != "duplicate registration" {
		t.Fatalf("expected duplicate registration error, got %v", err)
	}
}

func TestRegister_DefaultEnforcementIsBlock(t *testing.T) {
	r := NewRegistry()
	d := def("NO-ENFORCEMENT")
	d.Enforcement = ""
	if err := r.Register(d); err != nil {
		t.Fatalf("register: %v", err)
	}
	got, err := r.Get("NO-ENFORCEMENT")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Enforcement != EnforcementBlock {
		t.Fatalf("expected default enforcement BLOCK, got %q", got.Enforcement)
	}
}

func TestResolve_DependencyOrder(t *testing.T) {
	r := NewRegistry()
	if err := r.RegisterAll(def("C"), def("B", "C"), def("A", "B")); err != nil {
		t.Fatalf("register: %v", err)
	}

	chain, err := r.Resolve([]string{"A"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	got := make([]string, 0, len(chain))
	for _, rule := range chain {
		got = append(got, rule.def.ID)
	}
	want := []string{"C", "B", "A"}
	if len(got) != len(want) {
		t.Fatalf("expected chain %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected chain %v, got %v", want, got)
		}
	}
}

func TestResolve_SharedDependencyRunsOnce(t *testing.T) {
	r := NewRegistry()
	if err := r.RegisterAll(def("BASE"), def("X", "BASE"), def("Y", "BASE")); err != nil {
		t.Fatalf("register: %v", err)
	}

	chain, err := r.Resolve([]string{"X", "Y"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(chain) != 3 {
		t.Fatalf("expected 3 rules in chain, got %d", len(chain))
	}
	if chain[0].def.ID != "BASE" {
		t.Fatalf("expected BASE first, got %s", chain[0].def.ID)
	}
}

func TestResolve_UnknownID(t *testing.T) {
	r := NewRegistry()
	_, err := r.Resolve([]string{"GHOST"})
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Reason != "unknown invariant id" {
		t.Fatalf("expected unknown id error, got %v", err)
	}
}

func TestValidate_DetectsCycle(t *testing.T) {
	r := NewRegistry()
	if err := r.RegisterAll(def("A", "B"), def("B", "A")); err != nil {
		t.Fatalf("register: %v", err)
	}
	err := r.Validate()
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Reason != "dependency cycle" {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestValidate_DetectsMissingDependency(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(def("A", "MISSING")); err != nil {
		t.Fatalf("register: %v", err)
	}
	err := r.Validate()
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

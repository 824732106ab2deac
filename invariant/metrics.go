package invariant

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes violation and freeze counters. Observational only; the
// engine behaves identically with a nil Metrics.
type Metrics struct {
	Violations *prometheus.CounterVec
	Freezes    prometheus.Counter
}

// NewMetrics registers the engine's counters with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Violations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mzigo_invariant_violations_total",
			Help: "Total invariant check failures by invariant id, criticality and phase",
		}, []string{"invariant", "criticality", "phase"}),
		Freezes: factory.NewCounter(prometheus.CounterOpts{
			Name: "mzigo_invariant_engine_freezes_total",
			Help: "Times the enforcement engine froze after a failed rollback",
		}),
	}
}

// Copyright 2025 AndeLabs. All rights reserved.
// See the file LICENSE for licensing terms.

package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors is the set of domain-specific Prometheus collectors this
// module registers alongside the Gatherer above (which mirrors whatever
// the execution engine publishes through github.com/luxfi/geth/metrics).
// Kept as plain prometheus.NewCounterVec/GaugeVec rather than routed
// through the geth Registry, since these counters belong to ANDE's own
// components, not the wrapped execution engine.
type Collectors struct {
	BreakerState       prometheus.Gauge
	InspectorRejections *prometheus.CounterVec
	ExecutorFallbacks  prometheus.Counter
	ExecutorRetries    prometheus.Counter
}

// NewCollectors constructs and registers every collector against reg.
func NewCollectors(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		BreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ande",
			Subsystem: "executor",
			Name:      "circuit_breaker_state",
			Help:      "Current circuit breaker state: 0=closed, 1=open, 2=half_open.",
		}),
		InspectorRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ande",
			Subsystem: "precompile",
			Name:      "inspector_rejections_total",
			Help:      "Count of native-transfer calls rejected by the precompile inspector, by reason.",
		}, []string{"reason"}),
		ExecutorFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ande",
			Subsystem: "executor",
			Name:      "sequential_fallbacks_total",
			Help:      "Count of blocks that fell back to sequential execution.",
		}),
		ExecutorRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ande",
			Subsystem: "executor",
			Name:      "tx_retries_total",
			Help:      "Count of speculative transaction re-executions due to validation conflicts.",
		}),
	}

	reg.MustRegister(c.BreakerState, c.InspectorRejections, c.ExecutorFallbacks, c.ExecutorRetries)
	return c
}

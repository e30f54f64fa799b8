// Package metrics exposes prometheus counters for draws, fallbacks and gateway calls.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sleeves"

type Metrics struct {
	registry *prometheus.Registry

	GatewayCalls *prometheus.CounterVec
	Fallbacks    *prometheus.CounterVec
	Draws        *prometheus.CounterVec
	LocalErrors  *prometheus.CounterVec
}

// New registers the collectors on a private registry so independent
// instances never collide.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		GatewayCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "calls_total",
			Help:      "Remote gateway calls by operation and outcome.",
		}, []string{"op", "outcome"}),
		Fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "facade",
			Name:      "fallbacks_total",
			Help:      "Operations served by the local path.",
		}, []string{"op"}),
		Draws: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reward",
			Name:      "draws_total",
			Help:      "Sleeve draws by rarity and path.",
		}, []string{"rarity", "path"}),
		LocalErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "facade",
			Name:      "local_errors_total",
			Help:      "Errors surfaced by the local path.",
		}, []string{"op"}),
	}

	m.registry.MustRegister(m.GatewayCalls, m.Fallbacks, m.Draws, m.LocalErrors)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

package audit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments for policy evaluation.
type Metrics struct {
	evaluations *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	duration    *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewMetrics creates a metrics instance backed by its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guard_evaluations_total",
				Help: "Total number of policy evaluations by policy and outcome",
			},
			[]string{"policy", "outcome"},
		),

		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guard_rejections_total",
				Help: "Total number of failed assertions by policy",
			},
			[]string{"policy"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "guard_evaluation_duration_seconds",
				Help:    "Policy condition evaluation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"policy"},
		),

		registry: registry,
	}

	registry.MustRegister(m.evaluations, m.rejections, m.duration)
	return m
}

// Registry exposes the underlying registry for scraping or test inspection.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) recordEvaluation(policy string, passed bool, elapsed time.Duration) {
	outcome := "pass"
	if !passed {
		outcome = "fail"
	}
	m.evaluations.WithLabelValues(policy, outcome).Inc()
	m.duration.WithLabelValues(policy).Observe(elapsed.Seconds())
}

func (m *Metrics) recordRejection(policy string) {
	m.rejections.WithLabelValues(policy).Inc()
}

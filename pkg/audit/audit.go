// Package audit instruments policy evaluation with structured logs and
// Prometheus metrics. It wraps the core guards without changing their
// semantics: results, rejections, and user-condition panics pass through
// untouched, and the core stays import-free of observability concerns.
package audit

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/polisai/polis-guard/pkg/policy"
)

// Recorder couples a logger with evaluation metrics.
type Recorder struct {
	logger  zerolog.Logger
	metrics *Metrics
}

// NewRecorder creates a recorder. A nil metrics instance gets its own
// registry.
func NewRecorder(logger zerolog.Logger, metrics *Metrics) *Recorder {
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Recorder{logger: logger, metrics: metrics}
}

// Metrics returns the recorder's metrics instance.
func (r *Recorder) Metrics() *Metrics {
	return r.metrics
}

// Check evaluates the policy, recording outcome and latency.
func Check[T any](r *Recorder, p *policy.Policy[T], v T) bool {
	start := time.Now()
	result := p.Check(v)
	r.observe(p.Name(), result, time.Since(start))
	return result
}

// Assert evaluates the policy; a rejection is counted and logged at warn
// level before being returned unchanged.
func Assert[T any](r *Recorder, p *policy.Policy[T], v T) error {
	start := time.Now()
	err := p.Assert(v)
	r.observe(p.Name(), err == nil, time.Since(start))

	if err != nil {
		r.metrics.recordRejection(p.Name())
		r.logger.Warn().
			Str("policy", p.Name()).
			Err(err).
			Msg("policy rejected")
	}
	return err
}

// Snapshot evaluates every probe through CheckAll semantics and logs the full
// result map under a single snapshot id, for permission summaries and
// diagnostics.
func Snapshot(r *Recorder, probes ...policy.Probe) map[string]bool {
	id := uuid.NewString()

	results := make(map[string]bool, len(probes))
	for _, probe := range probes {
		start := time.Now()
		result := probe.Run()
		r.observe(probe.Name(), result, time.Since(start))
		results[probe.Name()] = result
	}

	event := r.logger.Info().Str("snapshot_id", id)
	for name, result := range results {
		event = event.Bool(name, result)
	}
	event.Msg("policy snapshot")

	return results
}

func (r *Recorder) observe(name string, passed bool, elapsed time.Duration) {
	r.metrics.recordEvaluation(name, passed, elapsed)
	r.logger.Debug().
		Str("policy", name).
		Bool("pass", passed).
		Dur("elapsed", elapsed).
		Msg("policy evaluated")
}

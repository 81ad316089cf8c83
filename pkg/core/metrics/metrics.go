// Package metrics exposes Prometheus instrumentation for underwriting runs.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"deal_underwriting/pkg/core/valuation"
)

// Outcome labels for Projections.
const (
	OutcomeOK          = "ok"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
)

// Recorder holds the underwriting collectors. Register it once per registry.
type Recorder struct {
	Projections    *prometheus.CounterVec
	IRRUnavailable *prometheus.CounterVec
	Duration       *prometheus.HistogramVec
}

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		Projections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "underwriting",
			Name:      "projections_total",
			Help:      "Underwriting runs by outcome.",
		}, []string{"operation", "outcome"}),
		IRRUnavailable: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "underwriting",
			Name:      "irr_unavailable_total",
			Help:      "IRR results that did not converge or could not be computed.",
		}, []string{"kind"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "underwriting",
			Name:      "compute_duration_seconds",
			Help:      "Time spent computing underwriting results.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
		}, []string{"operation"}),
	}
	if reg != nil {
		reg.MustRegister(r.Projections, r.IRRUnavailable, r.Duration)
	}
	return r
}

// ObserveProjection records one Project call.
func (r *Recorder) ObserveProjection(res *valuation.Result, err error, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.Duration.WithLabelValues("project").Observe(elapsed.Seconds())

	switch {
	case errors.Is(err, valuation.ErrMissingBaseline):
		r.Projections.WithLabelValues("project", OutcomeUnavailable).Inc()
		return
	case err != nil:
		r.Projections.WithLabelValues("project", OutcomeError).Inc()
		return
	}

	r.Projections.WithLabelValues("project", OutcomeOK).Inc()
	if !res.Summary.UnleveredIRR.Available {
		r.IRRUnavailable.WithLabelValues("unlevered").Inc()
	}
	if !res.Summary.LeveredIRR.Available {
		r.IRRUnavailable.WithLabelValues("levered").Inc()
	}
}

// ObserveSensitivity records one grid evaluation.
func (r *Recorder) ObserveSensitivity(err error, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.Duration.WithLabelValues("sensitivity").Observe(elapsed.Seconds())
	outcome := OutcomeOK
	if errors.Is(err, valuation.ErrMissingBaseline) {
		outcome = OutcomeUnavailable
	} else if err != nil {
		outcome = OutcomeError
	}
	r.Projections.WithLabelValues("sensitivity", outcome).Inc()
}

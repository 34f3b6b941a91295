// Copyright © 2026 The tangolint authors

package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Run outcomes recorded by Metrics.
const (
	outcomeClean      = "clean"
	outcomeIssues     = "issues"
	outcomeFailed     = "failed"
	outcomeUnresolved = "unresolved"
	outcomeStale      = "stale"
)

// Metrics are the prometheus collectors of a pipeline.
type Metrics struct {
	Runs        *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
	Diagnostics *prometheus.GaugeVec
	Pending     prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg when it is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tangolint",
			Name:      "runs_total",
			Help:      "Analyzer runs by trigger and outcome.",
		}, []string{"trigger", "outcome"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tangolint",
			Name:      "run_duration_seconds",
			Help:      "Wall time of analyzer runs.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"trigger"}),
		Diagnostics: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "tangolint",
			Name:      "diagnostics",
			Help:      "Diagnostics currently held, by severity.",
		}, []string{"severity"}),
		Pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tangolint",
			Name:      "debounce_pending",
			Help:      "Documents with a pending change run.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Runs, m.Duration, m.Diagnostics, m.Pending)
	}
	return m
}

func (m *Metrics) observeRun(t Trigger, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(t.String(), outcome).Inc()
	if outcome != outcomeStale {
		m.Duration.WithLabelValues(t.String()).Observe(d.Seconds())
	}
}

func (m *Metrics) setPending(n int) {
	if m == nil {
		return
	}
	m.Pending.Set(float64(n))
}

func (m *Metrics) setTotals(errors, warnings, infos int) {
	if m == nil {
		return
	}
	m.Diagnostics.WithLabelValues("error").Set(float64(errors))
	m.Diagnostics.WithLabelValues("warning").Set(float64(warnings))
	m.Diagnostics.WithLabelValues("info").Set(float64(infos))
}

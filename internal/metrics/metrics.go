// Package metrics exposes Prometheus counters for analyses and feedback.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for analyses.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics holds the collectors of one server.
type Metrics struct {
	registry *prometheus.Registry

	analyses *prometheus.CounterVec
	feedback *prometheus.CounterVec
	scores   prometheus.Histogram
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cro",
			Name:      "analyses_total",
			Help:      "Page analyses by outcome.",
		}, []string{"outcome"}),
		feedback: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cro",
			Name:      "feedback_events_total",
			Help:      "Recorded feedback events by rating.",
		}, []string{"rating"}),
		scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cro",
			Name:      "run_score",
			Help:      "Aggregate score of scorable runs.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
	}
	reg.MustRegister(
		m.analyses,
		m.feedback,
		m.scores,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveAnalysis counts one analysis. score is nil for failed or unscorable runs.
func (m *Metrics) ObserveAnalysis(err error, score *float64) {
	if err != nil {
		m.analyses.WithLabelValues(OutcomeError).Inc()
		return
	}
	m.analyses.WithLabelValues(OutcomeOK).Inc()
	if score != nil {
		m.scores.Observe(*score)
	}
}

// ObserveFeedback counts one recorded feedback event.
func (m *Metrics) ObserveFeedback(rating int) {
	m.feedback.WithLabelValues(strconv.Itoa(rating)).Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

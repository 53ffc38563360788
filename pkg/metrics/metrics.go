// Package metrics defines the Prometheus collectors for batch runs. They live
// on a private registry so that several runs in one process (and tests) do
// not collide on the global one.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "billtrace"

// Record statuses.
const (
	StatusHighlighted = "highlighted"
	StatusUnmatched   = "unmatched"
	StatusSkipped     = "skipped"
	StatusFailed      = "failed"
)

// Metrics holds all collectors.
type Metrics struct {
	registry *prometheus.Registry

	RecordsTotal       *prometheus.CounterVec
	SpansFound         prometheus.Counter
	ComparisonDuration prometheus.Histogram
	Coverage           prometheus.Histogram
	RunsTotal          *prometheus.CounterVec
	LastRunTimestamp   prometheus.Gauge
	ReferenceAnchors   prometheus.Gauge
}

// New creates and registers all collectors, including the Go and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RecordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_total",
				Help:      "Candidate records processed, by status (highlighted, unmatched, skipped, failed).",
			},
			[]string{"status"},
		),
		SpansFound: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "spans_found_total",
				Help:      "Merged copied-language spans found across all records.",
			},
		),
		ComparisonDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "comparison_duration_seconds",
				Help:      "Time to normalize, match and render one candidate.",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
		),
		Coverage: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "coverage_ratio",
				Help:      "Fraction of each candidate's tokens inside a copied span.",
				Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
			},
		),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Batch runs, by result (success, error).",
			},
			[]string{"result"},
		),
		LastRunTimestamp: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the last batch run finished.",
			},
		),
		ReferenceAnchors: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "reference_anchors",
				Help:      "Distinct anchors in the current reference index.",
			},
		),
	}

	m.registry.MustRegister(
		m.RecordsTotal,
		m.SpansFound,
		m.ComparisonDuration,
		m.Coverage,
		m.RunsTotal,
		m.LastRunTimestamp,
		m.ReferenceAnchors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler for the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveComparison records one compared record. A nil Metrics is a no-op.
func (m *Metrics) ObserveComparison(status string, spans int, coverage float64, duration time.Duration) {
	if m == nil {
		return
	}
	m.RecordsTotal.WithLabelValues(status).Inc()
	m.SpansFound.Add(float64(spans))
	m.ComparisonDuration.Observe(duration.Seconds())
	if status != StatusFailed {
		m.Coverage.Observe(coverage)
	}
}

// ObserveSkipped counts records dropped before comparison.
func (m *Metrics) ObserveSkipped(count int) {
	if m == nil || count == 0 {
		return
	}
	m.RecordsTotal.WithLabelValues(StatusSkipped).Add(float64(count))
}

// ObserveRun records the end of a batch run.
func (m *Metrics) ObserveRun(err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.RunsTotal.WithLabelValues(result).Inc()
	m.LastRunTimestamp.SetToCurrentTime()
}

// SetReferenceAnchors records the size of the reference index.
func (m *Metrics) SetReferenceAnchors(count int) {
	if m == nil {
		return
	}
	m.ReferenceAnchors.Set(float64(count))
}

// WriteTextfile writes the current values in the text exposition format,
// for the node exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %s: %w", path, err)
	}
	return nil
}

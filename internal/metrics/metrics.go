// Package metrics records example check statistics in a Prometheus registry
// and writes them in the text exposition format, for collection by the node
// exporter's textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Check outcomes used as the "outcome" label.
const (
	OutcomePass    = "pass"
	OutcomeFail    = "fail"
	OutcomeTimeout = "timeout"
	OutcomeSkipped = "skipped"
)

// Metrics is one run's registry. The zero value is not usable; a nil
// *Metrics is, and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	examplesTotal  *prometheus.CounterVec
	checkDuration  *prometheus.HistogramVec
	cacheLookups   *prometheus.CounterVec
	graphNodes     *prometheus.GaugeVec
	graphEdges     *prometheus.GaugeVec
	diagnostics    *prometheus.GaugeVec
	lastRunSeconds prometheus.Gauge
}

// New creates a registry with every refgraph metric.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		examplesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "refgraph_examples_checked_total",
			Help: "Code examples checked, by dialect and outcome.",
		}, []string{"dialect", "outcome"}),
		checkDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "refgraph_example_check_duration_seconds",
			Help:    "Syntax check latency by backend.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		}, []string{"backend"}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "refgraph_cache_lookups_total",
			Help: "Example result cache lookups by result.",
		}, []string{"result"}),
		graphNodes: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "refgraph_graph_features",
			Help: "Features in the checked graph generation, by family.",
		}, []string{"family"}),
		graphEdges: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "refgraph_graph_edges",
			Help: "Edges in the checked graph generation, by type.",
		}, []string{"type"}),
		diagnostics: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "refgraph_diagnostics",
			Help: "Diagnostics of the last run, by severity.",
		}, []string{"severity"}),
		lastRunSeconds: f.NewGauge(prometheus.GaugeOpts{
			Name: "refgraph_last_run_timestamp_seconds",
			Help: "Unix time the metrics were last written.",
		}),
	}
}

// ObserveCheck records one example verdict.
func (m *Metrics) ObserveCheck(dialect, backend, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.examplesTotal.WithLabelValues(dialect, outcome).Inc()
	if outcome == OutcomePass || outcome == OutcomeFail {
		m.checkDuration.WithLabelValues(backend).Observe(took.Seconds())
	}
}

// CacheLookup records a cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// SetGraphSize records the size of the checked generation.
func (m *Metrics) SetGraphSize(nodesByFamily, edgesByType map[string]int) {
	if m == nil {
		return
	}
	for family, n := range nodesByFamily {
		m.graphNodes.WithLabelValues(family).Set(float64(n))
	}
	for typ, n := range edgesByType {
		m.graphEdges.WithLabelValues(typ).Set(float64(n))
	}
}

// SetDiagnostics records diagnostic counts by severity name.
func (m *Metrics) SetDiagnostics(bySeverity map[string]int) {
	if m == nil {
		return
	}
	for sev, n := range bySeverity {
		m.diagnostics.WithLabelValues(sev).Set(float64(n))
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// WriteFile writes every metric to path in the text format. The write is
// atomic, so a collector never reads a partial file.
func (m *Metrics) WriteFile(path string, now time.Time) error {
	if m == nil {
		return nil
	}
	m.lastRunSeconds.Set(float64(now.Unix()))
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics file: %w", err)
	}
	return nil
}

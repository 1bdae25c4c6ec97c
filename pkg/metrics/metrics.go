// Package metrics defines the Prometheus metric collectors used across the
// platform and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the platform.
type Metrics struct {
	RunsTotal          *prometheus.CounterVec
	RunDuration        *prometheus.HistogramVec
	IterationDuration  prometheus.Histogram
	ReassignmentsTotal prometheus.Counter
	EmptyClustersTotal *prometheus.CounterVec
	DocumentsLoaded    prometheus.Gauge
	ActiveClusters     prometheus.Gauge
	QualityScore       *prometheus.GaugeVec
	CorpusLoadDuration *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cluster_runs_total",
				Help: "Total clustering runs by outcome (completed, failed).",
			},
			[]string{"outcome"},
		),
		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cluster_run_duration_seconds",
				Help:    "End-to-end clustering run duration in seconds.",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 600},
			},
			[]string{"metric", "initializer"},
		),
		IterationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cluster_iteration_duration_seconds",
				Help:    "Duration of a single update+reassign pass in seconds.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
			},
		),
		ReassignmentsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cluster_reassignments_total",
				Help: "Total documents that changed cluster across all passes.",
			},
		),
		EmptyClustersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cluster_empty_events_total",
				Help: "Empty-cluster events by applied policy (freeze, reseed).",
			},
			[]string{"policy"},
		),
		DocumentsLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "corpus_documents_loaded",
				Help: "Number of documents in the loaded corpus.",
			},
		),
		ActiveClusters: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cluster_active_count",
				Help: "Number of non-empty clusters after the last pass.",
			},
		),
		QualityScore: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cluster_quality_score",
				Help: "Macro best-match F1 score of the last evaluated run.",
			},
			[]string{"metric", "initializer", "weighting"},
		),
		CorpusLoadDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "corpus_load_duration_seconds",
				Help:    "Corpus load duration in seconds by source.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 60},
			},
			[]string{"source"},
		),
	}

	prometheus.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.IterationDuration,
		m.ReassignmentsTotal,
		m.EmptyClustersTotal,
		m.DocumentsLoaded,
		m.ActiveClusters,
		m.QualityScore,
		m.CorpusLoadDuration,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

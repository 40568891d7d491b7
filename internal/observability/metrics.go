// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name when none is configured.
const DefaultNamespace = "price_tracker"

// Run statuses.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Ingestion metrics
	IngestionRuns     *prometheus.CounterVec
	IngestionDuration prometheus.Histogram
	SnapshotsInserted *prometheus.CounterVec
	DuplicateSkips    prometheus.Counter
	ProductsCreated   prometheus.Counter

	// Catalog metrics
	CatalogFetchLatency *prometheus.HistogramVec

	// Seeding and export metrics
	EventsSeeded      *prometheus.CounterVec
	SnapshotsExported prometheus.Counter

	// Health metrics
	LastSuccessfulIngestion prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered on reg.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	factory := promauto.With(reg)

	return &Metrics{
		IngestionRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "runs_total",
			Help:      "Total number of ingestion runs by status",
		}, []string{"status"}),
		IngestionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "duration_seconds",
			Help:      "Ingestion run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}),
		SnapshotsInserted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "snapshots_inserted_total",
			Help:      "Total number of price snapshots inserted by adjustment reason",
		}, []string{"reason"}),
		DuplicateSkips: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "duplicate_skips_total",
			Help:      "Total number of snapshots skipped because one already existed for the date",
		}),
		ProductsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "products_created_total",
			Help:      "Total number of products first seen in the catalog",
		}),

		CatalogFetchLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "fetch_latency_seconds",
			Help:      "Catalog fetch latency in seconds by status",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),

		EventsSeeded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "seed",
			Name:      "events_total",
			Help:      "Total number of seed events by outcome",
		}, []string{"outcome"}),
		SnapshotsExported: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "snapshots_total",
			Help:      "Total number of snapshots copied to the history mirror",
		}),

		LastSuccessfulIngestion: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_ingestion_timestamp",
			Help:      "Unix timestamp of last successful ingestion",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// NewMux serves /metrics from g and a plain /health probe.
func NewMux(g prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// RecordRun records a finished ingestion run.
func (m *Metrics) RecordRun(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.IngestionRuns.WithLabelValues(status).Inc()
	m.IngestionDuration.Observe(d.Seconds())
}

// RecordSnapshotsInserted counts inserted snapshots for an adjustment reason.
func (m *Metrics) RecordSnapshotsInserted(reason string, n int) {
	if m == nil {
		return
	}
	m.SnapshotsInserted.WithLabelValues(reason).Add(float64(n))
}

// RecordDuplicateSkips counts idempotence skips.
func (m *Metrics) RecordDuplicateSkips(n int) {
	if m == nil {
		return
	}
	m.DuplicateSkips.Add(float64(n))
}

// RecordProductsCreated counts new products.
func (m *Metrics) RecordProductsCreated(n int) {
	if m == nil {
		return
	}
	m.ProductsCreated.Add(float64(n))
}

// RecordCatalogFetch records catalog fetch latency.
func (m *Metrics) RecordCatalogFetch(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.CatalogFetchLatency.WithLabelValues(status).Observe(d.Seconds())
}

// RecordSeed records the outcome of an event seeding pass.
func (m *Metrics) RecordSeed(created, skipped int) {
	if m == nil {
		return
	}
	m.EventsSeeded.WithLabelValues("created").Add(float64(created))
	m.EventsSeeded.WithLabelValues("skipped").Add(float64(skipped))
}

// RecordExported counts snapshots copied to the history mirror.
func (m *Metrics) RecordExported(n int) {
	if m == nil {
		return
	}
	m.SnapshotsExported.Add(float64(n))
}

// MarkIngestionSuccess updates the last successful ingestion gauge.
func (m *Metrics) MarkIngestionSuccess(t time.Time) {
	if m == nil {
		return
	}
	m.LastSuccessfulIngestion.Set(float64(t.Unix()))
}

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "trends"

// Metrics holds the Prometheus counters, histograms, and gauges for
// acquisition and the read path.
type Metrics struct {
	// Source chain metrics.
	ProviderAttempts *prometheus.CounterVec   // labels: provider, outcome={success,empty,error,skipped}
	ProviderDuration *prometheus.HistogramVec // labels: provider
	Resolutions      *prometheus.CounterVec   // labels: provenance

	// Batch collection metrics.
	RegionsProcessed *prometheus.CounterVec // labels: outcome={success,failure}
	BatchDuration    prometheus.Histogram
	BatchRunning     prometheus.Gauge
	SnapshotUpserts  *prometheus.CounterVec // labels: outcome={success,error}
	PublishErrors    prometheus.Counter

	// Read path metrics.
	ViewReads *prometheus.CounterVec // labels: outcome={found,no_data,store_error}
	ViewCache *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ProviderAttempts,
		m.ProviderDuration,
		m.Resolutions,
		m.RegionsProcessed,
		m.BatchDuration,
		m.BatchRunning,
		m.SnapshotUpserts,
		m.PublishErrors,
		m.ViewReads,
		m.ViewCache,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ProviderAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_attempts_total",
			Help:      "Source provider attempts by provider and outcome.",
		}, []string{"provider", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_duration_seconds",
			Help:      "Duration of one provider attempt.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 15, 30, 45},
		}, []string{"provider"}),
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Resolved topic lists by provenance.",
		}, []string{"provenance"}),
		RegionsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "regions_processed_total",
			Help:      "Regions processed by the batch collector by outcome.",
		}, []string{"outcome"}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Duration of a complete collection batch.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		BatchRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "batch_running",
			Help:      "1 while a collection batch is in progress.",
		}),
		SnapshotUpserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_upserts_total",
			Help:      "Daily snapshot upserts by outcome.",
		}, []string{"outcome"}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_publish_errors_total",
			Help:      "Snapshot events that could not be published.",
		}),
		ViewReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_reads_total",
			Help:      "Window view reads by outcome.",
		}, []string{"outcome"}),
		ViewCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_cache_total",
			Help:      "Window view cache lookups by result.",
		}, []string{"result"}),
	}
}

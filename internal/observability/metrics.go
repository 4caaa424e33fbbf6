package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and gauges for the ingestion
// pipeline and extraction queue.
type Metrics struct {
	ArticlesFetched prometheus.Counter
	ArticlesSkipped *prometheus.CounterVec // labels: reason={duplicate,stale,stored}
	Extractions     *prometheus.CounterVec // labels: outcome={accepted,rejected,empty,failed}
	SourceErrors    prometheus.Counter
	QueueDepth      prometheus.Gauge
	CycleRunning    prometheus.Gauge
	CycleDuration   prometheus.Histogram
}

func newMetrics() *Metrics {
	return &Metrics{
		ArticlesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "iranisrael",
			Name:      "articles_fetched_total",
			Help:      "Total articles returned by the news source.",
		}),
		ArticlesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "iranisrael",
			Name:      "articles_skipped_total",
			Help:      "Articles dropped before extraction, by reason.",
		}, []string{"reason"}),
		Extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "iranisrael",
			Name:      "extractions_total",
			Help:      "Extraction attempts by outcome.",
		}, []string{"outcome"}),
		SourceErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "iranisrael",
			Name:      "source_errors_total",
			Help:      "Failed article-source queries.",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "iranisrael",
			Name:      "queue_depth",
			Help:      "Extraction requests currently queued.",
		}),
		CycleRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "iranisrael",
			Name:      "cycle_running",
			Help:      "1 while a fetch cycle is active.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "iranisrael",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete fetch cycle.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
	}
}

// NewMetrics creates and registers all metrics with the default registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ArticlesFetched,
		m.ArticlesSkipped,
		m.Extractions,
		m.SourceErrors,
		m.QueueDepth,
		m.CycleRunning,
		m.CycleDuration,
	)
	return m
}

// NewMetricsForTesting creates unregistered metrics so parallel tests do
// not trip "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

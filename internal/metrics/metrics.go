// Package metrics exposes Prometheus collectors for the crawl and
// extraction pipelines.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	crawlerPagesTotal        *prometheus.CounterVec
	crawlsTotal              *prometheus.CounterVec
	extractionsTotal         prometheus.Counter
	entitiesEmitted          prometheus.Gauge
	crawlDurationSeconds     prometheus.Histogram
	extractionDurationSecond prometheus.Histogram

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		crawlerPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "extractify_pages_total",
				Help: "Total number of pages handled by the crawler, labeled by outcome.",
			},
			[]string{"outcome"},
		)
		crawlsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "extractify_crawls_total",
				Help: "Total number of crawl runs, labeled by status.",
			},
			[]string{"status"},
		)
		extractionsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "extractify_extractions_total",
				Help: "Total number of extraction runs.",
			},
		)
		entitiesEmitted = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "extractify_entities_last_run",
				Help: "Entities emitted by the most recent extraction run.",
			},
		)
		crawlDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "extractify_crawl_duration_seconds",
				Help:    "Wall time of crawl runs.",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
			},
		)
		extractionDurationSecond = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "extractify_extraction_duration_seconds",
				Help:    "Wall time of extraction runs.",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
		)
	})
}

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordPage counts one crawled page by outcome ("ok" or "skipped").
func RecordPage(outcome string) {
	if crawlerPagesTotal != nil {
		crawlerPagesTotal.WithLabelValues(outcome).Inc()
	}
}

// RecordCrawl counts one finished crawl run by status.
func RecordCrawl(status string, seconds float64) {
	if crawlsTotal != nil {
		crawlsTotal.WithLabelValues(status).Inc()
	}
	if crawlDurationSeconds != nil {
		crawlDurationSeconds.Observe(seconds)
	}
}

// RecordExtraction counts one extraction run and its yield.
func RecordExtraction(entities int, seconds float64) {
	if extractionsTotal != nil {
		extractionsTotal.Inc()
	}
	if entitiesEmitted != nil {
		entitiesEmitted.Set(float64(entities))
	}
	if extractionDurationSecond != nil {
		extractionDurationSecond.Observe(seconds)
	}
}

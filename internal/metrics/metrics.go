// Package metrics exposes Prometheus collectors for the scraper service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	scraperEventsScrapedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_events_scraped_total",
			Help: "Total number of event tiles extracted, labeled by city.",
		},
		[]string{"city"},
	)

	scraperEventsSavedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_events_saved_total",
			Help: "Total number of events inserted into the store, labeled by city.",
		},
		[]string{"city"},
	)

	scraperEventsSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_events_skipped_total",
			Help: "Total number of events skipped, labeled by reason.",
		},
		[]string{"reason"},
	)

	scraperRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_runs_total",
			Help: "Total number of crawl runs, labeled by outcome.",
		},
		[]string{"status"},
	)

	scraperRunDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_run_duration_seconds",
			Help:    "Histogram of crawl run durations.",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
		},
	)

	scraperRunActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scraper_run_active",
			Help: "Whether a crawl run is currently in progress.",
		},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests, labeled by method and code.",
		},
		[]string{"method", "code"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)
)

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveEventsScraped adds to the per-city scraped counter.
func ObserveEventsScraped(city string, n int) {
	if n > 0 {
		scraperEventsScrapedTotal.WithLabelValues(city).Add(float64(n))
	}
}

// ObserveEventsSaved adds to the per-city saved counter.
func ObserveEventsSaved(city string, n int) {
	if n > 0 {
		scraperEventsSavedTotal.WithLabelValues(city).Add(float64(n))
	}
}

// ObserveEventSkipped increments the skip counter for the given reason.
func ObserveEventSkipped(reason string) {
	scraperEventsSkippedTotal.WithLabelValues(reason).Inc()
}

// ObserveRun records one finished run with its outcome and duration.
func ObserveRun(status string, duration time.Duration) {
	scraperRunsTotal.WithLabelValues(status).Inc()
	scraperRunDurationSeconds.Observe(duration.Seconds())
}

// SetRunActive flips the in-progress gauge.
func SetRunActive(active bool) {
	if active {
		scraperRunActive.Set(1)
		return
	}
	scraperRunActive.Set(0)
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

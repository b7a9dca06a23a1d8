// Package metrics exposes Prometheus collectors for the profile cache.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	cacheLookupsTotal        *prometheus.CounterVec
	fetchesTotal             *prometheus.CounterVec
	upsertsTotal             prometheus.Counter
	storageErrorsTotal       prometheus.Counter
	httpRequestsTotal        *prometheus.CounterVec
	httpRequestDurationSecs  *prometheus.HistogramVec
	rateLimitDelaysSeconds   *prometheus.HistogramVec
	fetchDurationSeconds     prometheus.Histogram

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		cacheLookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "profilevault_cache_lookups_total",
				Help: "Total cache lookups, labeled by outcome (hit, stale, miss, error).",
			},
			[]string{"outcome"},
		)

		fetchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "profilevault_fetches_total",
				Help: "Total external fetch attempts, labeled by outcome (ok, empty).",
			},
			[]string{"outcome"},
		)

		upsertsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "profilevault_upserts_total",
				Help: "Total successful profile upserts.",
			},
		)

		storageErrorsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "profilevault_storage_errors_total",
				Help: "Total storage failures absorbed by the cache layer.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSecs = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)

		rateLimitDelaysSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "profilevault_rate_limit_delays_seconds",
				Help:    "Histogram of rate limit wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"domain"},
		)

		fetchDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "profilevault_fetch_duration_seconds",
				Help:    "Histogram of external fetch latencies.",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveCacheLookup increments the lookup counter for the given outcome.
func ObserveCacheLookup(outcome string) {
	Init()
	cacheLookupsTotal.WithLabelValues(outcome).Inc()
}

// ObserveFetch records one external fetch attempt and its latency.
func ObserveFetch(outcome string, duration time.Duration) {
	Init()
	fetchesTotal.WithLabelValues(outcome).Inc()
	fetchDurationSeconds.Observe(duration.Seconds())
}

// ObserveUpsert increments the upsert counter.
func ObserveUpsert() {
	Init()
	upsertsTotal.Inc()
}

// ObserveStorageError increments the absorbed storage failure counter.
func ObserveStorageError() {
	Init()
	storageErrorsTotal.Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSecs.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(domain string, duration time.Duration) {
	Init()
	rateLimitDelaysSeconds.WithLabelValues(domain).Observe(duration.Seconds())
}

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics, labelled by the normalized route (see pathutil.NormalizePath).
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests served, by method, route and status code",
		},
		[]string{"method", "route", "code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Time to serve an HTTP request",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route"},
	)

	// HTTPBodyBytes observes request and response body sizes; direction is "in" or "out".
	HTTPBodyBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_body_size_bytes",
			Help:    "HTTP body size by direction",
			Buckets: prometheus.ExponentialBuckets(64, 4, 8),
		},
		[]string{"route", "direction"},
	)

	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Requests currently being served",
		},
	)
)

// Ingestion metrics
var (
	// NewsArticlesTotal tracks the number of stored articles
	NewsArticlesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "news_articles_total",
			Help: "Total number of news articles in the store",
		},
	)

	// IngestRunsTotal counts ingestion runs by result
	IngestRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "news_ingest_runs_total",
			Help: "Total number of ingestion runs",
		},
		[]string{"result"},
	)

	// IngestRunDuration measures a whole fetch-dedup-save cycle
	IngestRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "news_ingest_run_duration_seconds",
			Help:    "Time taken by one ingestion run",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)

	// IngestItemsTotal counts feed items by outcome
	IngestItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "news_ingest_items_total",
			Help: "Total number of feed items processed by outcome",
		},
		[]string{"outcome"}, // fetched, inserted, duplicated
	)

	// UpstreamRequestsTotal counts calls to the external feed by status class
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "news_upstream_requests_total",
			Help: "Total number of requests to the external news feed",
		},
		[]string{"feed", "status"},
	)

	// UpstreamRequestDuration measures the external feed latency
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "news_upstream_request_duration_seconds",
			Help:    "External news feed request duration in seconds",
			Buckets: []float64{0.1, 0.2, 0.4, 0.8, 1.6, 3.2, 6.4, 12.8, 25.6},
		},
		[]string{"feed"},
	)

	// PeriodQueriesTotal counts period lookups and whether they fell back to yesterday
	PeriodQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "news_period_queries_total",
			Help: "Total number of by-period queries",
		},
		[]string{"period", "day"}, // day: today, yesterday
	)
)

// Database metrics track database performance
var (
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)

	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)

// RecordHTTPRequest records one served request. Zero sizes are skipped.
func RecordHTTPRequest(method, route string, code int, took time.Duration, inBytes, outBytes int) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(took.Seconds())

	for dir, n := range map[string]int{"in": inBytes, "out": outBytes} {
		if n > 0 {
			HTTPBodyBytes.WithLabelValues(route, dir).Observe(float64(n))
		}
	}
}

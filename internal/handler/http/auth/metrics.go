package auth

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tokenRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_token_requests_total",
			Help: "POST /auth/token outcomes",
		},
		[]string{"outcome"}, // issued | bad_request | rejected | error
	)

	tokenLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "auth_token_duration_seconds",
			Help:    "Time to answer a token request",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
	)

	adminChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_admin_checks_total",
			Help: "Bearer token checks on write routes by result and method",
		},
		[]string{"result", "method"}, // allowed | unauthorized | forbidden
	)
)

func observeToken(outcome string, start time.Time) {
	tokenRequests.WithLabelValues(outcome).Inc()
	tokenLatency.Observe(time.Since(start).Seconds())
}

func observeAdminCheck(result, method string) {
	adminChecks.WithLabelValues(result, method).Inc()
}

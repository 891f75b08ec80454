package worker

import (
	"newsparser/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Job run statuses.
const (
	StatusStarted = "started"
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusSkipped = "skipped"
)

// WorkerMetrics holds the worker's Prometheus collectors.
type WorkerMetrics struct {
	*config.ConfigMetrics

	// CronJobRunsTotal counts runs by status.
	CronJobRunsTotal *prometheus.CounterVec

	CronJobDurationSeconds prometheus.Histogram

	// CronJobArticlesIngestedTotal counts articles persisted by scheduled runs.
	CronJobArticlesIngestedTotal prometheus.Counter

	CronJobLastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics creates the collectors on reg. Pass
// prometheus.DefaultRegisterer in main and a fresh registry (or nil) in tests.
func NewWorkerMetrics(reg prometheus.Registerer) *WorkerMetrics {
	f := promauto.With(reg)
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker", reg),

		CronJobRunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_cron_job_runs_total",
			Help: "Total number of cron job runs by status (started/success/failure/skipped)",
		}, []string{"status"}),

		CronJobDurationSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_cron_job_duration_seconds",
			Help:    "Duration of cron job execution in seconds",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 300},
		}),

		CronJobArticlesIngestedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "worker_cron_job_articles_ingested_total",
			Help: "Total number of articles persisted across all cron job runs",
		}),

		CronJobLastSuccessTimestamp: f.NewGauge(prometheus.GaugeOpts{
			Name: "worker_cron_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful cron job run",
		}),
	}
}

func (m *WorkerMetrics) RecordJobRun(status string) {
	m.CronJobRunsTotal.WithLabelValues(status).Inc()
}

func (m *WorkerMetrics) RecordJobDuration(seconds float64) {
	m.CronJobDurationSeconds.Observe(seconds)
}

func (m *WorkerMetrics) RecordArticlesIngested(count int) {
	m.CronJobArticlesIngestedTotal.Add(float64(count))
}

func (m *WorkerMetrics) RecordLastSuccess() {
	m.CronJobLastSuccessTimestamp.SetToCurrentTime()
}

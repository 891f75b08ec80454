package worker

import (
	"context"
	"log/slog"
	"time"

	"newsparser/internal/domain/entity"
	"newsparser/internal/handler/http/respond"
	"newsparser/internal/usecase/ingest"
)

// Ingester runs one ingestion pass. ingest.Service implements it.
type Ingester interface {
	RunWithStats(ctx context.Context) ([]*entity.Article, *ingest.RunStats, error)
}

// IngestJob is the scheduled unit of work.
type IngestJob struct {
	ingester Ingester
	timeout  time.Duration
	metrics  *WorkerMetrics
	logger   *slog.Logger
}

func NewIngestJob(ingester Ingester, timeout time.Duration, metrics *WorkerMetrics, logger *slog.Logger) *IngestJob {
	return &IngestJob{
		ingester: ingester,
		timeout:  timeout,
		metrics:  metrics,
		logger:   logger,
	}
}

// Run executes one ingestion with the configured timeout. Failures are
// logged and counted; the next scheduled run tries again.
func (j *IngestJob) Run() {
	j.RunContext(context.Background())
}

// RunContext is Run with a parent context. It reports whether the run succeeded.
func (j *IngestJob) RunContext(parent context.Context) bool {
	start := time.Now()
	j.metrics.RecordJobRun(StatusStarted)
	j.logger.Info("ingestion started")

	ctx, cancel := context.WithTimeout(parent, j.timeout)
	defer cancel()

	_, stats, err := j.ingester.RunWithStats(ctx)
	j.metrics.RecordJobDuration(time.Since(start).Seconds())
	if err != nil {
		j.logger.Error("ingestion failed", slog.String("error", respond.SanitizeError(err)))
		j.metrics.RecordJobRun(StatusFailure)
		return false
	}

	j.metrics.RecordJobRun(StatusSuccess)
	j.metrics.RecordArticlesIngested(stats.Inserted)
	j.metrics.RecordLastSuccess()

	j.logger.Info("scheduled ingestion finished",
		slog.Int("inserted", stats.Inserted),
		slog.Duration("elapsed", time.Since(start)))
	return true
}

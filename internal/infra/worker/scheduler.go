package worker

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// NewScheduler registers job on cfg.CronSchedule in cfg.Timezone. A run that
// is still in progress when the next tick fires causes that tick to be
// skipped and counted.
func NewScheduler(cfg WorkerConfig, job *IngestJob, logger *slog.Logger) (*cron.Cron, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	cl := cronLogger{logger: logger, onSkip: func() { job.metrics.RecordJobRun(StatusSkipped) }}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	if _, err := c.AddJob(cfg.CronSchedule, job); err != nil {
		return nil, fmt.Errorf("add cron job: %w", err)
	}
	return c, nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
	onSkip func()
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	if msg == "skip" && l.onSkip != nil {
		l.onSkip()
		l.logger.Warn("previous ingestion still running, skipping tick")
		return
	}
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, slog.Any("error", err))...)
}

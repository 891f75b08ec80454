package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"newsparser/internal/pkg/config"
)

// WorkerConfig holds the worker process settings.
type WorkerConfig struct {
	// CronSchedule is a five-field cron expression.
	CronSchedule string

	// Timezone the schedule is evaluated in (IANA name).
	Timezone string

	// IngestTimeout bounds one ingestion run.
	IngestTimeout time.Duration

	// HealthPort serves /health, /health/ready and /metrics.
	HealthPort int

	// RunOnStart triggers one ingestion as soon as the scheduler starts.
	RunOnStart bool
}

func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		CronSchedule:  "*/20 * * * *", // every 20 minutes
		Timezone:      "UTC",
		IngestTimeout: 5 * time.Minute,
		HealthPort:    9091,
		RunOnStart:    false,
	}
}

func (c *WorkerConfig) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateDuration(c.IngestTimeout, 10*time.Second, time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("ingest timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %w", errors.Join(errs...))
	}
	return nil
}

// LoadConfigFromEnv reads the worker settings. Invalid values fall back to
// the defaults with a warning; the returned config always validates.
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	var cm *config.ConfigMetrics
	if metrics != nil {
		cm = metrics.ConfigMetrics
	}

	var fallback, applied bool

	cfg.CronSchedule, applied = config.Report(
		config.LoadEnvWithFallback("CRON_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule),
		"cron_schedule", logger, cm)
	fallback = fallback || applied

	cfg.Timezone, applied = config.Report(
		config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone),
		"timezone", logger, cm)
	fallback = fallback || applied

	cfg.IngestTimeout, applied = config.Report(
		config.LoadEnvDuration("INGEST_TIMEOUT", cfg.IngestTimeout, func(d time.Duration) error {
			return config.ValidateDuration(d, 10*time.Second, time.Hour)
		}),
		"ingest_timeout", logger, cm)
	fallback = fallback || applied

	cfg.HealthPort, applied = config.Report(
		config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
			return config.ValidateIntRange(v, 1024, 65535)
		}),
		"health_port", logger, cm)
	fallback = fallback || applied

	cfg.RunOnStart, applied = config.Report(
		config.LoadEnvBool("RUN_ON_START", cfg.RunOnStart),
		"run_on_start", logger, cm)
	fallback = fallback || applied

	if cm != nil {
		cm.SetFallbackActive(fallback)
		cm.RecordLoadTimestamp()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

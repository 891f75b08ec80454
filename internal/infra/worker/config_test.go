package worker

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func clearWorkerEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"CRON_SCHEDULE", "WORKER_TIMEZONE", "INGEST_TIMEOUT", "WORKER_HEALTH_PORT", "RUN_ON_START"} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.CronSchedule != "*/20 * * * *" {
		t.Errorf("Expected CronSchedule '*/20 * * * *', got '%s'", config.CronSchedule)
	}
	if config.Timezone != "UTC" {
		t.Errorf("Expected Timezone 'UTC', got '%s'", config.Timezone)
	}
	if config.IngestTimeout != 5*time.Minute {
		t.Errorf("Expected IngestTimeout 5m, got %v", config.IngestTimeout)
	}
	if config.HealthPort != 9091 {
		t.Errorf("Expected HealthPort 9091, got %d", config.HealthPort)
	}
	if config.RunOnStart {
		t.Error("Expected RunOnStart false")
	}
	if err := config.Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestWorkerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*WorkerConfig)
		wantErr string
	}{
		{"valid", func(c *WorkerConfig) {}, ""},
		{"bad cron", func(c *WorkerConfig) { c.CronSchedule = "every minute" }, "cron schedule"},
		{"bad timezone", func(c *WorkerConfig) { c.Timezone = "Mars/Base" }, "timezone"},
		{"timeout too short", func(c *WorkerConfig) { c.IngestTimeout = time.Second }, "ingest timeout"},
		{"privileged port", func(c *WorkerConfig) { c.HealthPort = 80 }, "health port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestWorkerConfig_Validate_CollectsAllErrors(t *testing.T) {
	cfg := WorkerConfig{CronSchedule: "", Timezone: "", IngestTimeout: 0, HealthPort: 0}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"cron schedule", "timezone", "ingest timeout", "health port"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	clearWorkerEnv(t)
	metrics := NewWorkerMetrics(nil)

	cfg, err := LoadConfigFromEnv(slog.Default(), metrics)
	if err != nil {
		t.Fatalf("LoadConfigFromEnv() error = %v", err)
	}
	if *cfg != DefaultConfig() {
		t.Errorf("cfg = %+v, want defaults", *cfg)
	}
	if got := testutil.ToFloat64(metrics.FallbackActive); got != 0 {
		t.Errorf("fallback_active = %v, want 0", got)
	}
	if got := testutil.ToFloat64(metrics.LoadTimestamp); got <= 0 {
		t.Errorf("load timestamp = %v, want > 0", got)
	}
}

func TestLoadConfigFromEnv_CustomValues(t *testing.T) {
	clearWorkerEnv(t)
	t.Setenv("CRON_SCHEDULE", "0 * * * *")
	t.Setenv("WORKER_TIMEZONE", "Asia/Tokyo")
	t.Setenv("INGEST_TIMEOUT", "2m")
	t.Setenv("WORKER_HEALTH_PORT", "9200")
	t.Setenv("RUN_ON_START", "true")

	cfg, err := LoadConfigFromEnv(slog.Default(), NewWorkerMetrics(nil))
	if err != nil {
		t.Fatalf("LoadConfigFromEnv() error = %v", err)
	}

	want := WorkerConfig{
		CronSchedule:  "0 * * * *",
		Timezone:      "Asia/Tokyo",
		IngestTimeout: 2 * time.Minute,
		HealthPort:    9200,
		RunOnStart:    true,
	}
	if *cfg != want {
		t.Errorf("cfg = %+v, want %+v", *cfg, want)
	}
}

func TestLoadConfigFromEnv_InvalidValuesFallBack(t *testing.T) {
	clearWorkerEnv(t)
	t.Setenv("CRON_SCHEDULE", "invalid cron")
	t.Setenv("WORKER_TIMEZONE", "Invalid/Zone")
	t.Setenv("INGEST_TIMEOUT", "forever")
	t.Setenv("WORKER_HEALTH_PORT", "80")

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	metrics := NewWorkerMetrics(nil)

	cfg, err := LoadConfigFromEnv(logger, metrics)
	if err != nil {
		t.Fatalf("LoadConfigFromEnv() error = %v", err)
	}
	if *cfg != DefaultConfig() {
		t.Errorf("cfg = %+v, want defaults after fallback", *cfg)
	}

	if got := testutil.ToFloat64(metrics.FallbackActive); got != 1 {
		t.Errorf("fallback_active = %v, want 1", got)
	}
	for _, field := range []string{"cron_schedule", "timezone", "ingest_timeout", "health_port"} {
		if got := testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues(field)); got != 1 {
			t.Errorf("fallbacks_total{field=%q} = %v, want 1", field, got)
		}
	}

	logs := buf.String()
	if c := strings.Count(logs, "Configuration fallback applied"); c != 4 {
		t.Errorf("fallback warnings logged = %d, want 4\n%s", c, logs)
	}
	if !strings.Contains(logs, "invalid cron") {
		t.Errorf("warning should mention the rejected value\n%s", logs)
	}
}

func TestLoadConfigFromEnv_NilMetrics(t *testing.T) {
	clearWorkerEnv(t)
	t.Setenv("CRON_SCHEDULE", "bad")

	cfg, err := LoadConfigFromEnv(slog.Default(), nil)
	if err != nil {
		t.Fatalf("LoadConfigFromEnv() error = %v", err)
	}
	if cfg.CronSchedule != "*/20 * * * *" {
		t.Errorf("CronSchedule = %q, want default", cfg.CronSchedule)
	}
}

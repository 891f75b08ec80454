package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"newsparser/internal/config"
	"newsparser/internal/infra/adapter/persistence/postgres"
	"newsparser/internal/infra/adapter/persistence/sqlite"
	"newsparser/internal/infra/db"
	"newsparser/internal/infra/feedclient"
	workerPkg "newsparser/internal/infra/worker"
	"newsparser/internal/observability/logging"
	pkgconfig "newsparser/internal/pkg/config"
	"newsparser/internal/repository"
	"newsparser/internal/usecase/ingest"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	database, driver := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load worker configuration (fail-open strategy)
	workerMetrics := workerPkg.NewWorkerMetrics(prometheus.DefaultRegisterer)
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", workerConfig.CronSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Duration("ingest_timeout", workerConfig.IngestTimeout),
		slog.Int("health_port", workerConfig.HealthPort),
		slog.Bool("run_on_start", workerConfig.RunOnStart))

	svc := setupIngestService(logger, database, driver)

	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	healthServer.ReadyCheck = database.PingContext
	go func() {
		if err := healthServer.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	job := workerPkg.NewIngestJob(svc, workerConfig.IngestTimeout, workerMetrics, logger)
	runScheduler(ctx, logger, job, *workerConfig, healthServer)
}

// initDatabase opens the database connection and applies the schema.
func initDatabase(logger *slog.Logger) (*sql.DB, string) {
	database, driver, err := db.Open(context.Background(), logger)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	if err := db.MigrateUp(database, driver); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}
	return database, driver
}

// setupIngestService builds the pipeline. Unlike the API, the worker has no
// use without a feed, so a bad feed configuration stops the process.
func setupIngestService(logger *slog.Logger, database *sql.DB, driver string) *ingest.Service {
	cfg, err := config.Load(logger, pkgconfig.NewConfigMetrics("feed", prometheus.DefaultRegisterer))
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	feed, err := feedclient.New(cfg.Feed)
	if err != nil {
		logger.Error("invalid news feed configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("news feed configured", slog.String("type", cfg.Feed.Type))

	var repo repository.ArticleRepository
	if driver == db.DriverSQLite {
		repo = sqlite.NewArticleRepo(database)
	} else {
		repo = postgres.NewArticleRepo(database)
	}
	return ingest.NewService(repo, feed)
}

// runScheduler blocks until ctx is canceled, then waits for a running
// ingestion to finish.
func runScheduler(ctx context.Context, logger *slog.Logger, job *workerPkg.IngestJob, cfg workerPkg.WorkerConfig, healthServer *workerPkg.HealthServer) {
	c, err := workerPkg.NewScheduler(cfg, job, logger)
	if err != nil {
		logger.Error("failed to create scheduler", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.RunOnStart {
		logger.Info("running initial ingestion")
		job.RunContext(ctx)
	}

	c.Start()
	healthServer.SetReady(true)
	logger.Info("worker started",
		slog.String("schedule", cfg.CronSchedule),
		slog.String("timezone", cfg.Timezone))

	<-ctx.Done()
	healthServer.SetReady(false)
	logger.Info("shutting down worker...")

	// 実行中のジョブの完了を待つ
	select {
	case <-c.Stop().Done():
		logger.Info("worker stopped")
	case <-time.After(cfg.IngestTimeout):
		logger.Warn("ingestion still running at shutdown, exiting anyway")
	}
}

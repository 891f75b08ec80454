package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net"
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
	"newsparser/internal/observability/logging"
	"newsparser/internal/observability/tracing"
	pkgconfig "newsparser/internal/pkg/config"
	"newsparser/internal/repository"

	artUC "newsparser/internal/usecase/article"
	"newsparser/internal/usecase/ingest"
	"newsparser/internal/usecase/period"

	hhttp "newsparser/internal/handler/http"
	hauth "newsparser/internal/handler/http/auth"
	"newsparser/internal/handler/http/middleware"
	"newsparser/internal/handler/http/news"
	"newsparser/internal/handler/http/requestid"
)

const (
	addr           = ":8080"
	requestTimeout = 30 * time.Second
	maxBodyBytes   = 1 << 20 // 1MB
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	shutdownTracing := tracing.Init()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Error("failed to shut down tracer provider", slog.Any("error", err))
		}
	}()

	cfg, err := config.Load(logger, pkgconfig.NewConfigMetrics("api", prometheus.DefaultRegisterer))
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	authCfg := buildAuthConfig(logger, cfg.Auth)

	database, driver := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	corsCfg, err := middleware.LoadCORSConfig()
	if err != nil {
		logger.Error("failed to load CORS configuration", slog.Any("error", err))
		os.Exit(1)
	}
	corsCfg.Logger = logger
	if corsCfg.Enabled() {
		logger.Info("CORS enabled", slog.Any("allowed_origins", corsCfg.AllowedOrigins))
	}

	// レート制限: 認証エンドポイントは1分間に5リクエストまで
	authLimiter := middleware.NewRateLimiter("auth", 5, time.Minute)
	stopCleanup := make(chan struct{})
	defer close(stopCleanup)
	authLimiter.StartCleanup(5*time.Minute, stopCleanup)

	handler := setupServer(logger, database, driver, cfg, authCfg, getVersion(), authLimiter)
	if corsCfg.Enabled() {
		handler = middleware.CORS(corsCfg)(handler)
	}
	runServer(logger, handler)
}

// buildAuthConfig validates the admin credentials when JWT_SECRET is set.
// Without a secret the mutating routes are open and a warning is logged.
func buildAuthConfig(logger *slog.Logger, a config.AuthConfig) hauth.Config {
	if !a.Enabled() {
		logger.Warn("JWT_SECRET is not set: write routes are NOT protected")
		return hauth.Config{}
	}
	if err := hauth.ValidateSecret([]byte(a.JWTSecret)); err != nil {
		logger.Error("JWT_SECRET validation failed", slog.Any("error", err))
		os.Exit(1)
	}
	if err := hauth.ValidateAdminCredentials(a.AdminUser, a.AdminPassword); err != nil {
		logger.Error("admin credentials validation failed", slog.Any("error", err))
		os.Exit(1)
	}
	return hauth.Config{
		Secret:        []byte(a.JWTSecret),
		AdminUser:     a.AdminUser,
		AdminPassword: a.AdminPassword,
		TokenTTL:      a.TokenTTL,
	}
}

// initDatabase opens the database connection and runs migrations.
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

func newArticleRepo(database *sql.DB, driver string) repository.ArticleRepository {
	if driver == db.DriverSQLite {
		return sqlite.NewArticleRepo(database)
	}
	return postgres.NewArticleRepo(database)
}

// getVersion returns the application version from environment or default.
func getVersion() string {
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	return version
}

// setupServer wires the routes and the middleware chain.
func setupServer(
	logger *slog.Logger,
	database *sql.DB,
	driver string,
	cfg *config.Config,
	authCfg hauth.Config,
	version string,
	authLimiter *middleware.RateLimiter,
) http.Handler {
	repo := newArticleRepo(database, driver)

	loc, err := cfg.Period.Location()
	if err != nil {
		logger.Error("invalid period timezone, using UTC", slog.Any("error", err))
		loc = time.UTC
	}

	// フィード設定が不正でも API 自体は起動し、/news/external だけ 503 を返す
	var ingester news.Ingester
	feed, feedErr := feedclient.New(cfg.Feed)
	if feedErr != nil {
		logger.Warn("news feed disabled", slog.Any("error", feedErr))
	} else {
		ingester = ingest.NewService(repo, feed)
		logger.Info("news feed configured", slog.String("type", cfg.Feed.Type))
	}

	mux := http.NewServeMux()
	mux.Handle("POST /auth/token", authLimiter.Middleware(hauth.TokenHandler(authCfg, logger)))
	mux.Handle("GET /health", &hhttp.HealthHandler{DB: database, Version: version, FeedError: feedErr})
	mux.Handle("GET /ready", &hhttp.ReadyHandler{DB: database})
	mux.Handle("GET /live", hhttp.LiveHandler{})
	mux.Handle("GET /metrics", hhttp.MetricsHandler())

	news.Register(mux, news.Deps{
		Articles: &artUC.Service{Repo: repo},
		Periods:  period.NewResolver(repo, loc),
		Ingest:   ingester,
		Logger:   logger,
	}, hauth.RequireAdmin(authCfg))

	// 先頭が最も外側
	return hhttp.Chain(mux,
		requestid.Middleware,
		tracing.Middleware,
		hhttp.Logging(logger),
		hhttp.Recover(logger),
		hhttp.MetricsMiddleware,
		hhttp.InputValidation(hhttp.DefaultInputLimits()),
		hhttp.LimitRequestBody(maxBodyBytes),
		hhttp.Timeout(requestTimeout, "/news/external"),
	)
}

// runServer starts the HTTP server and handles graceful shutdown.
func runServer(logger *slog.Logger, handler http.Handler) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second, // Slowloris 対策
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	cancel()
	logger.Info("server stopped")
}

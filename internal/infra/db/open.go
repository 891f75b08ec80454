// Package db opens the article database and applies its schema.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	pkgconfig "newsparser/internal/pkg/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Supported database/sql driver names.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite3"
)

const defaultSQLiteDSN = "file:newsparser.db?_busy_timeout=5000"

// ConnectionConfig sizes the database/sql pool.
type ConnectionConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

// DriverFromEnv maps DATABASE_DRIVER to a registered driver name. Anything
// other than sqlite means postgres.
func DriverFromEnv() string {
	switch os.Getenv("DATABASE_DRIVER") {
	case "sqlite", DriverSQLite:
		return DriverSQLite
	default:
		return DriverPostgres
	}
}

// Open connects using DATABASE_DRIVER and DATABASE_URL. SQLite falls back to
// a local file when DATABASE_URL is empty; postgres requires it.
func Open(ctx context.Context, logger *slog.Logger) (*sql.DB, string, error) {
	driver := DriverFromEnv()
	dsn := os.Getenv("DATABASE_URL")
	switch {
	case dsn != "":
	case driver == DriverSQLite:
		dsn = defaultSQLiteDSN
	default:
		return nil, driver, errors.New("DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	conn, err := OpenDSN(ctx, driver, dsn, connectionConfigFromEnv(logger))
	if err != nil {
		return nil, driver, err
	}
	logger.Info("database connected", slog.String("driver", driver))
	return conn, driver, nil
}

// OpenDSN opens a pool and pings it. SQLite is pinned to one connection so
// that writers serialize and ":memory:" stays a single database.
func OpenDSN(ctx context.Context, driver, dsn string, cfg ConnectionConfig) (*sql.DB, error) {
	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		cfg.MaxOpenConns, cfg.MaxIdleConns = 1, 1
	}
	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	conn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return conn, nil
}

// connectionConfigFromEnv reads the DB_* pool variables. Invalid values keep
// the default and are logged.
func connectionConfigFromEnv(logger *slog.Logger) ConnectionConfig {
	def := DefaultConnectionConfig()
	positive := func(n int) error {
		if n <= 0 {
			return errors.New("must be positive")
		}
		return nil
	}

	var cfg ConnectionConfig
	cfg.MaxOpenConns, _ = pkgconfig.Report(pkgconfig.LoadEnvInt("DB_MAX_OPEN_CONNS", def.MaxOpenConns, positive), "DB_MAX_OPEN_CONNS", logger, nil)
	cfg.MaxIdleConns, _ = pkgconfig.Report(pkgconfig.LoadEnvInt("DB_MAX_IDLE_CONNS", def.MaxIdleConns, positive), "DB_MAX_IDLE_CONNS", logger, nil)
	cfg.ConnMaxLifetime, _ = pkgconfig.Report(pkgconfig.LoadEnvDuration("DB_CONN_MAX_LIFETIME", def.ConnMaxLifetime, pkgconfig.ValidatePositiveDuration), "DB_CONN_MAX_LIFETIME", logger, nil)
	cfg.ConnMaxIdleTime, _ = pkgconfig.Report(pkgconfig.LoadEnvDuration("DB_CONN_MAX_IDLE_TIME", def.ConnMaxIdleTime, pkgconfig.ValidatePositiveDuration), "DB_CONN_MAX_IDLE_TIME", logger, nil)

	logger.Debug("database pool configured",
		slog.Int("max_open_conns", cfg.MaxOpenConns),
		slog.Int("max_idle_conns", cfg.MaxIdleConns),
		slog.Duration("conn_max_lifetime", cfg.ConnMaxLifetime),
		slog.Duration("conn_max_idle_time", cfg.ConnMaxIdleTime))
	return cfg
}

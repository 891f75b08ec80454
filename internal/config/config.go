// Package config assembles the application configuration. Values come from
// built-in defaults, then an optional YAML file named by NEWSPARSER_CONFIG,
// then environment variables. Invalid environment values fall back to the
// file or default value with a logged warning.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	pkgconfig "newsparser/internal/pkg/config"

	"gopkg.in/yaml.v3"
)

// Feed types.
const (
	FeedTypeNewsAPI = "newsapi"
	FeedTypeRSS     = "rss"
)

// FileEnvKey names the environment variable holding the YAML file path.
const FileEnvKey = "NEWSPARSER_CONFIG"

type Config struct {
	Feed   FeedConfig   `yaml:"feed"`
	Period PeriodConfig `yaml:"period"`
	Auth   AuthConfig   `yaml:"auth"`
}

type FeedConfig struct {
	Type    string        `yaml:"type"`
	NewsAPI NewsAPIConfig `yaml:"newsapi"`
	RSS     RSSConfig     `yaml:"rss"`
}

type NewsAPIConfig struct {
	BaseURL           string        `yaml:"base_url"`
	APIKey            string        `yaml:"api_key"`
	Country           string        `yaml:"country"`
	Category          string        `yaml:"category"`
	PageSize          int           `yaml:"page_size"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	// MaxAttempts of 1 disables retries.
	MaxAttempts int `yaml:"max_attempts"`
}

type RSSConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
	// MaxAttempts of 1 disables retries.
	MaxAttempts int `yaml:"max_attempts"`
}

// PeriodConfig configures the reference zone for period queries.
type PeriodConfig struct {
	Timezone string `yaml:"timezone"`
}

// AuthConfig controls the admin token. Secrets are read from the
// environment only.
type AuthConfig struct {
	JWTSecret     string        `yaml:"-"`
	AdminUser     string        `yaml:"admin_user"`
	AdminPassword string        `yaml:"-"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Feed: FeedConfig{
			Type: FeedTypeNewsAPI,
			NewsAPI: NewsAPIConfig{
				BaseURL:           "https://newsapi.org",
				Country:           "us",
				Timeout:           30 * time.Second,
				RequestsPerSecond: 1,
				MaxAttempts:       1,
			},
			RSS: RSSConfig{Timeout: 30 * time.Second, MaxAttempts: 1},
		},
		Period: PeriodConfig{Timezone: "UTC"},
		Auth: AuthConfig{
			AdminUser: "admin",
			TokenTTL:  time.Hour,
		},
	}
}

// Load builds the configuration. It fails only when NEWSPARSER_CONFIG names
// a file that cannot be read or parsed; everything else is fail-open.
// metrics may be nil.
func Load(logger *slog.Logger, metrics *pkgconfig.ConfigMetrics) (*Config, error) {
	cfg := Default()

	if path := os.Getenv(FileEnvKey); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
		if logger != nil {
			logger.Info("configuration file loaded", slog.String("path", path))
		}
	}

	fallback := cfg.applyEnv(logger, metrics)

	if metrics != nil {
		metrics.SetFallbackActive(fallback)
		metrics.RecordLoadTimestamp()
	}
	return &cfg, nil
}

// mergeFile decodes the YAML file on top of cfg. Keys absent from the file
// keep their current value; unknown keys are rejected.
func (c *Config) mergeFile(path string) error {
	// #nosec G304 -- path comes from the operator's environment
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv(logger *slog.Logger, m *pkgconfig.ConfigMetrics) bool {
	var fallback bool
	track := func(applied bool) {
		fallback = fallback || applied
	}

	var applied bool

	c.Feed.Type, applied = pkgconfig.Report(
		pkgconfig.LoadEnvWithFallback("FEED_TYPE", c.Feed.Type, pkgconfig.OneOf(FeedTypeNewsAPI, FeedTypeRSS)),
		"feed_type", logger, m)
	track(applied)
	c.Feed.Type = strings.ToLower(c.Feed.Type)

	na := &c.Feed.NewsAPI
	na.APIKey = pkgconfig.LoadEnvString("NEWSAPI_KEY", na.APIKey)
	na.Category = pkgconfig.LoadEnvString("NEWSAPI_CATEGORY", na.Category)

	na.BaseURL, applied = pkgconfig.Report(
		pkgconfig.LoadEnvWithFallback("NEWSAPI_BASE_URL", na.BaseURL, pkgconfig.ValidateAbsoluteURL),
		"newsapi_base_url", logger, m)
	track(applied)

	na.Country, applied = pkgconfig.Report(
		pkgconfig.LoadEnvWithFallback("NEWSAPI_COUNTRY", na.Country, validateCountry),
		"newsapi_country", logger, m)
	track(applied)

	na.PageSize, applied = pkgconfig.Report(
		pkgconfig.LoadEnvInt("NEWSAPI_PAGE_SIZE", na.PageSize, func(v int) error {
			return pkgconfig.ValidateIntRange(v, 0, 100)
		}),
		"newsapi_page_size", logger, m)
	track(applied)

	na.Timeout, applied = pkgconfig.Report(
		pkgconfig.LoadEnvDuration("NEWSAPI_TIMEOUT", na.Timeout, func(d time.Duration) error {
			return pkgconfig.ValidateDuration(d, time.Second, 5*time.Minute)
		}),
		"newsapi_timeout", logger, m)
	track(applied)

	na.RequestsPerSecond, applied = pkgconfig.Report(
		pkgconfig.LoadEnvFloat("NEWSAPI_RATE_LIMIT", na.RequestsPerSecond, func(v float64) error {
			return pkgconfig.ValidateFloatRange(v, 0.01, 100)
		}),
		"newsapi_rate_limit", logger, m)
	track(applied)

	na.MaxAttempts, applied = pkgconfig.Report(
		pkgconfig.LoadEnvInt("NEWSAPI_MAX_ATTEMPTS", na.MaxAttempts, func(v int) error {
			return pkgconfig.ValidateIntRange(v, 1, 10)
		}),
		"newsapi_max_attempts", logger, m)
	track(applied)

	c.Feed.RSS.URL, applied = pkgconfig.Report(
		pkgconfig.LoadEnvWithFallback("FEED_URL", c.Feed.RSS.URL, pkgconfig.ValidateAbsoluteURL),
		"feed_url", logger, m)
	track(applied)

	c.Feed.RSS.MaxAttempts, applied = pkgconfig.Report(
		pkgconfig.LoadEnvInt("FEED_MAX_ATTEMPTS", c.Feed.RSS.MaxAttempts, func(v int) error {
			return pkgconfig.ValidateIntRange(v, 1, 10)
		}),
		"feed_max_attempts", logger, m)
	track(applied)

	c.Period.Timezone, applied = pkgconfig.Report(
		pkgconfig.LoadEnvWithFallback("PERIOD_TIMEZONE", c.Period.Timezone, pkgconfig.ValidateTimezone),
		"period_timezone", logger, m)
	track(applied)

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.AdminPassword = os.Getenv("ADMIN_USER_PASSWORD")
	c.Auth.AdminUser = pkgconfig.LoadEnvString("ADMIN_USER", c.Auth.AdminUser)

	c.Auth.TokenTTL, applied = pkgconfig.Report(
		pkgconfig.LoadEnvDuration("JWT_TOKEN_TTL", c.Auth.TokenTTL, func(d time.Duration) error {
			return pkgconfig.ValidateDuration(d, time.Minute, 24*time.Hour)
		}),
		"jwt_token_ttl", logger, m)
	track(applied)

	return fallback
}

func validateCountry(v string) error {
	if len(v) != 2 {
		return fmt.Errorf("country must be a two-letter ISO 3166-1 code")
	}
	return nil
}

// Validate reports a feed configuration that cannot fetch anything.
func (f FeedConfig) Validate() error {
	switch f.Type {
	case FeedTypeNewsAPI:
		if f.NewsAPI.APIKey == "" {
			return errors.New("NEWSAPI_KEY is required when FEED_TYPE=newsapi")
		}
		return pkgconfig.ValidateAbsoluteURL(f.NewsAPI.BaseURL)
	case FeedTypeRSS:
		if f.RSS.URL == "" {
			return errors.New("FEED_URL is required when FEED_TYPE=rss")
		}
		return pkgconfig.ValidateAbsoluteURL(f.RSS.URL)
	default:
		return fmt.Errorf("unknown feed type %q", f.Type)
	}
}

// Location loads the configured zone.
func (p PeriodConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil, fmt.Errorf("period timezone: %w", err)
	}
	return loc, nil
}

// Enabled reports whether mutating routes require a token.
func (a AuthConfig) Enabled() bool {
	return a.JWTSecret != ""
}

package newsapi

import (
	"errors"
	"net/url"
	"time"

	"newsparser/internal/resilience/circuitbreaker"
	"newsparser/internal/resilience/retry"
)

const (
	// DefaultBaseURL is the public NewsAPI endpoint.
	DefaultBaseURL = "https://newsapi.org"
	// DefaultCountry is the country requested when none is configured.
	DefaultCountry = "us"
	// DefaultTimeout bounds one top-headlines request.
	DefaultTimeout = 30 * time.Second

	topHeadlinesPath = "/v2/top-headlines"
	maxPageSize      = 100
)

// Config holds everything the client needs. It is passed at construction;
// the package keeps no global state.
type Config struct {
	BaseURL  string
	APIKey   string
	Country  string
	Category string
	// PageSize is omitted from the request when zero.
	PageSize int
	Timeout  time.Duration

	// RequestsPerSecond and Burst configure the outbound limiter.
	RequestsPerSecond float64
	Burst             int

	Retry   retry.Config
	Breaker circuitbreaker.Config
}

// DefaultConfig returns a configuration with every default filled in except
// the API key.
func DefaultConfig() Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		Country:           DefaultCountry,
		Timeout:           DefaultTimeout,
		RequestsPerSecond: 1,
		Burst:             1,
		Retry:             retry.NewsAPIConfig(),
		Breaker:           circuitbreaker.NewsAPIConfig(),
	}
}

// Validate reports configuration that cannot produce a request.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("newsapi: API key is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("newsapi: base URL must be an absolute URL")
	}
	if c.PageSize < 0 || c.PageSize > maxPageSize {
		return errors.New("newsapi: page size must be between 0 and 100")
	}
	return nil
}

// withDefaults fills zero values so a partially populated Config still works.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.BaseURL == "" {
		c.BaseURL = def.BaseURL
	}
	if c.Country == "" {
		c.Country = def.Country
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = def.RequestsPerSecond
	}
	if c.Burst <= 0 {
		c.Burst = def.Burst
	}
	if c.Retry == (retry.Config{}) {
		c.Retry = def.Retry
	}
	if c.Breaker.Name == "" {
		c.Breaker = def.Breaker
	}
	return c
}

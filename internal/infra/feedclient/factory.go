// Package feedclient selects the ingest.FeedClient named by the feed
// configuration.
package feedclient

import (
	"fmt"

	"newsparser/internal/config"
	"newsparser/internal/infra/newsapi"
	"newsparser/internal/infra/scraper"
	"newsparser/internal/resilience/retry"
	"newsparser/internal/usecase/ingest"
)

// New builds the client for cfg.Type after validating cfg.
func New(cfg config.FeedConfig) (ingest.FeedClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("feed config: %w", err)
	}

	switch cfg.Type {
	case config.FeedTypeRSS:
		rc := scraper.NewRSSClient(cfg.RSS.URL, newsapi.NewHTTPClient(cfg.RSS.Timeout))
		return rc.WithRetry(retryPolicy(retry.FeedFetchConfig(), cfg.RSS.MaxAttempts)), nil
	default:
		nc := newsapi.DefaultConfig()
		nc.BaseURL = cfg.NewsAPI.BaseURL
		nc.APIKey = cfg.NewsAPI.APIKey
		nc.Country = cfg.NewsAPI.Country
		nc.Category = cfg.NewsAPI.Category
		nc.PageSize = cfg.NewsAPI.PageSize
		nc.Timeout = cfg.NewsAPI.Timeout
		nc.RequestsPerSecond = cfg.NewsAPI.RequestsPerSecond
		nc.Retry = retryPolicy(retry.NewsAPIConfig(), cfg.NewsAPI.MaxAttempts)
		if err := nc.Validate(); err != nil {
			return nil, err
		}
		return newsapi.NewClient(nc, nil), nil
	}
}

// retryPolicy is base with MaxAttempts raised to attempts. Values below two
// leave base, a single attempt, in place.
func retryPolicy(base retry.Config, attempts int) retry.Config {
	if attempts > 1 {
		base.MaxAttempts = attempts
	}
	return base
}

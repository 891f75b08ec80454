// Package scraper provides an RSS/Atom implementation of ingest.FeedClient.
// It uses the gofeed library to parse feed content with reliability patterns.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"newsparser/internal/observability/metrics"
	"newsparser/internal/resilience/circuitbreaker"
	"newsparser/internal/resilience/retry"
	"newsparser/internal/usecase/ingest"

	"github.com/mmcdole/gofeed"
)

const userAgent = "NewsparserBot/1.0"

// RSSClient reads a single RSS/Atom feed and presents it as top headlines.
// It includes circuit breaker and retry logic for improved reliability.
type RSSClient struct {
	feedURL        string
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	now            func() time.Time
}

// NewRSSClient creates an RSSClient for feedURL using the given HTTP client.
func NewRSSClient(feedURL string, client *http.Client) *RSSClient {
	return &RSSClient{
		feedURL:        feedURL,
		client:         client,
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retryConfig:    retry.FeedFetchConfig(),
		now:            time.Now,
	}
}

// WithRetry replaces the retry configuration.
func (f *RSSClient) WithRetry(cfg retry.Config) *RSSClient {
	f.retryConfig = cfg
	return f
}

// FetchTopHeadlines retrieves and parses the feed. Every item's published
// time is reformatted as RFC 3339 so the result matches the NewsAPI client.
func (f *RSSClient) FetchTopHeadlines(ctx context.Context) (*ingest.FeedResult, error) {
	var result *ingest.FeedResult

	retryErr := retry.WithBackoff(ctx, f.retryConfig, func() error {
		cbResult, err := f.circuitBreaker.Execute(func() (interface{}, error) {
			return f.doFetch(ctx)
		})
		if err != nil {
			if circuitbreaker.Rejected(err) {
				slog.Warn("feed fetch circuit breaker open, request rejected",
					slog.String("service", "feed-fetch"),
					slog.String("url", f.feedURL),
					slog.String("state", f.circuitBreaker.State().String()))
				return fmt.Errorf("%w: %w", ingest.ErrUpstreamUnavailable, err)
			}
			return err
		}

		result = cbResult.(*ingest.FeedResult)
		return nil
	})
	if retryErr != nil {
		return nil, retryErr
	}
	return result, nil
}

// doFetch performs the actual feed fetch without retry or circuit breaker.
func (f *RSSClient) doFetch(ctx context.Context) (*ingest.FeedResult, error) {
	start := time.Now()

	fp := gofeed.NewParser()
	fp.UserAgent = userAgent
	fp.Client = f.client

	feed, err := fp.ParseURLWithContext(f.feedURL, ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			metrics.RecordUpstreamRequest("rss", httpErr.StatusCode, time.Since(start))
			return nil, fmt.Errorf("%w: %w", ingest.ErrUpstreamUnavailable,
				&retry.HTTPError{StatusCode: httpErr.StatusCode, Message: httpErr.Status})
		}
		metrics.RecordUpstreamRequest("rss", 0, time.Since(start))
		return nil, fmt.Errorf("%w: %w", ingest.ErrTransport, err)
	}
	metrics.RecordUpstreamRequest("rss", http.StatusOK, time.Since(start))

	items := make([]ingest.FeedItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		items = append(items, ingest.FeedItem{
			Title:       it.Title,
			Description: it.Description,
			PublishedAt: f.publishedAt(it).Format(time.RFC3339),
		})
	}

	return &ingest.FeedResult{
		Status:       "ok",
		TotalResults: len(items),
		Items:        items,
	}, nil
}

// publishedAt falls back to the updated time, then to the fetch time, for
// items that carry no date.
func (f *RSSClient) publishedAt(it *gofeed.Item) time.Time {
	switch {
	case it.PublishedParsed != nil:
		return *it.PublishedParsed
	case it.UpdatedParsed != nil:
		return *it.UpdatedParsed
	default:
		return f.now()
	}
}

// Package newsapi is the top-headlines client for newsapi.org. It implements
// ingest.FeedClient.
package newsapi

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"newsparser/internal/observability/metrics"
	"newsparser/internal/resilience/circuitbreaker"
	"newsparser/internal/resilience/retry"
	"newsparser/internal/usecase/ingest"

	"golang.org/x/time/rate"
)

const (
	feedName        = "newsapi"
	maxErrorBodyLen = 512
	userAgent       = "newsparser/1.0"
)

// Client calls the NewsAPI top-headlines endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
	limiter    *rate.Limiter
}

// NewClient builds a Client. A nil httpClient gets NewHTTPClient(cfg.Timeout).
func NewClient(cfg Config, httpClient *http.Client) *Client {
	cfg = cfg.withDefaults()
	if httpClient == nil {
		httpClient = NewHTTPClient(cfg.Timeout)
	}
	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		breaker:    circuitbreaker.New(cfg.Breaker),
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}
}

// NewHTTPClient returns an http.Client for upstream calls. TLS 1.2+ is enforced.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}

// response is the subset of the top-headlines payload the pipeline reads.
// Everything else in the body is ignored.
type response struct {
	Status       string    `json:"status"`
	TotalResults int       `json:"totalResults"`
	Articles     []article `json:"articles"`
	Code         string    `json:"code"`
	Message      string    `json:"message"`
}

type article struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	PublishedAt string  `json:"publishedAt"`
}

// FetchTopHeadlines performs one GET against /v2/top-headlines.
//
// Non-2xx answers wrap ingest.ErrUpstreamUnavailable together with a
// *retry.HTTPError. Network failures, timeouts and undecodable bodies wrap
// ingest.ErrTransport.
func (c *Client) FetchTopHeadlines(ctx context.Context) (*ingest.FeedResult, error) {
	var result *ingest.FeedResult

	err := retry.WithBackoff(ctx, c.cfg.Retry, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: rate limiter: %w", ingest.ErrTransport, err)
		}

		v, err := c.breaker.Execute(func() (interface{}, error) {
			return c.doFetch(ctx)
		})
		if err != nil {
			if circuitbreaker.Rejected(err) {
				slog.Warn("newsapi circuit breaker rejected request",
					slog.String("state", c.breaker.State().String()))
				return fmt.Errorf("%w: %w", ingest.ErrUpstreamUnavailable, err)
			}
			return err
		}

		result = v.(*ingest.FeedResult)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) doFetch(ctx context.Context) (*ingest.FeedResult, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ingest.ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(feedName, 0, time.Since(start))
		return nil, fmt.Errorf("%w: %w", ingest.ErrTransport, c.redact(err))
	}
	defer func() { _ = resp.Body.Close() }()

	metrics.RecordUpstreamRequest(feedName, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %w", ingest.ErrUpstreamUnavailable, upstreamError(resp))
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ingest.ErrTransport, err)
	}
	if body.Status == "error" {
		return nil, fmt.Errorf("%w: %w", ingest.ErrUpstreamUnavailable,
			&retry.HTTPError{StatusCode: resp.StatusCode, Message: errorMessage(body)})
	}

	items := make([]ingest.FeedItem, 0, len(body.Articles))
	for _, a := range body.Articles {
		item := ingest.FeedItem{
			Title:       a.Title,
			PublishedAt: a.PublishedAt,
		}
		if a.Description != nil {
			item.Description = *a.Description
		}
		items = append(items, item)
	}

	slog.Debug("newsapi top headlines fetched",
		slog.Int("items", len(items)),
		slog.Int("total_results", body.TotalResults),
		slog.Duration("duration", time.Since(start)))

	return &ingest.FeedResult{
		Status:       body.Status,
		TotalResults: body.TotalResults,
		Items:        items,
	}, nil
}

func (c *Client) requestURL() string {
	q := url.Values{}
	q.Set("country", c.cfg.Country)
	q.Set("apiKey", c.cfg.APIKey)
	if c.cfg.Category != "" {
		q.Set("category", c.cfg.Category)
	}
	if c.cfg.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(c.cfg.PageSize))
	}
	return strings.TrimRight(c.cfg.BaseURL, "/") + topHeadlinesPath + "?" + q.Encode()
}

// redact removes the API key from the URL embedded in *url.Error values.
func (c *Client) redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) && c.cfg.APIKey != "" {
		uerr.URL = strings.ReplaceAll(uerr.URL, url.QueryEscape(c.cfg.APIKey), "****")
	}
	return err
}

func upstreamError(resp *http.Response) *retry.HTTPError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))

	msg := strings.TrimSpace(string(raw))
	var body response
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		msg = errorMessage(body)
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &retry.HTTPError{StatusCode: resp.StatusCode, Message: msg, RetryAfter: retryAfter(resp.Header.Get("Retry-After"))}
}

// retryAfter reads a delay-seconds Retry-After value. HTTP dates are ignored.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func errorMessage(body response) string {
	if body.Code == "" {
		return body.Message
	}
	return body.Code + ": " + body.Message
}

package newsapi_test

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"newsparser/internal/infra/newsapi"
	"newsparser/internal/resilience/retry"
	"newsparser/internal/usecase/ingest"

	"github.com/google/go-cmp/cmp"
)

/* ───────── ヘルパ ───────── */

func newClient(t *testing.T, srv *httptest.Server, mutate func(*newsapi.Config)) *newsapi.Client {
	t.Helper()
	cfg := newsapi.DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.APIKey = "test-key-123"
	cfg.RequestsPerSecond = 1000
	cfg.Burst = 10
	if mutate != nil {
		mutate(&cfg)
	}
	return newsapi.NewClient(cfg, srv.Client())
}

func jsonServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

/* ───────── テスト ───────── */

func TestFetchTopHeadlines_Success(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, `{
		"status": "ok",
		"totalResults": 2,
		"articles": [
			{"source": {"id": null, "name": "Example"}, "author": "A", "title": "First",
			 "description": "one", "url": "https://example.com/1", "publishedAt": "2024-03-01T10:00:00Z"},
			{"title": "Second", "description": "two", "publishedAt": "2024-03-01T11:30:00+02:00", "content": "..."}
		]
	}`)

	got, err := newClient(t, srv, nil).FetchTopHeadlines(context.Background())
	if err != nil {
		t.Fatalf("FetchTopHeadlines() error = %v", err)
	}

	want := &ingest.FeedResult{
		Status:       "ok",
		TotalResults: 2,
		Items: []ingest.FeedItem{
			{Title: "First", Description: "one", PublishedAt: "2024-03-01T10:00:00Z"},
			{Title: "Second", Description: "two", PublishedAt: "2024-03-01T11:30:00+02:00"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchTopHeadlines_NullDescription(t *testing.T) {
	srv := jsonServer(t, http.StatusOK,
		`{"status":"ok","totalResults":1,"articles":[{"title":"T","description":null,"publishedAt":"2024-03-01T10:00:00Z"}]}`)

	got, err := newClient(t, srv, nil).FetchTopHeadlines(context.Background())
	if err != nil {
		t.Fatalf("FetchTopHeadlines() error = %v", err)
	}
	if len(got.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(got.Items))
	}
	if got.Items[0].Description != "" {
		t.Errorf("Description = %q, want empty", got.Items[0].Description)
	}
}

func TestFetchTopHeadlines_EmptyArticles(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, `{"status":"ok","totalResults":0,"articles":[]}`)

	got, err := newClient(t, srv, nil).FetchTopHeadlines(context.Background())
	if err != nil {
		t.Fatalf("FetchTopHeadlines() error = %v", err)
	}
	if len(got.Items) != 0 {
		t.Errorf("items = %d, want 0", len(got.Items))
	}
}

func TestFetchTopHeadlines_RequestParameters(t *testing.T) {
	var gotPath string
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		_, _ = w.Write([]byte(`{"status":"ok","totalResults":0,"articles":[]}`))
	}))
	defer srv.Close()

	c := newClient(t, srv, func(cfg *newsapi.Config) {
		cfg.Country = "gb"
		cfg.Category = "technology"
		cfg.PageSize = 50
	})
	if _, err := c.FetchTopHeadlines(context.Background()); err != nil {
		t.Fatalf("FetchTopHeadlines() error = %v", err)
	}

	if gotPath != "/v2/top-headlines" {
		t.Errorf("path = %q, want /v2/top-headlines", gotPath)
	}
	want := map[string]string{
		"country":  "gb",
		"apiKey":   "test-key-123",
		"category": "technology",
		"pageSize": "50",
	}
	if diff := cmp.Diff(want, gotQuery); diff != "" {
		t.Errorf("query mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchTopHeadlines_DefaultsOmitOptionalParameters(t *testing.T) {
	var rawQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"status":"ok","totalResults":0,"articles":[]}`))
	}))
	defer srv.Close()

	if _, err := newClient(t, srv, nil).FetchTopHeadlines(context.Background()); err != nil {
		t.Fatalf("FetchTopHeadlines() error = %v", err)
	}
	if rawQuery != "apiKey=test-key-123&country=us" {
		t.Errorf("query = %q, want apiKey=test-key-123&country=us", rawQuery)
	}
}

func TestFetchTopHeadlines_Non2xx(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"server error", http.StatusInternalServerError, `oops`, "oops"},
		{"unauthorized", http.StatusUnauthorized,
			`{"status":"error","code":"apiKeyInvalid","message":"Your API key is invalid."}`,
			"apiKeyInvalid: Your API key is invalid."},
		{"rate limited", http.StatusTooManyRequests, ``, "Too Many Requests"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := jsonServer(t, tt.status, tt.body)

			got, err := newClient(t, srv, nil).FetchTopHeadlines(context.Background())
			if got != nil {
				t.Errorf("result = %+v, want nil", got)
			}
			if !errors.Is(err, ingest.ErrUpstreamUnavailable) {
				t.Fatalf("err = %v, want ErrUpstreamUnavailable", err)
			}
			if errors.Is(err, ingest.ErrTransport) {
				t.Errorf("err = %v, must not be ErrTransport", err)
			}
			var httpErr *retry.HTTPError
			if !errors.As(err, &httpErr) {
				t.Fatalf("err = %v, want *retry.HTTPError in chain", err)
			}
			if httpErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", httpErr.StatusCode, tt.status)
			}
			if httpErr.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", httpErr.Message, tt.wantMsg)
			}
		})
	}
}

func TestFetchTopHeadlines_RetryAfterHint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	_, err := newClient(t, srv, nil).FetchTopHeadlines(context.Background())

	var httpErr *retry.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("err = %v, want *retry.HTTPError in chain", err)
	}
	if httpErr.RetryAfter != 2*time.Minute {
		t.Errorf("RetryAfter = %v, want 2m", httpErr.RetryAfter)
	}
}

func TestFetchTopHeadlines_ErrorStatusInBody(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, `{"status":"error","code":"unexpectedError","message":"boom"}`)

	_, err := newClient(t, srv, nil).FetchTopHeadlines(context.Background())
	if !errors.Is(err, ingest.ErrUpstreamUnavailable) {
		t.Fatalf("err = %v, want ErrUpstreamUnavailable", err)
	}
}

func TestFetchTopHeadlines_MalformedJSON(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, `{"status":"ok","articles":[{"title":`)

	_, err := newClient(t, srv, nil).FetchTopHeadlines(context.Background())
	if !errors.Is(err, ingest.ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
}

func TestFetchTopHeadlines_ServerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c := newClient(t, srv, nil)
	srv.Close()

	_, err := c.FetchTopHeadlines(context.Background())
	if !errors.Is(err, ingest.ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
	if strings.Contains(err.Error(), "test-key-123") {
		t.Errorf("error leaks API key: %v", err)
	}
}

func TestFetchTopHeadlines_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	cfg := newsapi.DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.APIKey = "k"
	c := newsapi.NewClient(cfg, &http.Client{Timeout: 50 * time.Millisecond})

	_, err := c.FetchTopHeadlines(context.Background())
	if !errors.Is(err, ingest.ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
}

func TestFetchTopHeadlines_NoRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newClient(t, srv, nil).FetchTopHeadlines(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestFetchTopHeadlines_RetryWhenEnabled(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if calls.Load() == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok","totalResults":0,"articles":[]}`))
	}))
	defer srv.Close()

	c := newClient(t, srv, func(cfg *newsapi.Config) {
		cfg.Retry = retry.Config{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
	})
	if _, err := c.FetchTopHeadlines(context.Background()); err != nil {
		t.Fatalf("FetchTopHeadlines() error = %v", err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("calls = %d, want 2", n)
	}
}

func TestFetchTopHeadlines_CircuitOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newClient(t, srv, nil)
	for range 3 {
		_, _ = c.FetchTopHeadlines(context.Background())
	}

	_, err := c.FetchTopHeadlines(context.Background())
	if !errors.Is(err, ingest.ErrUpstreamUnavailable) {
		t.Fatalf("err = %v, want ErrUpstreamUnavailable", err)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("calls = %d, want 3 (fourth call short-circuited)", n)
	}
}

func TestFetchTopHeadlines_CanceledContext(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, `{"status":"ok","articles":[]}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newClient(t, srv, nil).FetchTopHeadlines(ctx)
	if !errors.Is(err, ingest.ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*newsapi.Config)
		wantErr bool
	}{
		{"valid", func(c *newsapi.Config) { c.APIKey = "k" }, false},
		{"missing key", func(c *newsapi.Config) {}, true},
		{"relative base url", func(c *newsapi.Config) { c.APIKey = "k"; c.BaseURL = "newsapi.org" }, true},
		{"page size too large", func(c *newsapi.Config) { c.APIKey = "k"; c.PageSize = 101 }, true},
		{"negative page size", func(c *newsapi.Config) { c.APIKey = "k"; c.PageSize = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newsapi.DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewHTTPClient_EnforcesTLS12(t *testing.T) {
	c := newsapi.NewHTTPClient(0)
	if c.Timeout != newsapi.DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", c.Timeout, newsapi.DefaultTimeout)
	}
	tr, ok := c.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("Transport = %T, want *http.Transport", c.Transport)
	}
	if tr.TLSClientConfig == nil || tr.TLSClientConfig.MinVersion != tls.VersionTLS12 {
		t.Errorf("TLS MinVersion not 1.2")
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestLimiter(name string, requests int, window time.Duration) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)}
	l := NewRateLimiter(name, requests, window)
	l.now = clock.now
	return l, clock
}

func hit(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/auth/token", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_BurstThenReject(t *testing.T) {
	l, _ := newTestLimiter("test_burst", 3, time.Minute)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, hit(h, "10.0.0.1:5000").Code, "request %d", i)
	}

	rec := hit(h, "10.0.0.1:5001")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "20", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"too many requests"}`, rec.Body.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(rateLimitRejections.WithLabelValues("test_burst")))

	// 別クライアントは独立
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2:5000").Code)
}

func TestRateLimiter_Refills(t *testing.T) {
	l, clock := newTestLimiter("test_refill", 2, time.Minute)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

	hit(h, "10.0.0.1:1")
	hit(h, "10.0.0.1:1")
	require.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1:1").Code)

	clock.t = clock.t.Add(30 * time.Second)
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1").Code)
}

func TestRateLimiter_Cleanup(t *testing.T) {
	l, clock := newTestLimiter("test_cleanup", 5, time.Minute)
	l.allow("a")
	clock.t = clock.t.Add(90 * time.Second)
	l.allow("b")

	clock.t = clock.t.Add(45 * time.Second)
	assert.Equal(t, 1, l.Cleanup())
	assert.Len(t, l.clients, 1)
	assert.Contains(t, l.clients, "b")
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	assert.Equal(t, "192.0.2.1", clientIP(req))

	req.RemoteAddr = "pipe"
	assert.Equal(t, "pipe", clientIP(req))
}

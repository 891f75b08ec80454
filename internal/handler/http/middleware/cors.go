// Package middleware holds the cross-origin and rate limiting middleware of
// the API server.
package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// CORSConfig is the cross-origin policy.
type CORSConfig struct {
	// AllowedOrigins is an exact-match whitelist, compared case-insensitively.
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	// MaxAge is the preflight cache lifetime in seconds.
	MaxAge int
	Logger *slog.Logger
}

// DefaultCORSConfig allows no origin.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
		MaxAge:         86400,
	}
}

// Enabled reports whether any origin is allowed.
func (c CORSConfig) Enabled() bool { return len(c.AllowedOrigins) > 0 }

// LoadCORSConfig reads CORS_ALLOWED_ORIGINS (comma separated, empty disables
// CORS), CORS_ALLOWED_HEADERS and CORS_MAX_AGE.
func LoadCORSConfig() (CORSConfig, error) {
	cfg := DefaultCORSConfig()

	for _, o := range splitList(os.Getenv("CORS_ALLOWED_ORIGINS")) {
		if err := validateOrigin(o); err != nil {
			return CORSConfig{}, err
		}
		cfg.AllowedOrigins = append(cfg.AllowedOrigins, normalizeOrigin(o))
	}

	if headers := splitList(os.Getenv("CORS_ALLOWED_HEADERS")); len(headers) > 0 {
		cfg.AllowedHeaders = headers
	}

	if v := strings.TrimSpace(os.Getenv("CORS_MAX_AGE")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 86400 {
			return CORSConfig{}, fmt.Errorf("CORS_MAX_AGE must be between 0 and 86400, got %q", v)
		}
		cfg.MaxAge = n
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func validateOrigin(origin string) error {
	u, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("invalid origin URL %q: %w", origin, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("origin must use http or https scheme: %s", origin)
	}
	if u.Host == "" {
		return fmt.Errorf("origin must include a host: %s", origin)
	}
	if (u.Path != "" && u.Path != "/") || u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("origin must not include path, query or fragment: %s", origin)
	}
	return nil
}

func normalizeOrigin(origin string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(origin)), "/")
}

func (c CORSConfig) allows(origin string) bool {
	origin = normalizeOrigin(origin)
	for _, o := range c.AllowedOrigins {
		if o == origin {
			return true
		}
	}
	return false
}

// CORS echoes allowed origins back and answers their preflight requests with
// 204. Requests from other origins pass through without CORS headers, so the
// browser blocks the response.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	maxAge := strconv.Itoa(cfg.MaxAge)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Add("Vary", "Origin")
			if !cfg.allows(origin) {
				if cfg.Logger != nil {
					cfg.Logger.Warn("CORS: origin not allowed",
						slog.String("origin", origin),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method))
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Set("Access-Control-Allow-Methods", methods)
				w.Header().Set("Access-Control-Allow-Headers", headers)
				w.Header().Set("Access-Control-Max-Age", maxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

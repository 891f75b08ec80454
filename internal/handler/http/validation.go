package http

import (
	"net/http"
)

// InputLimits bounds request inputs before they reach a handler.
type InputLimits struct {
	MaxAuthHeaderBytes int
	MaxPathBytes       int
	MaxQueryBytes      int
}

// DefaultInputLimits returns 8KB for Authorization, 2KB for the path and
// 2KB for the query string.
func DefaultInputLimits() InputLimits {
	return InputLimits{
		MaxAuthHeaderBytes: 8 << 10,
		MaxPathBytes:       2 << 10,
		MaxQueryBytes:      2 << 10,
	}
}

// InputValidation rejects oversized headers, paths and query strings.
func InputValidation(limits InputLimits) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case len(r.Header.Get("Authorization")) > limits.MaxAuthHeaderBytes:
				writeJSONError(w, http.StatusRequestHeaderFieldsTooLarge, "authorization header too large")
			case len(r.URL.Path) > limits.MaxPathBytes:
				writeJSONError(w, http.StatusRequestURITooLong, "URI too long")
			case len(r.URL.RawQuery) > limits.MaxQueryBytes:
				writeJSONError(w, http.StatusRequestURITooLong, "query string too long")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}

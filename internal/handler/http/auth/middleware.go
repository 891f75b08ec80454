package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"newsparser/internal/handler/http/respond"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey string

const ctxUser ctxKey = "user"

// Claims is the JWT payload issued by TokenHandler.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

var (
	errMissingToken = errors.New("missing bearer token")
	errInvalidToken = errors.New("invalid token")
)

// RequireAdmin rejects requests without a valid admin token. With
// authentication disabled it is a no-op.
func RequireAdmin(cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !cfg.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := ParseToken(cfg, r.Header.Get("Authorization"))
			if err != nil {
				observeAdminCheck("unauthorized", r.Method)
				w.Header().Set("WWW-Authenticate", `Bearer realm="newsparser"`)
				respond.Error(w, http.StatusUnauthorized, fmt.Errorf("unauthorized: %w", err))
				return
			}
			if claims.Role != RoleAdmin {
				observeAdminCheck("forbidden", r.Method)
				respond.Error(w, http.StatusForbidden, errors.New("forbidden"))
				return
			}

			observeAdminCheck("allowed", r.Method)
			ctx := context.WithValue(r.Context(), ctxUser, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ParseToken validates an "Authorization: Bearer <jwt>" header value.
func ParseToken(cfg Config, header string) (*Claims, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return nil, errMissingToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(strings.TrimPrefix(header, prefix), claims,
		func(*jwt.Token) (any, error) { return cfg.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(cfg.now),
	)
	if err != nil {
		return nil, errInvalidToken
	}
	if claims.Subject == "" {
		return nil, errInvalidToken
	}
	return claims, nil
}

// UserFromContext returns the authenticated subject, if any.
func UserFromContext(ctx context.Context) (string, bool) {
	u, ok := ctx.Value(ctxUser).(string)
	return u, ok
}

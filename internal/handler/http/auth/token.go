package auth

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"newsparser/internal/handler/http/respond"
	"newsparser/internal/observability/logging"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenHandler exchanges the admin credentials for a signed token.
// It answers 404 when authentication is disabled.
func TokenHandler(cfg Config, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !cfg.Enabled() {
			http.NotFound(w, r)
			return
		}

		start := time.Now()
		log := logging.WithRequestID(r.Context(), logger)
		fail := func(code int, reason, outcome string, err error) {
			log.Warn("authentication failed", slog.String("reason", reason))
			observeToken(outcome, start)
			respond.Error(w, code, err)
		}

		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			fail(http.StatusBadRequest, "invalid_request", "bad_request", errors.New("invalid request body"))
			return
		}
		if !credentialsMatch(cfg, req) {
			fail(http.StatusUnauthorized, "invalid_credentials", "rejected", errors.New("unauthorized"))
			return
		}

		signed, exp, err := IssueToken(cfg, req.Username)
		if err != nil {
			log.Error("token generation failed", slog.Any("error", err))
			observeToken("error", start)
			respond.SafeError(w, http.StatusInternalServerError, err)
			return
		}

		observeToken("issued", start)
		log.Info("token issued", slog.String("user", req.Username))
		respond.JSON(w, http.StatusOK, tokenResponse{Token: signed, ExpiresAt: exp})
	}
}

// IssueToken signs an admin token for subject.
func IssueToken(cfg Config, subject string) (string, time.Time, error) {
	now := cfg.now()
	exp := now.Add(cfg.ttl()).UTC().Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(cfg.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func credentialsMatch(cfg Config, req loginRequest) bool {
	if cfg.AdminUser == "" || cfg.AdminPassword == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(cfg.AdminUser)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(cfg.AdminPassword)) == 1
	return userOK && passOK
}

package auth

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger { return slog.New(slog.NewJSONHandler(io.Discard, nil)) }

func postToken(cfg Config, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	TokenHandler(cfg, discard()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(body)))
	return rec
}

func TestTokenHandler_IssuesAdminToken(t *testing.T) {
	cfg := testConfig()

	rec := postToken(cfg, `{"username":"editor","password":"Str0ng-Passphrase!"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp tokenResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, fixedNow.Add(time.Hour).Equal(resp.ExpiresAt), "expires_at = %v", resp.ExpiresAt)

	claims, err := ParseToken(cfg, "Bearer "+resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "editor", claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.True(t, fixedNow.Equal(claims.IssuedAt.Time), "iat = %v", claims.IssuedAt.Time)
	_, err = uuid.Parse(claims.ID)
	assert.NoError(t, err)
}

func TestTokenHandler_TokenExpires(t *testing.T) {
	cfg := testConfig()
	token, _, err := IssueToken(cfg, "editor")
	require.NoError(t, err)

	later := cfg
	later.Now = func() time.Time { return fixedNow.Add(2 * time.Hour) }
	_, err = ParseToken(later, "Bearer "+token)
	assert.Error(t, err)
}

func TestTokenHandler_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed body", `{`, http.StatusBadRequest},
		{"wrong password", `{"username":"editor","password":"nope"}`, http.StatusUnauthorized},
		{"wrong user", `{"username":"root","password":"Str0ng-Passphrase!"}`, http.StatusUnauthorized},
		{"empty", `{}`, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postToken(testConfig(), tt.body)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestTokenHandler_NoAdminPasswordNeverMatches(t *testing.T) {
	cfg := testConfig()
	cfg.AdminPassword = ""

	rec := postToken(cfg, `{"username":"editor","password":""}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTokenHandler_DisabledIsNotFound(t *testing.T) {
	cfg := testConfig()
	cfg.Secret = nil

	rec := postToken(cfg, `{"username":"editor","password":"Str0ng-Passphrase!"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

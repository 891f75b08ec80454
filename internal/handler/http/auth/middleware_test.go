package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/* ───────── ヘルパ ───────── */

var fixedNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func testConfig() Config {
	return Config{
		Secret:        []byte("test-secret-key-at-least-32-characters-long"),
		AdminUser:     "editor",
		AdminPassword: "Str0ng-Passphrase!",
		TokenTTL:      time.Hour,
		Now:           func() time.Time { return fixedNow },
	}
}

func signed(t *testing.T, secret []byte, method jwt.SigningMethod, claims Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(secret)
	require.NoError(t, err)
	return s
}

func claimsFor(role string, exp time.Time) Claims {
	return Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "editor",
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
}

func protected(cfg Config) (http.Handler, *string) {
	var user string
	h := RequireAdmin(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	return h, &user
}

/* ───────── テスト ───────── */

func TestRequireAdmin_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Secret = nil
	h, _ := protected(cfg)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/news/1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAdmin_MutatingRequests(t *testing.T) {
	cfg := testConfig()
	valid := signed(t, cfg.Secret, jwt.SigningMethodHS256, claimsFor(RoleAdmin, fixedNow.Add(time.Hour)))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid admin token", "Bearer " + valid, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer not.a.jwt", http.StatusUnauthorized},
		{"expired", "Bearer " + signed(t, cfg.Secret, jwt.SigningMethodHS256, claimsFor(RoleAdmin, fixedNow.Add(-time.Minute))), http.StatusUnauthorized},
		{"no expiry", "Bearer " + signed(t, cfg.Secret, jwt.SigningMethodHS256, Claims{Role: RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{Subject: "editor"}}), http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signed(t, []byte("another-secret-another-secret-xxxx"), jwt.SigningMethodHS256, claimsFor(RoleAdmin, fixedNow.Add(time.Hour))), http.StatusUnauthorized},
		{"wrong algorithm", "Bearer " + signed(t, cfg.Secret, jwt.SigningMethodHS512, claimsFor(RoleAdmin, fixedNow.Add(time.Hour))), http.StatusUnauthorized},
		{"not admin", "Bearer " + signed(t, cfg.Secret, jwt.SigningMethodHS256, claimsFor("viewer", fixedNow.Add(time.Hour))), http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := protected(cfg)
			req := httptest.NewRequest(http.MethodPost, "/news", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusUnauthorized {
				assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestRequireAdmin_PutsUserInContext(t *testing.T) {
	cfg := testConfig()
	token := signed(t, cfg.Secret, jwt.SigningMethodHS256, claimsFor(RoleAdmin, fixedNow.Add(time.Hour)))
	h, user := protected(cfg)

	req := httptest.NewRequest(http.MethodDelete, "/news/3", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "editor", *user)
}

func TestRequireAdmin_ForbiddenIsCounted(t *testing.T) {
	cfg := testConfig()
	before := testutil.ToFloat64(adminChecks.WithLabelValues("forbidden", http.MethodPost))
	h, _ := protected(cfg)

	req := httptest.NewRequest(http.MethodPost, "/news", nil)
	req.Header.Set("Authorization", "Bearer "+signed(t, cfg.Secret, jwt.SigningMethodHS256, claimsFor("viewer", fixedNow.Add(time.Hour))))
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, before+1, testutil.ToFloat64(adminChecks.WithLabelValues("forbidden", http.MethodPost)))
}

func TestRequireAdmin_GuardsSafeMethodsToo(t *testing.T) {
	h, _ := protected(testConfig())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/news/external", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

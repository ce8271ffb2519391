package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claimease-api/internal/config"
	"github.com/claimease-api/internal/domain"
	jwtinfra "github.com/claimease-api/internal/infrastructure/jwt"
)

func testProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	p, err := jwtinfra.NewProvider(&config.Config{JWTSecret: "test-secret", SessionExpiry: time.Hour})
	require.NoError(t, err)
	return p
}

func protected(t *testing.T, provider *jwtinfra.Provider) (http.Handler, *jwtinfra.Claims) {
	t.Helper()
	captured := &jwtinfra.Claims{}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, ok := ClaimsFromContext(r.Context()); ok {
			*captured = *c
		}
		w.WriteHeader(http.StatusOK)
	})
	return Auth(provider)(next), captured
}

func TestAuth_NoCredentials_Unauthorized(t *testing.T) {
	h, _ := protected(t, testProvider(t))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/users/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_SessionCookie_Accepted(t *testing.T) {
	p := testProvider(t)
	h, captured := protected(t, p)

	tok, err := p.Sign(&domain.Account{UserID: "u1", Email: "a@b.com", Tier: domain.TierStandard}, "s1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tok})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", captured.UserID)
	assert.Equal(t, domain.TierStandard, captured.Tier)
}

func TestAuth_BearerFallback_Accepted(t *testing.T) {
	p := testProvider(t)
	h, captured := protected(t, p)

	tok, err := p.Sign(&domain.Account{UserID: "u2"}, "s2")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u2", captured.UserID)
}

func TestAuth_TamperedToken_Rejected(t *testing.T) {
	p := testProvider(t)
	h, _ := protected(t, p)

	tok, err := p.Sign(&domain.Account{UserID: "u1"}, "s1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tok + "x"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/straye-as/commission-api/internal/config"
	"github.com/straye-as/commission-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestTokenManager(now time.Time) *TokenManager {
	m := NewTokenManager(&config.AuthConfig{JWTSecret: "test-secret", TokenTTL: 3600, Issuer: "commission-api"})
	m.now = func() time.Time { return now }
	return m
}

func TestTokenManager_IssueAndValidate(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m := newTestTokenManager(now)

	token, expiresAt, err := m.Issue(42, []string{domain.PermissionAdmin})
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), expiresAt)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, []string{domain.PermissionAdmin}, claims.Permissions)
	assert.Equal(t, "42", claims.Subject)
}

func TestTokenManager_Rejects(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m := newTestTokenManager(now)
	token, _, err := m.Issue(42, nil)
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		later := newTestTokenManager(now.Add(2 * time.Hour))
		_, err := later.Validate(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenManager(&config.AuthConfig{JWTSecret: "other", TokenTTL: 3600, Issuer: "commission-api"})
		other.now = func() time.Time { return now }
		_, err := other.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
			UserID:           42,
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)), Issuer: "commission-api"},
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = m.Validate(unsigned)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("no secret configured", func(t *testing.T) {
		empty := NewTokenManager(&config.AuthConfig{})
		_, _, err := empty.Issue(1, nil)
		assert.ErrorIs(t, err, ErrNoSecret)
	})
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, VerifyPassword("correct horse", hash))
	assert.False(t, VerifyPassword("wrong", hash))
	assert.False(t, VerifyPassword("anything", ""))
}

func TestMiddleware_Authenticate(t *testing.T) {
	tokens := NewTokenManager(&config.AuthConfig{JWTSecret: "test-secret", TokenTTL: 3600})
	mw := NewMiddleware(&config.Config{ApiKey: config.ApiKeyConfig{Value: "key-123"}}, tokens, zap.NewNop())

	var seen *Principal
	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	serve := func(headers map[string]string) int {
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/api/v1/customers", nil)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	token, _, err := tokens.Issue(7, []string{"read"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, serve(map[string]string{"Authorization": "Bearer " + token}))
	require.NotNil(t, seen)
	assert.Equal(t, int64(7), seen.UserID)
	assert.Equal(t, MethodJWT, seen.Method)

	assert.Equal(t, http.StatusOK, serve(map[string]string{"x-api-key": "key-123"}))
	require.NotNil(t, seen)
	assert.Equal(t, MethodAPIKey, seen.Method)
	assert.True(t, seen.IsAdmin())

	assert.Equal(t, http.StatusUnauthorized, serve(map[string]string{"x-api-key": "nope"}))
	assert.Equal(t, http.StatusUnauthorized, serve(nil))
	assert.Equal(t, http.StatusUnauthorized, serve(map[string]string{"Authorization": "Basic abc"}))
	assert.Equal(t, http.StatusUnauthorized, serve(map[string]string{"Authorization": "Bearer garbage"}))
}

func TestMiddleware_RequirePermission(t *testing.T) {
	mw := NewMiddleware(&config.Config{}, NewTokenManager(&config.AuthConfig{JWTSecret: "s"}), zap.NewNop())
	handler := mw.RequirePermission(domain.PermissionAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for _, tc := range []struct {
		name      string
		principal *Principal
		want      int
	}{
		{"no principal", nil, http.StatusForbidden},
		{"missing permission", &Principal{UserID: 1, Method: MethodJWT, Permissions: []string{"read"}}, http.StatusForbidden},
		{"admin", &Principal{UserID: 1, Method: MethodJWT, Permissions: []string{domain.PermissionAdmin}}, http.StatusNoContent},
		{"api key", &Principal{Method: MethodAPIKey}, http.StatusNoContent},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/api/v1/users/1", nil)
			if tc.principal != nil {
				req = req.WithContext(WithPrincipal(req.Context(), tc.principal))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

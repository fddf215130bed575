package router_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/straye-as/commission-api/internal/auth"
	"github.com/straye-as/commission-api/internal/commission"
	"github.com/straye-as/commission-api/internal/config"
	"github.com/straye-as/commission-api/internal/domain"
	"github.com/straye-as/commission-api/internal/http/handler"
	"github.com/straye-as/commission-api/internal/http/middleware"
	"github.com/straye-as/commission-api/internal/http/router"
	"github.com/straye-as/commission-api/internal/metrics"
	"github.com/straye-as/commission-api/internal/repository"
	"github.com/straye-as/commission-api/internal/service"
	"github.com/straye-as/commission-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type noopSyncer struct{}

func (noopSyncer) RunSync(context.Context) (*domain.SyncResult, error) {
	return &domain.SyncResult{StartedAt: time.Now()}, nil
}

func setupRouter(t *testing.T) (http.Handler, *auth.TokenManager) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	cfg := &config.Config{
		App:       config.AppConfig{Environment: "development"},
		Auth:      config.AuthConfig{JWTSecret: "router-secret", TokenTTL: 3600},
		ApiKey:    config.ApiKeyConfig{Value: "system-key"},
		Metrics:   config.MetricsConfig{Enabled: true, Path: "/metrics"},
		RateLimit: config.RateLimitConfig{Enabled: false},
	}
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	tokens := auth.NewTokenManager(&cfg.Auth)

	userRepo := repository.NewUserRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	teamRepo := repository.NewTeamRepository(db)

	userService := service.NewUserService(userRepo, logger)
	commissionService := service.NewCommissionService(
		repository.NewCommissionRepository(db),
		userRepo,
		customerRepo,
		teamRepo,
		commission.NewEngine(),
		m,
		logger,
	)

	rt := router.NewRouter(
		cfg,
		logger,
		m,
		auth.NewMiddleware(cfg, tokens, logger),
		middleware.NewRateLimiter(&cfg.RateLimit, logger),
		handler.NewHealthHandler(db, nil, logger),
		handler.NewAuthHandler(service.NewAuthService(userRepo, tokens, logger), userService, logger),
		handler.NewCommissionHandler(commissionService, logger),
		handler.NewCustomerHandler(service.NewCustomerService(customerRepo, logger), noopSyncer{}, logger),
		handler.NewUserHandler(userService, logger),
		handler.NewTeamHandler(service.NewTeamService(teamRepo, userRepo, logger), logger),
	)
	return rt.Setup(), tokens
}

func serve(h http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func bearer(t *testing.T, tokens *auth.TokenManager, permissions ...string) map[string]string {
	t.Helper()
	token, _, err := tokens.Issue(1, permissions)
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestRouter(t *testing.T) {
	h, tokens := setupRouter(t)

	t.Run("health is public", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/health", nil).Code)
		assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/health/db", nil).Code)
		assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/health/ready", nil).Code)
	})

	t.Run("api requires authentication", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, serve(h, http.MethodGet, "/api/v1/customers", nil).Code)
		assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/api/v1/customers", bearer(t, tokens)).Code)
	})

	t.Run("destructive routes require admin", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, serve(h, http.MethodDelete, "/api/v1/users/42", bearer(t, tokens)).Code)
		assert.Equal(t, http.StatusForbidden, serve(h, http.MethodPost, "/api/v1/customers/sync", bearer(t, tokens)).Code)

		assert.Equal(t, http.StatusNotFound, serve(h, http.MethodDelete, "/api/v1/users/42", bearer(t, tokens, domain.PermissionAdmin)).Code)
		assert.Equal(t, http.StatusOK, serve(h, http.MethodPost, "/api/v1/customers/sync", map[string]string{"x-api-key": "system-key"}).Code)
	})

	t.Run("responses carry a request id", func(t *testing.T) {
		rr := serve(h, http.MethodGet, "/health", nil)
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	})

	t.Run("metrics endpoint", func(t *testing.T) {
		rr := serve(h, http.MethodGet, "/metrics", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, strings.Contains(rr.Body.String(), "commission_http_requests_total"))
	})
}

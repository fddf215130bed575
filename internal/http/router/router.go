package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/straye-as/commission-api/internal/auth"
	"github.com/straye-as/commission-api/internal/config"
	"github.com/straye-as/commission-api/internal/domain"
	"github.com/straye-as/commission-api/internal/http/handler"
	"github.com/straye-as/commission-api/internal/http/middleware"
	"github.com/straye-as/commission-api/internal/metrics"
	"go.uber.org/zap"
)

type Router struct {
	cfg               *config.Config
	logger            *zap.Logger
	metrics           *metrics.Metrics
	authMiddleware    *auth.Middleware
	rateLimiter       *middleware.RateLimiter
	healthHandler     *handler.HealthHandler
	authHandler       *handler.AuthHandler
	commissionHandler *handler.CommissionHandler
	customerHandler   *handler.CustomerHandler
	userHandler       *handler.UserHandler
	teamHandler       *handler.TeamHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	m *metrics.Metrics,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	healthHandler *handler.HealthHandler,
	authHandler *handler.AuthHandler,
	commissionHandler *handler.CommissionHandler,
	customerHandler *handler.CustomerHandler,
	userHandler *handler.UserHandler,
	teamHandler *handler.TeamHandler,
) *Router {
	return &Router{
		cfg:               cfg,
		logger:            logger,
		metrics:           m,
		authMiddleware:    authMiddleware,
		rateLimiter:       rateLimiter,
		healthHandler:     healthHandler,
		authHandler:       authHandler,
		commissionHandler: commissionHandler,
		customerHandler:   customerHandler,
		userHandler:       userHandler,
		teamHandler:       teamHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger, rt.metrics))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	r.Get("/health", rt.healthHandler.Live)
	r.Get("/health/db", rt.healthHandler.Database)
	r.Get("/health/ready", rt.healthHandler.Ready)

	if rt.cfg.Metrics.Enabled {
		r.Method(http.MethodGet, rt.cfg.Metrics.Path, rt.metrics.Handler())
	}

	admin := rt.authMiddleware.RequirePermission(domain.PermissionAdmin)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/login", rt.authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)
			r.Use(rt.rateLimiter.LimitByUser)

			r.Get("/auth/me", rt.authHandler.Me)

			r.Route("/commissions", func(r chi.Router) {
				r.Post("/preview", rt.commissionHandler.Preview)

				r.Route("/due", func(r chi.Router) {
					r.Get("/", rt.commissionHandler.ListDue)
					r.Post("/", rt.commissionHandler.UpsertDue)
					r.Get("/{id}", rt.commissionHandler.GetDue)
					r.Put("/{id}", rt.commissionHandler.UpdateDue)
					r.With(admin).Delete("/{id}", rt.commissionHandler.DeleteDue)
					r.Post("/{id}/mark-paid", rt.commissionHandler.MarkPaid)
				})

				r.Route("/paid", func(r chi.Router) {
					r.Get("/", rt.commissionHandler.ListPaid)
					r.Post("/", rt.commissionHandler.UpsertPayment)
					r.Get("/{id}", rt.commissionHandler.GetPayment)
					r.Put("/{id}", rt.commissionHandler.UpdatePayment)
					r.With(admin).Delete("/{id}", rt.commissionHandler.DeletePayment)
				})
			})

			r.Route("/customers", func(r chi.Router) {
				r.Get("/", rt.customerHandler.List)
				r.Get("/search", rt.customerHandler.Search)
				r.With(admin).Post("/sync", rt.customerHandler.Sync)
				r.Get("/{id}", rt.customerHandler.GetByID)
				r.With(admin).Delete("/{id}", rt.customerHandler.Delete)
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", rt.userHandler.List)
				r.With(admin).Post("/", rt.userHandler.Create)
				r.Get("/{id}", rt.userHandler.GetByID)
				r.With(admin).Put("/{id}", rt.userHandler.Update)
				r.With(admin).Delete("/{id}", rt.userHandler.Delete)
			})

			r.Route("/teams", func(r chi.Router) {
				r.Get("/", rt.teamHandler.List)
				r.With(admin).Post("/", rt.teamHandler.Create)
				r.Get("/by-user/{userId}", rt.teamHandler.GetByUser)
				r.Get("/{id}", rt.teamHandler.GetByID)
				r.With(admin).Put("/{id}", rt.teamHandler.Update)
				r.With(admin).Delete("/{id}", rt.teamHandler.Delete)
			})
		})
	})

	return r
}

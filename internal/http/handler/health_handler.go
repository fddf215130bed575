package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/straye-as/commission-api/internal/database"
	"github.com/straye-as/commission-api/internal/datawarehouse"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const healthCheckTimeout = 5 * time.Second

type HealthHandler struct {
	db        *gorm.DB
	warehouse *datawarehouse.Client
	logger    *zap.Logger
}

// NewHealthHandler creates the health handler. warehouse may be nil.
func NewHealthHandler(db *gorm.DB, warehouse *datawarehouse.Client, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:        db,
		warehouse: warehouse,
		logger:    logger,
	}
}

// Live is the liveness probe
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// Database is the readiness probe with connection pool stats
func (h *HealthHandler) Database(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if err := database.HealthCheck(ctx, h.db); err != nil {
		h.logger.Error("Database health check failed", zap.Error(err))
		respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "unhealthy",
			"error":   err.Error(),
			"service": "database",
		})
		return
	}

	body := map[string]interface{}{
		"status":  "healthy",
		"service": "database",
	}
	if sqlDB, err := h.db.DB(); err == nil {
		stats := sqlDB.Stats()
		body["stats"] = map[string]interface{}{
			"max_open_connections": stats.MaxOpenConnections,
			"open_connections":     stats.OpenConnections,
			"in_use":               stats.InUse,
			"idle":                 stats.Idle,
			"wait_count":           stats.WaitCount,
			"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
		}
	}
	respondJSON(w, http.StatusOK, body)
}

// Ready checks every dependency. The warehouse only counts when it is configured.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	checks := make(map[string]interface{})
	allHealthy := true

	if err := database.HealthCheck(ctx, h.db); err != nil {
		h.logger.Error("Database health check failed", zap.Error(err))
		checks["database"] = map[string]interface{}{
			"status": "unhealthy",
			"error":  err.Error(),
		}
		allHealthy = false
	} else {
		checks["database"] = map[string]interface{}{
			"status": "healthy",
		}
	}

	dw := h.warehouse.HealthCheck(ctx)
	checks["data_warehouse"] = dw
	if dw.Status == "unhealthy" {
		allHealthy = false
	}

	status, state := http.StatusOK, "healthy"
	if !allHealthy {
		status, state = http.StatusServiceUnavailable, "unhealthy"
	}
	respondJSON(w, status, map[string]interface{}{
		"status": state,
		"checks": checks,
	})
}

package logger

import (
	"fmt"

	"github.com/straye-as/commission-api/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a new structured logger
func NewLogger(cfg *config.LoggingConfig, appCfg *config.AppConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" || appCfg.Environment == "production" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	zapCfg.InitialFields = map[string]interface{}{
		"app":         appCfg.Name,
		"environment": appCfg.Environment,
	}

	// Sync runs log per job; keep every line from a large feed
	zapCfg.Sampling = nil

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return logger, nil
}

// WithRequest adds request context to logger
func WithRequest(logger *zap.Logger, method, path, requestID string) *zap.Logger {
	return logger.With(
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
	)
}

// WithUser adds the authenticated principal to logger
func WithUser(logger *zap.Logger, userID int64, authMethod string) *zap.Logger {
	return logger.With(
		zap.Int64("user_id", userID),
		zap.String("auth_method", authMethod),
	)
}

// WithCommission tags log lines about one (user, customer) ledger pair
func WithCommission(logger *zap.Logger, userID, customerID int64) *zap.Logger {
	return logger.With(
		zap.Int64("user_id", userID),
		zap.Int64("customer_id", customerID),
	)
}

// WithJob tags log lines emitted while processing one feed job
func WithJob(logger *zap.Logger, jobName string) *zap.Logger {
	return logger.With(zap.String("job_name", jobName))
}

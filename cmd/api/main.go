package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/straye-as/commission-api/internal/auth"
	"github.com/straye-as/commission-api/internal/commission"
	"github.com/straye-as/commission-api/internal/config"
	"github.com/straye-as/commission-api/internal/database"
	"github.com/straye-as/commission-api/internal/datawarehouse"
	"github.com/straye-as/commission-api/internal/feed"
	"github.com/straye-as/commission-api/internal/http/handler"
	"github.com/straye-as/commission-api/internal/http/middleware"
	"github.com/straye-as/commission-api/internal/http/router"
	"github.com/straye-as/commission-api/internal/jobs"
	"github.com/straye-as/commission-api/internal/logger"
	"github.com/straye-as/commission-api/internal/metrics"
	"github.com/straye-as/commission-api/internal/notify"
	"github.com/straye-as/commission-api/internal/repository"
	"github.com/straye-as/commission-api/internal/service"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Basic configuration first, for the logger
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Warn("Error closing database connection", zap.Error(err))
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to auto-migrate: %w", err)
		}
		log.Info("Database schema auto-migrated")
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	// The warehouse is optional unless it backs the job feed
	dwClient, err := datawarehouse.NewClient(&cfg.DataWarehouse, log)
	if err != nil {
		if cfg.JobFeed.Source == config.JobFeedSourceWarehouse {
			return fmt.Errorf("failed to connect to data warehouse: %w", err)
		}
		log.Warn("Data warehouse connection failed, continuing without it", zap.Error(err))
	}
	defer func() {
		if dwClient != nil {
			if err := dwClient.Close(); err != nil {
				log.Warn("Error closing data warehouse connection", zap.Error(err))
			}
		}
	}()

	jobFeed, err := feed.New(cfg, dwClient, log)
	if err != nil {
		return fmt.Errorf("failed to initialize job feed: %w", err)
	}
	notifier := notify.New(&cfg.Notification, log)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	commissionRepo := repository.NewCommissionRepository(db)

	// Services
	tokens := auth.NewTokenManager(&cfg.Auth)
	commissionService := service.NewCommissionService(
		commissionRepo,
		userRepo,
		customerRepo,
		teamRepo,
		commission.NewEngine(),
		m,
		log,
	)
	syncService := service.NewSyncService(
		jobFeed,
		userRepo,
		customerRepo,
		commissionService,
		cfg.Sync.Concurrency,
		m,
		log,
	)
	customerService := service.NewCustomerService(customerRepo, log)
	userService := service.NewUserService(userRepo, log)
	teamService := service.NewTeamService(teamRepo, userRepo, log)
	authService := service.NewAuthService(userRepo, tokens, log)

	// Middleware
	authMiddleware := auth.NewMiddleware(cfg, tokens, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Handlers
	rt := router.NewRouter(
		cfg,
		log,
		m,
		authMiddleware,
		rateLimiter,
		handler.NewHealthHandler(db, dwClient, log),
		handler.NewAuthHandler(authService, userService, log),
		handler.NewCommissionHandler(commissionService, log),
		handler.NewCustomerHandler(customerService, syncService, log),
		handler.NewUserHandler(userService, log),
		handler.NewTeamHandler(teamService, log),
	)

	var scheduler *jobs.Scheduler
	if cfg.Sync.Enabled {
		scheduler = jobs.NewScheduler(log, m)
		job := jobs.NewCommissionSyncJob(syncService, notifier, log, cfg.Sync.TimeoutDuration())

		if err := jobs.RegisterCommissionSyncJob(scheduler, job, cfg.Sync.Cron, cfg.Sync.RunOnStartup); err != nil {
			log.Error("Failed to register commission sync job", zap.Error(err))
			scheduler = nil
		} else {
			scheduler.Start()
			log.Info("Scheduler started with commission sync job",
				zap.String("cron_expr", cfg.Sync.Cron),
				zap.Duration("timeout", cfg.Sync.TimeoutDuration()),
				zap.Bool("run_on_startup", cfg.Sync.RunOnStartup),
			)
		}
	} else {
		log.Info("Scheduled commission sync disabled")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		// Waits for a running sync to finish
		if scheduler != nil {
			<-scheduler.Stop().Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}

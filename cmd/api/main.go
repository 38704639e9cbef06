package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolio-contact-backend/config"
	_ "portfolio-contact-backend/docs" // Important for Swagger
	"portfolio-contact-backend/internal/bootstrap"
	"portfolio-contact-backend/internal/delivery/http/middleware"
	v1 "portfolio-contact-backend/internal/delivery/http/v1"
	"portfolio-contact-backend/internal/domain"
	"portfolio-contact-backend/internal/repository/redisstore"
	"portfolio-contact-backend/internal/usecase"
	"portfolio-contact-backend/pkg/audit"
	"portfolio-contact-backend/pkg/logger"
	redisclient "portfolio-contact-backend/pkg/redis"

	"github.com/redis/go-redis/v9"
)

// @title           Portfolio Contact API
// @version         1.0
// @description     Accepts contact form submissions, stores them and notifies the site owner by email.
// @host            localhost:8080
// @BasePath        /v1
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Loggers
	logger.Init(logger.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	})
	auditLogger := audit.NewLogger("contact-api", cfg.Environment)
	defer func() { _ = auditLogger.Sync() }()
	logger.Log.Info("Starting contact backend", "port", cfg.Port, "store", cfg.StoreDriver, "email", cfg.EmailProvider)

	ctx := context.Background()

	// 3. Setup Store. A failure leaves the store branch unavailable.
	var store domain.SubmissionStore
	submissionStore, closeStore, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		logger.Log.Error("Submission store unavailable", "error", err)
	} else {
		store = submissionStore
	}
	defer closeStore()

	// 4. Setup Email Service
	var notifier domain.Notifier
	emailService, err := bootstrap.NewNotifier(cfg)
	if err != nil {
		logger.Log.Warn("Email service not configured - notifications will be unavailable", "error", err)
	} else {
		notifier = emailService
	}

	// 5. Setup Redis (optional)
	var (
		rdb         *redis.Client
		idempotency domain.IdempotencyStore
		retryQueue  domain.RetryQueue
		redisCheck  func(context.Context) error
	)
	if client, err := bootstrap.OpenRedis(ctx, cfg); err != nil {
		logger.Log.Warn("Redis unavailable - idempotency, retry queue and shared rate limits disabled", "error", err)
	} else if client != nil {
		rdb = client
		defer rdb.Close()
		redisCheck = func(ctx context.Context) error { return redisclient.HealthCheck(ctx, rdb) }
		if cfg.IdempotencyEnabled {
			idempotency = redisstore.NewIdempotencyRepository(rdb)
		}
		if cfg.RetryQueueEnabled {
			retryQueue = redisstore.NewRetryQueue(rdb)
		}
	}

	// 6. Setup UseCases
	coordinator := usecase.NewDualWriteCoordinator(store, notifier, usecase.CoordinatorConfig{
		StoreTimeout:  cfg.StoreTimeout,
		NotifyTimeout: cfg.NotifyTimeout,
	})
	contactUC := usecase.NewContactUsecase(coordinator, retryQueue, auditLogger)
	healthUC := usecase.NewHealthUsecase(usecase.HealthDeps{
		Store:      store,
		Notifier:   notifier,
		RedisCheck: redisCheck,
	})

	// 7. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		ContactUC:      contactUC,
		HealthUC:       healthUC,
		Idempotency:    idempotency,
		IdempotencyTTL: cfg.IdempotencyTTL,
		Audit:          auditLogger,
		RateLimit:      middleware.RateLimitConfig{Limit: cfg.SubmitRateLimit, Window: cfg.SubmitRateWindow},
		Redis:          rdb,
		AllowedOrigins: cfg.AllowedOrigins,
		IsProduction:   cfg.IsProduction(),
	})

	// 8. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("Listen failed", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}

	logger.Log.Info("Server exiting")
}

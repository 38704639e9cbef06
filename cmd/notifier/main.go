// Command notifier drains the notification retry queue. It re-sends operator
// emails for submissions that were stored while the mailer was failing.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"portfolio-contact-backend/config"
	"portfolio-contact-backend/internal/bootstrap"
	"portfolio-contact-backend/internal/repository/redisstore"
	"portfolio-contact-backend/internal/usecase"
	"portfolio-contact-backend/pkg/audit"
	"portfolio-contact-backend/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(logger.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	})
	auditLogger := audit.NewLogger("contact-notifier", cfg.Environment)
	defer func() { _ = auditLogger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, err := bootstrap.OpenRedis(ctx, cfg)
	if err != nil {
		logger.Log.Error("Redis unavailable", "error", err)
		os.Exit(1)
	}
	if rdb == nil {
		logger.Log.Error("REDIS_URL is required by the notifier")
		os.Exit(1)
	}
	defer rdb.Close()

	notifier, err := bootstrap.NewNotifier(cfg)
	if err != nil {
		logger.Log.Error("Email service not configured", "error", err)
		os.Exit(1)
	}

	retrier := usecase.NewNotificationRetrier(redisstore.NewRetryQueue(rdb), notifier, auditLogger, usecase.RetrierConfig{
		MaxAttempts:  cfg.RetryMaxAttempts,
		Lease:        cfg.RetryLease,
		PollInterval: cfg.RetryPollInterval,
		SendTimeout:  cfg.NotifyTimeout,
	})

	logger.Log.Info("Notification retrier started", "max_attempts", cfg.RetryMaxAttempts, "poll_interval", cfg.RetryPollInterval.String())
	if err := retrier.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Log.Error("Notification retrier stopped", "error", err)
		os.Exit(1)
	}
	logger.Log.Info("Notification retrier exiting")
}

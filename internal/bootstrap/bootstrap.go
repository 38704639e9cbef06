// Package bootstrap builds the external dependencies shared by the commands.
// Every constructor logs and returns an error instead of exiting: a dependency
// that fails to start makes its branch report unavailable, it never stops the
// process.
package bootstrap

import (
	"context"
	"fmt"

	"portfolio-contact-backend/config"
	"portfolio-contact-backend/internal/domain"
	"portfolio-contact-backend/internal/repository/mongodb"
	"portfolio-contact-backend/internal/repository/postgres"
	"portfolio-contact-backend/pkg/database"
	"portfolio-contact-backend/pkg/email"
	"portfolio-contact-backend/pkg/logger"
	redisclient "portfolio-contact-backend/pkg/redis"

	"github.com/redis/go-redis/v9"
)

// OpenStore connects the submission store selected by STORE_DRIVER. The
// returned close func is never nil.
func OpenStore(ctx context.Context, cfg *config.Config) (domain.SubmissionStore, func(), error) {
	noop := func() {}

	cred, err := cfg.StoreCredential()
	if err != nil {
		return nil, noop, err
	}

	switch cfg.StoreDriver {
	case config.StoreDriverMongo:
		client, err := database.NewMongoConnection(ctx, cred.URI)
		if err != nil {
			return nil, noop, err
		}
		coll := client.Database(cred.Database).Collection(cred.Collection)
		if err := mongodb.EnsureIndexes(ctx, coll); err != nil {
			logger.Log.Warn("Failed to ensure submission indexes", "error", err)
		}
		return mongodb.NewSubmissionRepository(coll), func() { database.CloseMongo(client) }, nil

	case config.StoreDriverPostgres:
		pool, err := database.NewPostgresConnection(ctx, cred.URI)
		if err != nil {
			return nil, noop, err
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, noop, err
		}
		return postgres.NewSubmissionRepository(pool), pool.Close, nil
	}
	return nil, noop, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}

// NewNotifier builds the operator email service.
func NewNotifier(cfg *config.Config) (*email.EmailService, error) {
	transport, err := email.NewTransportFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	sender, recipient := email.OperatorMailboxes(cfg)
	svc := email.NewEmailService(transport, sender, recipient)
	if !svc.IsConfigured() {
		return nil, fmt.Errorf("notification sender or recipient address missing")
	}
	return svc, nil
}

// OpenRedis connects to Redis when REDIS_URL is set. It returns (nil, nil) when
// Redis is not configured.
func OpenRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}
	return redisclient.NewClient(ctx, redisclient.Config{URL: cfg.RedisURL, Password: cfg.RedisPassword})
}

package usecase

import (
	"context"
	"time"

	"portfolio-contact-backend/internal/domain"
)

const (
	HealthOK          = "ok"
	HealthUnavailable = "unavailable"
	HealthDisabled    = "disabled"

	healthCheckTimeout = 2 * time.Second
)

type HealthUsecase interface {
	Check(ctx context.Context) map[string]string
}

// HealthDeps lists the dependencies reported by the health check. Any of them
// may be nil.
type HealthDeps struct {
	Store      domain.SubmissionStore
	Notifier   domain.Notifier
	RedisCheck func(ctx context.Context) error
}

type healthUsecase struct {
	deps HealthDeps
}

func NewHealthUsecase(deps HealthDeps) HealthUsecase {
	return &healthUsecase{deps: deps}
}

func (u *healthUsecase) Check(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	out := map[string]string{
		"status":   HealthOK,
		"store":    HealthUnavailable,
		"notifier": HealthUnavailable,
		"redis":    HealthDisabled,
	}

	if u.deps.Store != nil && u.deps.Store.Ping(ctx) == nil {
		out["store"] = HealthOK
	}
	if notifierReady(u.deps.Notifier) {
		out["notifier"] = HealthOK
	}
	if u.deps.RedisCheck != nil {
		out["redis"] = HealthOK
		if err := u.deps.RedisCheck(ctx); err != nil {
			out["redis"] = HealthUnavailable
		}
	}

	if out["store"] != HealthOK || out["notifier"] != HealthOK {
		out["status"] = "degraded"
	}
	return out
}

func notifierReady(n domain.Notifier) bool {
	if n == nil {
		return false
	}
	if c, ok := n.(interface{ IsConfigured() bool }); ok {
		return c.IsConfigured()
	}
	return true
}

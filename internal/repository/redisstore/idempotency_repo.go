package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"portfolio-contact-backend/internal/domain"

	"github.com/redis/go-redis/v9"
)

const idempotencyPrefix = "contact:idem:"

const (
	statePending = "pending"
	stateDone    = "done"
)

type idempotencyEntry struct {
	State  string `json:"state"`
	Status int    `json:"status,omitempty"`
	Body   []byte `json:"body,omitempty"`
}

type idempotencyRepo struct {
	client *redis.Client
}

// NewIdempotencyRepository stores idempotency keys in Redis.
func NewIdempotencyRepository(client *redis.Client) domain.IdempotencyStore {
	return &idempotencyRepo{client: client}
}

func (r *idempotencyRepo) Reserve(ctx context.Context, key string, ttl time.Duration) (*domain.StoredResponse, error) {
	pending, _ := json.Marshal(idempotencyEntry{State: statePending})

	// one retry covers a key that expired between SETNX and GET
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := r.client.SetNX(ctx, idempotencyPrefix+key, pending, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("reserve idempotency key: %w", err)
		}
		if ok {
			return nil, nil
		}

		raw, err := r.client.Get(ctx, idempotencyPrefix+key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read idempotency key: %w", err)
		}

		var entry idempotencyEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, fmt.Errorf("decode idempotency key: %w", err)
		}
		if entry.State != stateDone {
			return nil, domain.ErrIdempotencyInFlight
		}
		return &domain.StoredResponse{Status: entry.Status, Body: entry.Body}, nil
	}
	return nil, domain.ErrIdempotencyInFlight
}

func (r *idempotencyRepo) Complete(ctx context.Context, key string, resp domain.StoredResponse, ttl time.Duration) error {
	raw, err := json.Marshal(idempotencyEntry{State: stateDone, Status: resp.Status, Body: resp.Body})
	if err != nil {
		return err
	}
	return r.client.Set(ctx, idempotencyPrefix+key, raw, ttl).Err()
}

func (r *idempotencyRepo) Release(ctx context.Context, key string) error {
	return r.client.Del(ctx, idempotencyPrefix+key).Err()
}

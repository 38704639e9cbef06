package domain

import (
	"context"
	"errors"
	"time"
)

// ErrIdempotencyInFlight is returned while the first request for a key is still running.
var ErrIdempotencyInFlight = errors.New("submission already in progress")

// StoredResponse is the replayable response recorded under an idempotency key.
type StoredResponse struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

// IdempotencyStore reserves client-supplied keys so retried submissions are not re-executed.
type IdempotencyStore interface {
	// Reserve claims key for ttl. If the key already exists it returns the stored
	// response when one was recorded, or ErrIdempotencyInFlight.
	Reserve(ctx context.Context, key string, ttl time.Duration) (*StoredResponse, error)
	Complete(ctx context.Context, key string, resp StoredResponse, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

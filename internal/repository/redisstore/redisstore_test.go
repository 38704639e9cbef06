package redisstore

import (
	"context"
	"os"
	"testing"
	"time"

	"portfolio-contact-backend/internal/domain"
	redisclient "portfolio-contact-backend/pkg/redis"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient connects to TEST_REDIS_URL and flushes the selected database.
func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	client, err := redisclient.NewClient(context.Background(), redisclient.Config{URL: url})
	require.NoError(t, err)
	require.NoError(t, client.FlushDB(context.Background()).Err())
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestIdempotencyRepository(t *testing.T) {
	client := newTestClient(t)
	repo := NewIdempotencyRepository(client)
	ctx := context.Background()
	key := uuid.NewString()

	stored, err := repo.Reserve(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Nil(t, stored)

	_, err = repo.Reserve(ctx, key, time.Minute)
	assert.ErrorIs(t, err, domain.ErrIdempotencyInFlight)

	require.NoError(t, repo.Complete(ctx, key, domain.StoredResponse{Status: 200, Body: []byte(`{"success":true}`)}, time.Minute))
	stored, err = repo.Reserve(ctx, key, time.Minute)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 200, stored.Status)
	assert.JSONEq(t, `{"success":true}`, string(stored.Body))

	require.NoError(t, repo.Release(ctx, key))
	stored, err = repo.Reserve(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestRetryQueue(t *testing.T) {
	client := newTestClient(t)
	q := NewRetryQueue(client)
	ctx := context.Background()

	job := &domain.NotificationJob{
		ID:         uuid.NewString(),
		Record:     &domain.SubmissionRecord{ID: "rec-1", Name: "Ada", Email: "ada@example.com", Message: "Hello"},
		EnqueuedAt: time.Now().UTC(),
	}
	require.NoError(t, q.Enqueue(ctx, job))

	claimed, err := q.Claim(ctx, 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, job.ID, claimed[0].ID)
	assert.Equal(t, "rec-1", claimed[0].Record.ID)

	// leased jobs are not handed out twice
	claimed, err = q.Claim(ctx, 10, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, claimed)

	job.Attempt = 1
	require.NoError(t, q.Reschedule(ctx, job, time.Now().Add(-time.Second)))
	claimed, err = q.Claim(ctx, 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, 1, claimed[0].Attempt)

	require.NoError(t, q.DeadLetter(ctx, job))
	n, err := client.LLen(ctx, retryDeadKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, q.Enqueue(ctx, job))
	require.NoError(t, q.Ack(ctx, job.ID))
	claimed, err = q.Claim(ctx, 10, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, claimed)
}

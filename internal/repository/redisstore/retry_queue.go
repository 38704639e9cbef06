package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"portfolio-contact-backend/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	retryDueKey  = "contact:notify:due"  // zset: job id -> next attempt (unix ms)
	retryJobsKey = "contact:notify:jobs" // hash: job id -> job JSON
	retryDeadKey = "contact:notify:dead" // list of dead-lettered job JSON
)

// claimScript leases due jobs by pushing their score to now+lease in the same step
// KEYS[1] = due zset, KEYS[2] = jobs hash
// ARGV[1] = now (ms), ARGV[2] = limit, ARGV[3] = lease deadline (ms)
var claimScript = redis.NewScript(`
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, ARGV[2])
local out = {}
for _, id in ipairs(ids) do
    local payload = redis.call('HGET', KEYS[2], id)
    if payload then
        redis.call('ZADD', KEYS[1], ARGV[3], id)
        table.insert(out, payload)
    else
        redis.call('ZREM', KEYS[1], id)
    end
end
return out
`)

type retryQueue struct {
	client *redis.Client
	now    func() time.Time
}

// NewRetryQueue returns an at-least-once notification queue stored in Redis.
func NewRetryQueue(client *redis.Client) domain.RetryQueue {
	return &retryQueue{client: client, now: time.Now}
}

func (q *retryQueue) Enqueue(ctx context.Context, job *domain.NotificationJob) error {
	return q.schedule(ctx, job, q.now())
}

func (q *retryQueue) Claim(ctx context.Context, limit int, lease time.Duration) ([]*domain.NotificationJob, error) {
	now := q.now()
	payloads, err := claimScript.Run(ctx, q.client,
		[]string{retryDueKey, retryJobsKey},
		now.UnixMilli(), limit, now.Add(lease).UnixMilli(),
	).StringSlice()
	if err != nil {
		return nil, fmt.Errorf("claim notification jobs: %w", err)
	}

	jobs := make([]*domain.NotificationJob, 0, len(payloads))
	for _, p := range payloads {
		var job domain.NotificationJob
		if err := json.Unmarshal([]byte(p), &job); err != nil {
			return nil, fmt.Errorf("decode notification job: %w", err)
		}
		jobs = append(jobs, &job)
	}
	return jobs, nil
}

func (q *retryQueue) Ack(ctx context.Context, id string) error {
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, retryDueKey, id)
		pipe.HDel(ctx, retryJobsKey, id)
		return nil
	})
	return err
}

func (q *retryQueue) Reschedule(ctx context.Context, job *domain.NotificationJob, at time.Time) error {
	return q.schedule(ctx, job, at)
}

func (q *retryQueue) DeadLetter(ctx context.Context, job *domain.NotificationJob) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, retryDueKey, job.ID)
		pipe.HDel(ctx, retryJobsKey, job.ID)
		pipe.LPush(ctx, retryDeadKey, raw)
		return nil
	})
	return err
}

func (q *retryQueue) schedule(ctx context.Context, job *domain.NotificationJob, at time.Time) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, retryJobsKey, job.ID, raw)
		pipe.ZAdd(ctx, retryDueKey, redis.Z{Score: float64(at.UnixMilli()), Member: job.ID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("schedule notification job: %w", err)
	}
	return nil
}

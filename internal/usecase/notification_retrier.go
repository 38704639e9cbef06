package usecase

import (
	"context"
	"time"

	"portfolio-contact-backend/internal/domain"
	"portfolio-contact-backend/pkg/audit"
	"portfolio-contact-backend/pkg/logger"
)

const maxRetryBackoff = 5 * time.Minute

// RetrierConfig controls the notification retry worker.
type RetrierConfig struct {
	MaxAttempts  int
	BatchSize    int
	Lease        time.Duration
	PollInterval time.Duration
	SendTimeout  time.Duration
}

// NotificationRetrier drains the retry queue. Delivery is at least once: a job
// is only acked after the notifier reported success.
type NotificationRetrier struct {
	queue    domain.RetryQueue
	notifier domain.Notifier
	audit    *audit.Logger
	cfg      RetrierConfig
	now      func() time.Time
}

func NewNotificationRetrier(queue domain.RetryQueue, notifier domain.Notifier, auditLogger *audit.Logger, cfg RetrierConfig) *NotificationRetrier {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.Lease <= 0 {
		cfg.Lease = time.Minute
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaultBranchTimeout
	}
	return &NotificationRetrier{
		queue:    queue,
		notifier: notifier,
		audit:    auditLogger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Backoff returns the delay before retry n (zero based): 1s, 2s, 4s ... capped at 5m.
func Backoff(n int) time.Duration {
	if n < 0 {
		n = 0
	}
	if n > 16 {
		return maxRetryBackoff
	}
	d := time.Duration(1<<n) * time.Second
	if d > maxRetryBackoff {
		return maxRetryBackoff
	}
	return d
}

// Run polls the queue until ctx is cancelled.
func (r *NotificationRetrier) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if _, err := r.ProcessBatch(ctx); err != nil {
			logger.Log.Error("Retry batch failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ProcessBatch claims due jobs and attempts each once. It returns how many
// jobs were delivered.
func (r *NotificationRetrier) ProcessBatch(ctx context.Context) (int, error) {
	jobs, err := r.queue.Claim(ctx, r.cfg.BatchSize, r.cfg.Lease)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, job := range jobs {
		if ctx.Err() != nil {
			// unprocessed jobs become due again when their lease expires
			return delivered, ctx.Err()
		}
		if r.process(ctx, job) {
			delivered++
		}
	}
	return delivered, nil
}

func (r *NotificationRetrier) process(ctx context.Context, job *domain.NotificationJob) bool {
	if job.Record == nil {
		logger.Log.Warn("Dropping notification job without record", "job_id", job.ID)
		if err := r.queue.DeadLetter(ctx, job); err != nil {
			logger.Log.Error("Failed to dead-letter job", "job_id", job.ID, "error", err)
		}
		return false
	}

	sendCtx, cancel := context.WithTimeout(ctx, r.cfg.SendTimeout)
	err := r.notifier.Notify(sendCtx, job.Record)
	cancel()

	if err == nil {
		if ackErr := r.queue.Ack(ctx, job.ID); ackErr != nil {
			// the lease expires and the email is sent again; acceptable for at-least-once
			logger.Log.Error("Failed to ack notification job", "job_id", job.ID, "error", ackErr)
		}
		logger.Log.Info("Notification retry delivered", "job_id", job.ID, "record_id", job.Record.ID, "attempt", job.Attempt+1)
		return true
	}

	job.Attempt++
	job.LastError = err.Error()
	event := audit.Event{
		Submitter: audit.MaskEmail(job.Record.Email),
		RecordID:  job.Record.ID,
		Details:   map[string]interface{}{"job_id": job.ID, "attempt": job.Attempt, "error": job.LastError},
	}

	if job.Attempt >= r.cfg.MaxAttempts {
		event.Event = audit.EventNotificationDeadLettered
		r.audit.Log(ctx, event)
		if dlErr := r.queue.DeadLetter(ctx, job); dlErr != nil {
			logger.Log.Error("Failed to dead-letter job", "job_id", job.ID, "error", dlErr)
		}
		return false
	}

	next := r.now().Add(Backoff(job.Attempt - 1))
	event.Event = audit.EventNotificationRetried
	event.Details["next_attempt_at"] = next.UTC().Format(time.RFC3339)
	r.audit.Log(ctx, event)
	if rsErr := r.queue.Reschedule(ctx, job, next); rsErr != nil {
		logger.Log.Error("Failed to reschedule job", "job_id", job.ID, "error", rsErr)
	}
	return false
}

package domain

import (
	"context"
	"time"
)

// NotificationJob asks for the operator email of an already stored record to be sent again.
type NotificationJob struct {
	ID         string            `json:"id"`
	Record     *SubmissionRecord `json:"record"`
	Attempt    int               `json:"attempt"`
	LastError  string            `json:"last_error,omitempty"`
	EnqueuedAt time.Time         `json:"enqueued_at"`
}

// RetryQueue is an at-least-once queue of notification jobs.
type RetryQueue interface {
	Enqueue(ctx context.Context, job *NotificationJob) error
	// Claim leases up to limit due jobs; an un-acked job becomes due again after lease.
	Claim(ctx context.Context, limit int, lease time.Duration) ([]*NotificationJob, error)
	Ack(ctx context.Context, id string) error
	Reschedule(ctx context.Context, job *NotificationJob, at time.Time) error
	DeadLetter(ctx context.Context, job *NotificationJob) error
}

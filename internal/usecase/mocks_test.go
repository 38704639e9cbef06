package usecase_test

import (
	"context"
	"time"

	"portfolio-contact-backend/internal/domain"

	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Save(ctx context.Context, rec *domain.SubmissionRecord) (string, error) {
	args := m.Called(ctx, rec)
	return args.String(0), args.Error(1)
}

func (m *MockStore) List(ctx context.Context, opts domain.ListOptions) ([]*domain.SubmissionRecord, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.SubmissionRecord), args.Error(1)
}

func (m *MockStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, rec *domain.SubmissionRecord) error {
	return m.Called(ctx, rec).Error(0)
}

// notifierFunc adapts a function for cases a mock cannot express, such as panics
type notifierFunc func(ctx context.Context, rec *domain.SubmissionRecord) error

func (f notifierFunc) Notify(ctx context.Context, rec *domain.SubmissionRecord) error {
	return f(ctx, rec)
}

type MockQueue struct {
	mock.Mock
}

func (m *MockQueue) Enqueue(ctx context.Context, job *domain.NotificationJob) error {
	return m.Called(ctx, job).Error(0)
}

func (m *MockQueue) Claim(ctx context.Context, limit int, lease time.Duration) ([]*domain.NotificationJob, error) {
	args := m.Called(ctx, limit, lease)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.NotificationJob), args.Error(1)
}

func (m *MockQueue) Ack(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockQueue) Reschedule(ctx context.Context, job *domain.NotificationJob, at time.Time) error {
	return m.Called(ctx, job, at).Error(0)
}

func (m *MockQueue) DeadLetter(ctx context.Context, job *domain.NotificationJob) error {
	return m.Called(ctx, job).Error(0)
}

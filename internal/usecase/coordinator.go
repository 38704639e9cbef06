package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"portfolio-contact-backend/internal/domain"
	"portfolio-contact-backend/pkg/logger"
)

const defaultBranchTimeout = 10 * time.Second

// CoordinatorConfig bounds each branch independently.
type CoordinatorConfig struct {
	StoreTimeout  time.Duration
	NotifyTimeout time.Duration
}

// DualWriteCoordinator runs the store write and the operator notification
// concurrently and joins both outcomes. A nil store or notifier is treated as a
// dependency that failed to initialize.
type DualWriteCoordinator struct {
	store    domain.SubmissionStore
	notifier domain.Notifier
	cfg      CoordinatorConfig
	now      func() time.Time
}

func NewDualWriteCoordinator(store domain.SubmissionStore, notifier domain.Notifier, cfg CoordinatorConfig) *DualWriteCoordinator {
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = defaultBranchTimeout
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = defaultBranchTimeout
	}
	return &DualWriteCoordinator{
		store:    store,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Dispatch never returns early: both branches reach a terminal state before the
// result is built. Branches are detached from ctx cancellation so a client
// disconnect cannot abort a write; each is bounded by its own timeout only.
func (c *DualWriteCoordinator) Dispatch(ctx context.Context, req *domain.SubmissionRequest) domain.DispatchResult {
	rec := domain.NewSubmissionRecord(req, c.now())
	branchCtx := context.WithoutCancel(ctx)

	var (
		wg        sync.WaitGroup
		storeOut  domain.Outcome
		notifyOut domain.Outcome
		recordID  string
	)
	wg.Add(2)

	go func() {
		defer wg.Done()
		storeRec := *rec
		storeOut, recordID = c.storeBranch(branchCtx, &storeRec)
	}()
	go func() {
		defer wg.Done()
		notifyRec := *rec
		notifyOut = c.notifyBranch(branchCtx, &notifyRec)
	}()
	wg.Wait()

	rec.ID = recordID
	return domain.DispatchResult{
		RecordID:     recordID,
		Record:       rec,
		Store:        storeOut,
		Notification: notifyOut,
	}
}

func (c *DualWriteCoordinator) storeBranch(ctx context.Context, rec *domain.SubmissionRecord) (domain.Outcome, string) {
	if c.store == nil {
		return domain.Failed(domain.BranchStore, domain.OutcomeServiceUnavailable, "store not initialized"), ""
	}
	return runBranch(ctx, domain.BranchStore, domain.OutcomeStoreWriteFailed, c.cfg.StoreTimeout, func(ctx context.Context) (string, error) {
		return c.store.Save(ctx, rec)
	})
}

func (c *DualWriteCoordinator) notifyBranch(ctx context.Context, rec *domain.SubmissionRecord) domain.Outcome {
	if c.notifier == nil {
		return domain.Failed(domain.BranchNotification, domain.OutcomeServiceUnavailable, "notifier not initialized")
	}
	out, _ := runBranch(ctx, domain.BranchNotification, domain.OutcomeNotificationSendFailed, c.cfg.NotifyTimeout, func(ctx context.Context) (string, error) {
		return "", c.notifier.Notify(ctx, rec)
	})
	return out
}

type branchResult struct {
	value string
	err   error
}

// runBranch executes fn under its own deadline and converts every result,
// including a panic or a call that ignores ctx, into an Outcome. The value is
// only returned when fn finished in time. A callee that ignores ctx keeps running
// after the deadline; the store drivers both abort on ctx.
func runBranch(ctx context.Context, branch domain.Branch, failKind domain.OutcomeKind, timeout time.Duration, fn func(context.Context) (string, error)) (domain.Outcome, string) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan branchResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Log.Error("Branch panicked", "branch", branch, "panic", fmt.Sprint(r))
				done <- branchResult{err: fmt.Errorf("unexpected error in %s branch", branch)}
			}
		}()
		v, err := fn(ctx)
		done <- branchResult{value: v, err: err}
	}()

	var res branchResult
	select {
	case res = <-done:
	case <-ctx.Done():
		res = branchResult{err: ctx.Err()}
	}
	if res.err != nil {
		return normalizeOutcome(branch, failKind, res.err), ""
	}
	return domain.Succeeded(branch), res.value
}

func normalizeOutcome(branch domain.Branch, failKind domain.OutcomeKind, err error) domain.Outcome {
	switch {
	case err == nil:
		return domain.Succeeded(branch)
	case errors.Is(err, domain.ErrServiceUnavailable):
		return domain.Failed(branch, domain.OutcomeServiceUnavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, domain.ErrBranchTimeout):
		return domain.Failed(branch, failKind, domain.ErrBranchTimeout.Error())
	default:
		return domain.Failed(branch, failKind, err.Error())
	}
}

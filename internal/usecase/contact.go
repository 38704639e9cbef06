package usecase

import (
	"context"
	"errors"
	"time"

	"portfolio-contact-backend/internal/domain"
	"portfolio-contact-backend/pkg/audit"
	"portfolio-contact-backend/pkg/logger"

	"github.com/google/uuid"
)

const enqueueTimeout = 3 * time.Second

type contactUsecase struct {
	validator   *SubmissionValidator
	coordinator *DualWriteCoordinator
	queue       domain.RetryQueue
	audit       *audit.Logger
	newID       func() string
}

// NewContactUsecase wires the validator and the dual-write coordinator. queue
// may be nil, in which case a failed notification is only reported.
func NewContactUsecase(coordinator *DualWriteCoordinator, queue domain.RetryQueue, auditLogger *audit.Logger) domain.ContactUsecase {
	return &contactUsecase{
		validator:   NewSubmissionValidator(),
		coordinator: coordinator,
		queue:       queue,
		audit:       auditLogger,
		newID:       uuid.NewString,
	}
}

func (uc *contactUsecase) ValidateSubmission(method string, fields map[string]string) (*domain.SubmissionRequest, error) {
	req, err := uc.validator.Validate(method, fields)
	if err != nil {
		details := map[string]interface{}{"method": method}
		var missing *domain.MissingFieldsError
		if errors.As(err, &missing) {
			details["missing"] = missing.Fields
		}
		uc.audit.Log(context.Background(), audit.Event{
			Event:     audit.EventSubmissionRejected,
			Submitter: audit.MaskEmail(fields["email"]),
			Details:   details,
		})
		return nil, err
	}
	return req, nil
}

func (uc *contactUsecase) Submit(ctx context.Context, req *domain.SubmissionRequest) domain.DispatchResult {
	result := uc.coordinator.Dispatch(ctx, req)

	requestID, _ := ctx.Value(domain.KeyRequestID).(string)
	base := audit.Event{
		Submitter: audit.MaskEmail(req.Email),
		RecordID:  result.RecordID,
		IP:        req.ClientIP,
		RequestID: requestID,
	}

	for _, o := range []domain.Outcome{result.Store, result.Notification} {
		if o.OK {
			continue
		}
		ev := base
		ev.Event = audit.EventBranchFailed
		ev.Details = map[string]interface{}{"branch": string(o.Branch), "kind": o.Kind.String(), "reason": o.Reason}
		uc.audit.Log(ctx, ev)
	}

	if result.Store.OK && !result.Notification.OK && uc.queue != nil {
		result.NotificationQueued = uc.enqueueRetry(ctx, result)
	}

	ev := base
	ev.Event = audit.EventSubmissionCompleted
	ev.Details = map[string]interface{}{
		"state":               result.State().String(),
		"notification_queued": result.NotificationQueued,
	}
	uc.audit.Log(ctx, ev)

	logger.Log.Info("Submission dispatched",
		"request_id", requestID,
		"record_id", result.RecordID,
		"result", result.Summary(),
	)
	return result
}

// enqueueRetry hands the stored record to the retry queue so the operator
// email is eventually delivered.
func (uc *contactUsecase) enqueueRetry(ctx context.Context, result domain.DispatchResult) bool {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), enqueueTimeout)
	defer cancel()

	rec := *result.Record
	job := &domain.NotificationJob{
		ID:         uc.newID(),
		Record:     &rec,
		LastError:  result.Notification.Reason,
		EnqueuedAt: time.Now().UTC(),
	}
	if err := uc.queue.Enqueue(ctx, job); err != nil {
		logger.Log.Error("Failed to enqueue notification retry", "record_id", result.RecordID, "error", err)
		return false
	}
	return true
}

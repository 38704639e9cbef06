package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// UnknownClientValue is stored when request metadata is missing.
const UnknownClientValue = "unknown"

var (
	// ErrServiceUnavailable marks a dependency that failed to initialize at startup.
	ErrServiceUnavailable = errors.New("service unavailable")
	// ErrBranchTimeout is reported when a branch exceeds its own deadline.
	ErrBranchTimeout = errors.New("timeout")
)

// SubmissionRequest is a validated contact form submission.
type SubmissionRequest struct {
	Name            string
	Email           string
	Message         string
	ClientIP        string
	ClientUserAgent string
	IdempotencyKey  string
}

// SubmissionRecord is the persisted form of an accepted submission.
// ID is assigned by the store on write.
type SubmissionRecord struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Message         string    `json:"message"`
	ClientIP        string    `json:"client_ip"`
	ClientUserAgent string    `json:"client_user_agent"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewSubmissionRecord copies the validated fields into a record stamped with createdAt.
func NewSubmissionRecord(req *SubmissionRequest, createdAt time.Time) *SubmissionRecord {
	return &SubmissionRecord{
		Name:            req.Name,
		Email:           req.Email,
		Message:         req.Message,
		ClientIP:        orUnknown(req.ClientIP),
		ClientUserAgent: orUnknown(req.ClientUserAgent),
		CreatedAt:       createdAt.UTC(),
	}
}

func orUnknown(v string) string {
	if strings.TrimSpace(v) == "" {
		return UnknownClientValue
	}
	return v
}

// Mailbox is an address with an optional display name.
type Mailbox struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// NotificationMessage is the operator email built for one submission. Never persisted.
type NotificationMessage struct {
	Subject   string
	HTMLBody  string
	TextBody  string
	Sender    Mailbox
	Recipient Mailbox
	ReplyTo   Mailbox
}

// ListOptions filters SubmissionStore.List.
type ListOptions struct {
	Since time.Time
	Limit int
}

// SubmissionStore appends submission records to a durable collection.
type SubmissionStore interface {
	// Save persists rec and returns the store-assigned identifier.
	Save(ctx context.Context, rec *SubmissionRecord) (string, error)
	// List returns records newest first.
	List(ctx context.Context, opts ListOptions) ([]*SubmissionRecord, error)
	Ping(ctx context.Context) error
}

// Notifier sends the operator notification for a record.
type Notifier interface {
	Notify(ctx context.Context, rec *SubmissionRecord) error
}

// SubmitAllowedMethods is advertised in the Allow header of the submit endpoint.
func SubmitAllowedMethods() []string {
	return []string{http.MethodPost, http.MethodOptions}
}

// MethodNotAllowedError rejects a request whose HTTP method is not accepted.
type MethodNotAllowedError struct {
	Method  string
	Allowed []string
}

func (e *MethodNotAllowedError) Error() string {
	return fmt.Sprintf("Method %s Not Allowed", e.Method)
}

// MissingFieldsError rejects a submission with absent or blank required fields.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "Missing required fields: " + strings.Join(e.Fields, ", ")
}

// ContactUsecase validates contact form submissions and dispatches accepted ones.
type ContactUsecase interface {
	// ValidateSubmission checks the method and required fields. It has no side effects.
	ValidateSubmission(method string, fields map[string]string) (*SubmissionRequest, error)
	// Submit runs the store write and the notification concurrently and joins both.
	Submit(ctx context.Context, req *SubmissionRequest) DispatchResult
}

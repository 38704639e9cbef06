package domain

import (
	"fmt"
	"strings"
)

// Branch names one of the two side effects of a submission.
type Branch string

const (
	BranchStore        Branch = "store"
	BranchNotification Branch = "email"
)

// OutcomeKind is the closed set of results a branch can end in.
type OutcomeKind int

const (
	OutcomeOK OutcomeKind = iota
	OutcomeStoreWriteFailed
	OutcomeNotificationSendFailed
	OutcomeServiceUnavailable
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "ok"
	case OutcomeStoreWriteFailed:
		return "store_write_failed"
	case OutcomeNotificationSendFailed:
		return "notification_send_failed"
	case OutcomeServiceUnavailable:
		return "service_unavailable"
	}
	return "unknown"
}

// Outcome is the normalized result of one branch.
type Outcome struct {
	Branch Branch      `json:"-"`
	Kind   OutcomeKind `json:"-"`
	OK     bool        `json:"ok"`
	Reason string      `json:"error,omitempty"`
}

// Succeeded builds an OK outcome for b.
func Succeeded(b Branch) Outcome {
	return Outcome{Branch: b, Kind: OutcomeOK, OK: true}
}

// Failed builds a failed outcome for b.
func Failed(b Branch, kind OutcomeKind, reason string) Outcome {
	return Outcome{Branch: b, Kind: kind, Reason: reason}
}

// AggregateState reduces an outcome pair.
type AggregateState int

const (
	BothSucceeded AggregateState = iota
	PartialFailure
	BothFailed
)

func (s AggregateState) String() string {
	switch s {
	case BothSucceeded:
		return "both_succeeded"
	case PartialFailure:
		return "partial_failure"
	default:
		return "both_failed"
	}
}

// SuccessMessage is returned when both branches succeed.
const SuccessMessage = "Message saved and email sent successfully!"

// DispatchResult is the joined result of the store write and the email send.
type DispatchResult struct {
	RecordID     string
	Record       *SubmissionRecord
	Store        Outcome
	Notification Outcome
	// NotificationQueued is set when a failed email was handed to the retry queue.
	NotificationQueued bool
}

// State reduces the pair into one of the three aggregate states.
func (r DispatchResult) State() AggregateState {
	switch {
	case r.Store.OK && r.Notification.OK:
		return BothSucceeded
	case !r.Store.OK && !r.Notification.OK:
		return BothFailed
	default:
		return PartialFailure
	}
}

// Failed lists the branches that did not succeed, store first.
func (r DispatchResult) Failed() []Branch {
	var out []Branch
	if !r.Store.OK {
		out = append(out, BranchStore)
	}
	if !r.Notification.OK {
		out = append(out, BranchNotification)
	}
	return out
}

// ErrorText describes a non-successful result. "Saved but not notified" and
// "notified but not saved" read differently because the recovery differs.
func (r DispatchResult) ErrorText() string {
	switch r.State() {
	case BothSucceeded:
		return ""
	case BothFailed:
		return fmt.Sprintf("Message was not saved (store: %s) and the notification email was not sent (email: %s)",
			r.Store.Reason, r.Notification.Reason)
	}
	if !r.Store.OK {
		return fmt.Sprintf("Notification email was sent but the message was not saved (store: %s)", r.Store.Reason)
	}
	return fmt.Sprintf("Message was saved but the notification email was not sent (email: %s)", r.Notification.Reason)
}

// Reasons returns "branch: reason" pairs for failed branches.
func (r DispatchResult) Reasons() []string {
	var out []string
	for _, o := range []Outcome{r.Store, r.Notification} {
		if !o.OK {
			out = append(out, string(o.Branch)+": "+o.Reason)
		}
	}
	return out
}

// Summary is a compact string for logs.
func (r DispatchResult) Summary() string {
	if r.State() == BothSucceeded {
		return r.State().String()
	}
	return r.State().String() + " [" + strings.Join(r.Reasons(), "; ") + "]"
}

package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a failed turn. It drives the user message, the HTTP
// status and metrics, never the response body beyond the message.
type ErrorKind string

const (
	KindNone                  ErrorKind = ""
	KindRateLimited           ErrorKind = "rate_limited"
	KindBanned                ErrorKind = "banned"
	KindValidationLength      ErrorKind = "validation_length"
	KindValidationAdversarial ErrorKind = "validation_adversarial"
	KindAccessDenied          ErrorKind = "access_denied"
	KindNotFound              ErrorKind = "not_found"
	KindConversationBusy      ErrorKind = "conversation_busy"
	KindTimeout               ErrorKind = "external_timeout"
	KindQuotaExceeded         ErrorKind = "external_quota"
	KindExternalFailure       ErrorKind = "external_failure"
	KindUnknown               ErrorKind = "unknown"
)

// Retryable reports whether the same request may succeed later unchanged.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindRateLimited, KindBanned, KindConversationBusy, KindTimeout, KindQuotaExceeded, KindExternalFailure, KindUnknown:
		return true
	default:
		return false
	}
}

const (
	MessageAccessDenied    = "Sorry, you don't have access to that conversation."
	MessageNotFound        = "Sorry, that conversation could not be found."
	MessageBusy            = "Your previous message in this conversation is still being answered. Please wait a moment."
	MessageTimeout         = "The assistant is taking longer than usual to respond. Please try again."
	MessageQuotaExceeded   = "The assistant is temporarily unavailable due to service limits. Please try again later."
	MessageExternalFailure = "Sorry, I couldn't get a response right now. Please try again."
	MessageUnknown         = "Failed to get response. Please try again."
)

var (
	// ErrRunTimeout means a run did not finish before the polling deadline.
	ErrRunTimeout = errors.New("assistant run did not complete before the deadline")
	// ErrQuotaExceeded marks quota or billing failures reported by the provider.
	ErrQuotaExceeded = errors.New("assistant provider quota exceeded")
	// ErrInvalidRunTransition means the provider reported an impossible status change.
	ErrInvalidRunTransition = errors.New("invalid run status transition")
	// ErrNoReply means a completed run or completion produced no assistant text.
	ErrNoReply = errors.New("assistant produced no reply")
)

// ExternalError wraps a failed call to the AI service.
type ExternalError struct {
	Op  string
	Err error
}

func (e *ExternalError) Error() string {
	return fmt.Sprintf("assistant provider %s: %v", e.Op, e.Err)
}

func (e *ExternalError) Unwrap() error {
	return e.Err
}

func external(op string, err error) error {
	if err == nil {
		return nil
	}
	return &ExternalError{Op: op, Err: err}
}

// RunFailedError is a run that ended in failed, cancelled or expired.
type RunFailedError struct {
	RunID   string
	Status  RunStatus
	Code    string
	Message string
}

func (e *RunFailedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("run %s ended with status %s", e.RunID, e.Status)
	}
	return fmt.Sprintf("run %s ended with status %s: %s: %s", e.RunID, e.Status, e.Code, e.Message)
}

// Is lets quota failures match ErrQuotaExceeded.
func (e *RunFailedError) Is(target error) bool {
	return target == ErrQuotaExceeded && IsQuotaText(e.Code+" "+e.Message)
}

// IsQuotaText reports whether an error code or message describes a quota or
// billing condition.
func IsQuotaText(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "quota") || strings.Contains(lower, "billing")
}

// classify maps an error from the reply strategies onto the taxonomy.
func classify(err error) (ErrorKind, string) {
	var runErr *RunFailedError
	var extErr *ExternalError

	switch {
	case errors.Is(err, ErrQuotaExceeded):
		return KindQuotaExceeded, MessageQuotaExceeded
	case errors.Is(err, ErrRunTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout, MessageTimeout
	case errors.As(err, &runErr), errors.As(err, &extErr), errors.Is(err, ErrNoReply), errors.Is(err, ErrInvalidRunTransition):
		return KindExternalFailure, MessageExternalFailure
	default:
		return KindUnknown, MessageUnknown
	}
}

// Package errors provides standardized error handling for the push agent.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Subscription establishment errors (fatal to enabling push).
const (
	ErrCodePlatformUnsupported ErrorCode = "PLATFORM_UNSUPPORTED"
	ErrCodePermissionDenied    ErrorCode = "PERMISSION_DENIED"
	ErrCodeRequestAborted      ErrorCode = "REQUEST_ABORTED"
	ErrCodeRequestTimeout      ErrorCode = "REQUEST_TIMEOUT"
	ErrCodeKeyPreparation      ErrorCode = "KEY_PREPARATION_FAILED"
	ErrCodeRegistrationFailed  ErrorCode = "REGISTRATION_FAILED"
	ErrCodeSubscribeFailed     ErrorCode = "SUBSCRIBE_FAILED"
)

// Per-payload errors (recovered locally, never surfaced to the end user).
const (
	ErrCodePayloadMalformed ErrorCode = "PAYLOAD_MALFORMED"
	ErrCodeRenderFailed     ErrorCode = "RENDER_FAILED"
)

// Best-effort side-call errors (logged only).
const (
	ErrCodeAnnounceFailed    ErrorCode = "ANNOUNCE_FAILED"
	ErrCodeRemoveFailed      ErrorCode = "REMOVE_FAILED"
	ErrCodeReadReceiptFailed ErrorCode = "READ_RECEIPT_FAILED"
	ErrCodeStoreUnavailable  ErrorCode = "STORE_UNAVAILABLE"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewPlatformUnsupportedError reports a missing platform capability. The
// caller cannot fix this by retrying; the message is shown to the user as-is.
func NewPlatformUnsupportedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodePlatformUnsupported,
		Message:   "Push notifications are not supported on this platform",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPermissionDeniedError reports a user-denied notification permission.
// Kept distinct from other failures so the UI can direct the user to
// settings instead of retrying.
func NewPermissionDeniedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodePermissionDenied,
		Message:   "Notification permission was denied",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRequestAbortedError reports a cancelled subscription request.
func NewRequestAbortedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRequestAborted,
		Message:   "Push subscription request was aborted",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRequestTimeoutError reports a subscription request that exceeded the
// subscribe deadline. Distinct from platform-level rejection.
func NewRequestTimeoutError(timeout time.Duration) *StandardError {
	return &StandardError{
		Code:      ErrCodeRequestTimeout,
		Message:   "Push subscription request timed out",
		Details:   fmt.Sprintf("no response within %s", timeout),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewKeyPreparationError reports an application server key that could not be
// decoded into usable key material.
func NewKeyPreparationError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeKeyPreparation,
		Message:   "Could not prepare the push application key",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRegistrationFailedError reports a failed background handler registration.
func NewRegistrationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRegistrationFailed,
		Message:   "Background delivery handler registration failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSubscribeFailedError reports a platform-level subscription rejection.
func NewSubscribeFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSubscribeFailed,
		Message:   "Could not enable notifications",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Advisory Outcomes
// ==========================

// Advisory records the failure of a best-effort side call. Advisories never
// alter the primary outcome of the operation that produced them; they exist
// so callers and tests can assert on them independently.
type Advisory struct {
	Code      ErrorCode `json:"code"`
	Operation string    `json:"operation"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewAdvisory(code ErrorCode, operation string, err error) Advisory {
	a := Advisory{
		Code:      code,
		Operation: operation,
		Timestamp: time.Now().UTC(),
	}
	if err != nil {
		a.Details = err.Error()
	}
	return a
}

// HasCode reports whether any advisory in the slice carries the given code.
func HasCode(advisories []Advisory, code ErrorCode) bool {
	for _, a := range advisories {
		if a.Code == code {
			return true
		}
	}
	return false
}

// ==========================
// 4. Utility Functions
// ==========================

// IsFatalToEnable reports whether the code prevents the ability to receive
// notifications at all, as opposed to affecting a single payload or a single
// best-effort synchronization.
func IsFatalToEnable(code ErrorCode) bool {
	switch code {
	case ErrCodePlatformUnsupported,
		ErrCodePermissionDenied,
		ErrCodeRequestAborted,
		ErrCodeRequestTimeout,
		ErrCodeKeyPreparation,
		ErrCodeRegistrationFailed,
		ErrCodeSubscribeFailed:
		return true
	default:
		return false
	}
}

package catalog

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("catalog: not found")
	ErrAlreadyExists = errors.New("catalog: already exists")
	ErrInvalidInput  = errors.New("catalog: invalid input")
	ErrUnauthorized  = errors.New("catalog: unauthorized")

	// Entity errors
	ErrUserNotFound     = errors.New("catalog: user not found")
	ErrAppNotFound      = errors.New("catalog: application not found")
	ErrFeedbackNotFound = errors.New("catalog: feedback not found")

	// Quota/plan errors
	ErrQuotaExceeded = errors.New("catalog: quota exceeded")
	ErrPlanRequired  = errors.New("catalog: action requires pro plan")

	// Rating errors
	ErrRatingOutOfRange = errors.New("catalog: rating outside 1..5")
	ErrNoRatingAxis     = errors.New("catalog: no rating axis supplied")

	// Feedback errors
	ErrCommentTooLong = errors.New("catalog: comment exceeds character cap")

	// Billing errors
	ErrUnresolvedBillingEvent = errors.New("catalog: billing event matched no user")
	ErrInvalidBillingEvent    = errors.New("catalog: invalid billing event")

	// Search errors
	ErrSearchIndexUnavailable = errors.New("catalog: search index unavailable")

	// Store errors
	ErrWriteConflict = errors.New("catalog: write conflict")
	ErrStoreNotReady = errors.New("catalog: store not ready")
	ErrStoreClosed   = errors.New("catalog: store is closed")
	ErrCacheMiss     = errors.New("catalog: cache miss")
)

// QuotaError wraps ErrQuotaExceeded with the limit for client display.
// Resource is "listings" or "description".
type QuotaError struct {
	Resource string
	Limit    int
	Actual   int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("catalog: %s quota exceeded: %d over limit %d", e.Resource, e.Actual, e.Limit)
}

// Unwrap makes errors.Is(err, ErrQuotaExceeded) hold.
func (e *QuotaError) Unwrap() error { return ErrQuotaExceeded }

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrAppNotFound) ||
		errors.Is(err, ErrFeedbackNotFound)
}

// IsValidation returns true for errors that must be surfaced to the caller
// and never retried.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrQuotaExceeded) ||
		errors.Is(err, ErrPlanRequired) ||
		errors.Is(err, ErrRatingOutOfRange) ||
		errors.Is(err, ErrNoRatingAxis) ||
		errors.Is(err, ErrCommentTooLong) ||
		errors.Is(err, ErrInvalidBillingEvent)
}

// IsRetryable returns true if the error is temporary and the operation can
// be retried. Core operations are idempotent, so retrying after a
// transient store failure is safe.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrWriteConflict) ||
		errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrStoreClosed)
}

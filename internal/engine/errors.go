package engine

import (
	"errors"
	"fmt"

	"presence/internal/directory"
)

// Sentinel errors for errors.Is checks. DuplicateScan and
// ConcurrencyConflict are expected control-flow outcomes, not failures:
// callers surface them to the operator and may retry.
var (
	// ErrNoActivePeriod means the active school period precondition failed:
	// zero or more than one period is flagged active.
	ErrNoActivePeriod = errors.New("no single active school period")

	// ErrDuplicateScan means the scan landed inside the debounce window of
	// the previous accepted event.
	ErrDuplicateScan = errors.New("duplicate scan rejected")

	// ErrConcurrencyConflict means the scan lost the per-person critical
	// section to a concurrent request. Safe to retry immediately.
	ErrConcurrencyConflict = errors.New("concurrent scan in progress")
)

// DuplicateScanError carries how long the operator must wait before the
// next scan for this person is accepted.
type DuplicateScanError struct {
	PersonID         string
	RemainingSeconds int
}

func (e *DuplicateScanError) Error() string {
	return fmt.Sprintf("duplicate scan for %s, retry in %ds", e.PersonID, e.RemainingSeconds)
}

func (e *DuplicateScanError) Unwrap() error { return ErrDuplicateScan }

// ValidationError reports malformed scan input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsClientError reports whether the error is the caller's fault rather
// than an engine or store failure.
func IsClientError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) ||
		errors.Is(err, directory.ErrIdentityNotFound) ||
		errors.Is(err, directory.ErrRoleNotAuthorized) ||
		errors.Is(err, ErrDuplicateScan)
}

// IsRetryable reports whether an immediate retry might succeed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}

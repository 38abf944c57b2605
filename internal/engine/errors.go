package engine

import (
	"errors"
	"fmt"
)

// StoreError reports an infrastructure failure while reading match data.
// It is distinct from a business rejection and should surface as a server
// error to callers.
type StoreError struct {
	// Op names the read that failed ("goals", "cards", "roster", ...).
	Op string

	// MatchID identifies the affected match.
	MatchID string

	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("store: read %s for match %s: %v", e.Op, e.MatchID, e.Err)
}

// Unwrap returns the underlying store error.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsStoreError returns true if the error is or wraps a StoreError.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

func storeErr(op, matchID string, err error) *StoreError {
	return &StoreError{Op: op, MatchID: matchID, Err: err}
}

// Verdict is the outcome of an eligibility check.
// Reason is empty when Valid is true and always safe to show to end users.
type Verdict struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"error,omitempty"`
}

// Accept is the valid verdict.
var Accept = Verdict{Valid: true}

// Reject builds an invalid verdict with a formatted reason.
func Reject(format string, args ...any) Verdict {
	return Verdict{Valid: false, Reason: fmt.Sprintf(format, args...)}
}

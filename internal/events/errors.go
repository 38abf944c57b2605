package events

import (
	"errors"
	"fmt"
)

// RejectedError reports a business-rule rejection: a field that fails
// validation, an ineligible player, a conflict with later events, or a
// match in the wrong status. Reason is safe to show to end users.
type RejectedError struct {
	// Op names the rejected operation ("create card", "start match", ...).
	Op string

	Reason string

	// Err is the underlying field error, if any.
	Err error
}

// Error implements the error interface.
func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s rejected: %s", e.Op, e.Reason)
}

// Unwrap returns the underlying field error.
func (e *RejectedError) Unwrap() error {
	return e.Err
}

// IsRejected returns true if the error is or wraps a RejectedError.
func IsRejected(err error) bool {
	var re *RejectedError
	return errors.As(err, &re)
}

func reject(op, format string, args ...any) *RejectedError {
	return &RejectedError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

func rejectField(op string, err error) *RejectedError {
	return &RejectedError{Op: op, Reason: err.Error(), Err: err}
}

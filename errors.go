package motif

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// InvalidQueryError is returned when a motif cannot be searched for: a
// residue selection that doesn't exist, residues too far apart to be in
// contact, a disconnected selection or an alignment without any atoms.
type InvalidQueryError struct {
	Reason string
}

func (err *InvalidQueryError) Error() string {
	return "Invalid query: " + err.Reason
}

func invalidf(format string, v ...interface{}) error {
	return &InvalidQueryError{Reason: fmt.Sprintf(format, v...)}
}

// Invalidf creates an InvalidQueryError with a formatted reason.
func Invalidf(format string, v ...interface{}) error {
	return invalidf(format, v...)
}

// TimeoutError is returned when a query does not finish before its deadline.
// By the time it is returned, all work started for the query has stopped.
type TimeoutError struct {
	After time.Duration
}

func (err *TimeoutError) Error() string {
	if err.After <= 0 {
		return "The query did not finish before its deadline."
	}
	return fmt.Sprintf("The query did not finish within %s.", err.After)
}

func (err *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

// InternalError wraps any failure that is not the fault of the query, like a
// structure that could not be read or a corrupt index.
type InternalError struct {
	Cause error
}

func (err *InternalError) Error() string {
	return fmt.Sprintf("Internal error: %s", err.Cause)
}

func (err *InternalError) Unwrap() error {
	return err.Cause
}

// Classify maps an arbitrary error produced while running a query to the
// error taxonomy of this package. The error is unwrapped first, so that an
// invalid query error produced inside a worker is still reported as an
// invalid query. Cancellation by the caller is passed through unchanged.
// A nil error stays nil.
//
// The timeout given is only used for the message of a new TimeoutError.
func Classify(err error, timeout time.Duration) error {
	if err == nil {
		return nil
	}

	var invalid *InvalidQueryError
	if errors.As(err, &invalid) {
		return invalid
	}
	var tout *TimeoutError
	if errors.As(err, &tout) {
		return tout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{After: timeout}
	}
	if errors.Is(err, context.Canceled) {
		return context.Canceled
	}
	var internal *InternalError
	if errors.As(err, &internal) {
		return internal
	}
	return &InternalError{Cause: err}
}

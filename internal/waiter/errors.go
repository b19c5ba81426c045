// internal/waiter/errors.go
package waiter

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrTimeout is matched by every TimeoutError through errors.Is.
var ErrTimeout = errors.New("wait timed out")

// TimeoutError is the only failure the waiter produces. Its message names the
// operation, its target and the timeout, and is meant to be read by whoever
// is looking at a failed test.
type TimeoutError struct {
	Operation string
	Target    string
	Timeout   time.Duration
	// Attempts is the number of times the condition was evaluated.
	Attempts int
	// LastErr is the last evaluation error folded into "not yet", if any.
	LastErr error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s could not complete on %s within %s seconds",
		e.Operation, e.Target, formatSeconds(e.Timeout))
}

// Unwrap lets callers test for ErrTimeout.
func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// formatSeconds renders whole seconds without a fraction ("30") and keeps the
// fraction for sub-second timeouts ("0.25").
func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}

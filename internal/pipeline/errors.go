package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrPersistence is fatal to the message: the queue path retries it and
	// the synchronous path answers 5xx.
	ErrPersistence = errors.New("persistence failure")
	// ErrTransient covers index and queue read failures that are worth retrying.
	ErrTransient = errors.New("transient infrastructure failure")
)

// ValidationError rejects malformed input. It is never queued or retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

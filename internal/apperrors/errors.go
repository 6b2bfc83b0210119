package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks operations referencing a nonexistent post or record.
	ErrNotFound = errors.New("not found")

	// ErrNotConnected marks publish attempts without a stored credential.
	ErrNotConnected = errors.New("linkedin account not connected")

	// ErrStatusConflict marks a rejected status transition, e.g. a
	// publish-now on a post that is already publishing or published.
	ErrStatusConflict = errors.New("post status does not allow this operation")
)

// ValidationError is malformed caller input, rejected before any state
// mutation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func Validation(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// PublishError is a rejection or timeout from the LinkedIn API. It is
// recorded on the post and never aborts a publication cycle.
type PublishError struct {
	StatusCode int
	Message    string
}

func (e *PublishError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("linkedin: %d %s", e.StatusCode, e.Message)
	}
	return "linkedin: " + e.Message
}

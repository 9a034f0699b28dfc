package relapse

import "errors"

var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("not found")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotConfigured is returned when a required backend setting is missing
	ErrNotConfigured = errors.New("not configured")
	// ErrStorage is returned when the blob store rejects an operation
	ErrStorage = errors.New("storage error")
)

// Error carries a client facing message alongside the sentinel it belongs to.
// Details is optional free text, usually the underlying cause.
type Error struct {
	Kind    error
	Message string
	Details string
}

func (e *Error) Error() string {
	if e.Details == "" {
		return e.Message
	}
	return e.Message + ": " + e.Details
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, message string, cause error) *Error {
	e := &Error{Kind: kind, Message: message}
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrInvalidInput      = errors.New("invalid input")
	ErrEmptyCluster      = errors.New("empty cluster")
	ErrDegenerateVector  = errors.New("zero-magnitude vector")
	ErrCorpusUnavailable = errors.New("corpus source unavailable")
	ErrInternal          = errors.New("internal error")
)

// AppError wraps a sentinel with a human-readable message so callers can
// branch on the sentinel via errors.Is while still logging context.
type AppError struct {
	Err     error
	Message string
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, message string) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: message,
	}
}

func Newf(sentinel error, format string, args ...any) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsValidation reports whether err belongs to the pre-run validation class
// that must fail the whole run before any state mutation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidConfig) || errors.Is(err, ErrInvalidInput)
}

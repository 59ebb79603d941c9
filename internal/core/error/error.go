package errx

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so that callers can pick a degradation path
// without string matching.
type Kind string

const (
	KindClassification Kind = "classification_failure"
	KindRetrieval      Kind = "retrieval_failure"
	KindToolValidation Kind = "tool_validation_failure"
	KindToolExecution  Kind = "tool_execution_failure"
	KindBudget         Kind = "budget_exhausted"
	KindCompletion     Kind = "completion_service_failure"

	KindNotFound Kind = "not_found"
	KindStorage  Kind = "storage"
	KindRedis    Kind = "redis"
	KindInternal Kind = "internal"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage   = "internal server error"
	RedisErrorMessage    = "redis operation failed"
	NotFoundMessage      = "record not found"
	StorageErrorMessage  = "data store query failed"
	CompletionMessage    = "completion service unavailable"
	ClassificationFailed = "intent could not be classified"
)

// AppError wraps an underlying error with a failure kind, an HTTP status and
// a message that is safe to show outside the process.
type AppError struct {
	Err     error
	Kind    Kind
	Status  int
	Message string
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches either the wrapped error or another AppError of the same kind.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if errors.As(target, &t) && t != nil {
		return t.Kind == e.Kind
	}
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return errors.As(e.Err, target)
}

// New creates an AppError with the provided information.
func New(err error, kind Kind, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Kind:    kind,
		Status:  status,
		Message: message,
	}
}

// Wrap attaches a kind to err with the default status for that kind.
// A nil err yields nil.
func Wrap(kind Kind, err error, message string) error {
	if err == nil {
		return nil
	}
	return New(err, kind, statusFor(kind), message)
}

// Newf builds an AppError without an underlying cause.
func Newf(kind Kind, format string, args ...any) error {
	return New(nil, kind, statusFor(kind), fmt.Sprintf(format, args...))
}

// KindOf returns the kind of the first AppError in the chain, or
// KindInternal when err carries none.
func KindOf(err error) Kind {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// IsKind reports whether any AppError in the chain has the given kind.
func IsKind(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	for err != nil {
		var ae *AppError
		if !errors.As(err, &ae) {
			return false
		}
		if ae.Kind == kind {
			return true
		}
		err = ae.Err
	}
	return false
}

// StatusOf maps err onto an HTTP status for the gin surface.
func StatusOf(err error) int {
	var ae *AppError
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}

func statusFor(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindToolValidation, KindClassification:
		return http.StatusUnprocessableEntity
	case KindCompletion, KindRedis, KindRetrieval:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

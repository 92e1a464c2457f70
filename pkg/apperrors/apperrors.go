package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the failure classes the API distinguishes. Callers wrap
// them with context via the helper constructors and match with errors.Is.
var (
	// ErrAuthorization means the caller lacks the required role for the
	// operation. It must be returned before any write is attempted.
	ErrAuthorization = errors.New("authorization denied")

	// ErrValidation means the request is referentially inconsistent
	// (assignee not a member, empty required field, duplicate submission).
	ErrValidation = errors.New("validation failed")

	// ErrNotFound means a referenced group/task/request no longer exists,
	// usually a race with a concurrent delete.
	ErrNotFound = errors.New("not found")

	// ErrTransientStore means the underlying store was unavailable; the
	// operation is safe to retry with backoff.
	ErrTransientStore = errors.New("store unavailable")

	// ErrPartialWrite means a multi-document operation succeeded partially:
	// the first write committed but a follow-up write failed. The state is
	// repairable by the reconciliation job and must never be swallowed.
	ErrPartialWrite = errors.New("partial write")
)

func wrap(sentinel error, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), sentinel)
}

func Authorizationf(format string, args ...interface{}) error {
	return wrap(ErrAuthorization, format, args...)
}

func Validationf(format string, args ...interface{}) error {
	return wrap(ErrValidation, format, args...)
}

func NotFoundf(format string, args ...interface{}) error {
	return wrap(ErrNotFound, format, args...)
}

func Transientf(format string, args ...interface{}) error {
	return wrap(ErrTransientStore, format, args...)
}

func PartialWritef(format string, args ...interface{}) error {
	return wrap(ErrPartialWrite, format, args...)
}

func IsAuthorization(err error) bool { return errors.Is(err, ErrAuthorization) }
func IsValidation(err error) bool    { return errors.Is(err, ErrValidation) }
func IsNotFound(err error) bool      { return errors.Is(err, ErrNotFound) }
func IsTransient(err error) bool     { return errors.Is(err, ErrTransientStore) }
func IsPartialWrite(err error) bool  { return errors.Is(err, ErrPartialWrite) }

// HTTPStatus maps an error to the status code handlers should respond with.
func HTTPStatus(err error) int {
	switch {
	case IsAuthorization(err):
		return http.StatusForbidden
	case IsValidation(err):
		return http.StatusBadRequest
	case IsNotFound(err):
		return http.StatusNotFound
	case IsTransient(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// README: Typed error sentinels, a fluent builder and HTTP status mapping.
package errors

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

const (
	ErrCodeNotFound      = "not_found"
	ErrCodeValidation    = "validation_error"
	ErrCodeDatabase      = "database_error"
	ErrCodeDependency    = "dependency_error"
	ErrCodePublish       = "publish_error"
	ErrCodeSerialization = "serialization_error"
	ErrCodeSystemError   = "system_error"
)

var (
	ErrNotFound      = new(ErrCodeNotFound, "resource not found")
	ErrValidation    = new(ErrCodeValidation, "validation error")
	ErrDatabase      = new(ErrCodeDatabase, "database error")
	ErrDependency    = new(ErrCodeDependency, "dependency unavailable")
	ErrPublish       = new(ErrCodePublish, "event publish failed")
	ErrSerialization = new(ErrCodeSerialization, "serialization failed")
	ErrSystem        = new(ErrCodeSystemError, "system error")

	// Checked in order; the first mark found decides the status.
	statusCodes = []struct {
		err    error
		status int
	}{
		{ErrValidation, http.StatusBadRequest},
		{ErrNotFound, http.StatusNotFound},
		{ErrDatabase, http.StatusInternalServerError},
		{ErrSerialization, http.StatusInternalServerError},
		{ErrDependency, http.StatusServiceUnavailable},
		{ErrPublish, http.StatusBadGateway},
		{ErrSystem, http.StatusInternalServerError},
	}
)

// InternalError is a coded domain error used as a Mark reference.
type InternalError struct {
	Code    string
	Message string
	Err     error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

func (e *InternalError) Is(target error) bool {
	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}
	return e.Code == t.Code
}

func new(code, message string) *InternalError {
	return &InternalError{Code: code, Message: message}
}

func Is(err, reference error) bool {
	return errors.Is(err, reference)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// HTTPStatusFromErr returns the status of the highest ranked sentinel err is marked with.
func HTTPStatusFromErr(err error) int {
	for _, sc := range statusCodes {
		if errors.Is(err, sc.err) {
			return sc.status
		}
	}
	return http.StatusInternalServerError
}

// Hint returns the user facing hints attached with WithHint.
func Hint(err error) string {
	return errors.FlattenHints(err)
}

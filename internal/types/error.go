package types

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Every CustomError wraps exactly one of these so callers can
// branch with errors.Is without looking at status codes.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUnavailable     = errors.New("unavailable")
	ErrInternal        = errors.New("internal error")
)

type CustomError struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Type    string   `json:"type"`
	Errors  []string `json:"errors,omitempty"`
	Kind    error    `json:"-"`
	Cause   error    `json:"-"`
}

func (e *CustomError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%d: %s [type: %s]: %v", e.Code, e.Message, e.Type, e.Cause)
	}
	return fmt.Sprintf("%d: %s [type: %s]", e.Code, e.Message, e.Type)
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *CustomError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// WithErrors attaches row level detail, used by bulk operations.
func (e *CustomError) WithErrors(errs []string) *CustomError {
	e.Errors = errs
	return e
}

// WithCause records the underlying error for server side logging.
func (e *CustomError) WithCause(err error) *CustomError {
	e.Cause = err
	return e
}

func newError(kind error, code int, message, errorType string) *CustomError {
	return &CustomError{Code: code, Message: message, Type: errorType, Kind: kind}
}

func InvalidArgument(message, errorType string) *CustomError {
	return newError(ErrInvalidArgument, http.StatusBadRequest, message, errorType)
}

func Unauthorized(message, errorType string) *CustomError {
	return newError(ErrUnauthorized, http.StatusUnauthorized, message, errorType)
}

func Forbidden(message, errorType string) *CustomError {
	return newError(ErrForbidden, http.StatusForbidden, message, errorType)
}

func NotFound(message, errorType string) *CustomError {
	return newError(ErrNotFound, http.StatusNotFound, message, errorType)
}

func Conflict(message, errorType string) *CustomError {
	return newError(ErrConflict, http.StatusConflict, message, errorType)
}

func Unavailable(message, errorType string) *CustomError {
	return newError(ErrUnavailable, http.StatusServiceUnavailable, message, errorType)
}

func Internal(message, errorType string) *CustomError {
	return newError(ErrInternal, http.StatusInternalServerError, message, errorType)
}

// AsCustomError returns the CustomError in err's chain, if any.
func AsCustomError(err error) (*CustomError, bool) {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

package errors

import (
	"errors"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness. Detail is the
// human-readable message surfaced verbatim to API clients.
type Error struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
	Status int    `json:"status"`
	Err    error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Detail + ": " + e.Err.Error()
	}
	return e.Detail
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, detail string) *Error {
	return &Error{Code: code, Status: status, Detail: detail}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, detail string) *Error {
	return &Error{Code: code, Status: status, Detail: detail, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusForbidden, "account is inactive")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrPreconditionFailed = New("PRECONDITION_FAILED", http.StatusPreconditionFailed, "precondition failed")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrInvalidTransition  = New("INVALID_TRANSITION", http.StatusConflict, "report status does not allow this action")
	ErrReportLocked       = New("REPORT_LOCKED", http.StatusConflict, "report is in the approval pipeline and can no longer be edited")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Detail)
}

// Clone returns a copy of the error allowing for detail overrides.
func Clone(err *Error, detail string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if detail != "" {
		clone.Detail = detail
	}
	return &clone
}

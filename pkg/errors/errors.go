package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/noah-isme/coursehub-api/pkg/i18n"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors by code so wrapped clones still compare equal to the sentinels.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Localized creates an Error whose message comes from the i18n catalog.
func Localized(code string, status int) *Error {
	return New(code, status, i18n.Translate(code))
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// WrapInternal hides err behind the generic localized internal error.
func WrapInternal(err error) *Error {
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Predefined errors for common scenarios.
var (
	ErrUnauthenticated    = Localized(i18n.CodeUnauthenticated, http.StatusUnauthorized)
	ErrUnauthorized       = Localized(i18n.CodeUnauthorized, http.StatusUnauthorized)
	ErrInvalidCredentials = Localized(i18n.CodeInvalidCredentials, http.StatusUnauthorized)
	ErrForbidden          = Localized(i18n.CodeForbidden, http.StatusForbidden)
	ErrNotFound           = Localized(i18n.CodeNotFound, http.StatusNotFound)
	ErrConflict           = Localized(i18n.CodeConflict, http.StatusConflict)
	ErrAlreadyEnrolled    = Localized(i18n.CodeAlreadyEnrolled, http.StatusConflict)
	ErrEmailTaken         = Localized(i18n.CodeEmailTaken, http.StatusConflict)
	ErrCourseUnavailable  = Localized(i18n.CodeCourseUnavailable, http.StatusUnprocessableEntity)
	ErrValidation         = Localized(i18n.CodeValidation, http.StatusBadRequest)
	ErrInvalidSignature   = Localized(i18n.CodeInvalidSignature, http.StatusBadRequest)
	ErrInvalidToken       = Localized(i18n.CodeInvalidToken, http.StatusForbidden)
	ErrPaymentFailed      = Localized(i18n.CodePaymentFailed, http.StatusBadGateway)
	ErrPaymentUnavailable = Localized(i18n.CodePaymentUnavailable, http.StatusServiceUnavailable)
	ErrRateLimited        = Localized(i18n.CodeRateLimited, http.StatusTooManyRequests)
	ErrInternal           = Localized(i18n.CodeInternal, http.StatusInternalServerError)

	// ErrCacheMiss never reaches clients; cache layers use it to signal absence.
	ErrCacheMiss = New("CACHE_MISS", http.StatusNotFound, "cache miss")
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
	return WrapInternal(err)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

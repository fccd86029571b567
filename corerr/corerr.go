// Package corerr implements a unified error taxonomy shared by all three
// providers: a single typed Error carrying a normalized category, the originating HTTP
// status (when any), the provider's own error code, a human message, and an
// optional retry-after hint. Every provider package constructs the errors of
// its request, stream and completion paths through this package rather than
// returning bare fmt.Errorf values, so callers can recover the category via
// errors.As.
package corerr

import (
	"errors"
	"fmt"

	"github.com/mgreenly/ikigai-sub010/model"
)

// Error is the concrete error type returned by every provider and core
// component. RetryAfter is the number of seconds a caller should wait
// before retrying; -1 means no hint was present.
type Error struct {
	Category     model.ErrorCategory
	HTTPStatus   int
	Message      string
	ProviderCode string
	RetryAfter   int
	Cause        error
}

// New constructs an Error with RetryAfter defaulted to -1 (no hint).
func New(category model.ErrorCategory, httpStatus int, message string) *Error {
	return &Error{Category: category, HTTPStatus: httpStatus, Message: message, RetryAfter: -1}
}

// Wrap constructs an Error with the given category that wraps an underlying
// cause (e.g. a transport failure). It carries no HTTP status.
func Wrap(category model.ErrorCategory, cause error, message string) *Error {
	return &Error{Category: category, Message: message, Cause: cause, RetryAfter: -1}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Cause)
	}
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("%s (http %d): %s", e.Category, e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// WithRetryAfter returns a copy of e with RetryAfter set.
func (e *Error) WithRetryAfter(seconds int) *Error {
	cp := *e
	cp.RetryAfter = seconds
	return &cp
}

// WithProviderCode returns a copy of e with ProviderCode set.
func (e *Error) WithProviderCode(code string) *Error {
	cp := *e
	cp.ProviderCode = code
	return &cp
}

// RetryAfter extracts the retry-after hint from err, if it is (or wraps) a
// *corerr.Error. Returns (-1, false) otherwise.
func RetryAfter(err error) (int, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.RetryAfter, true
	}
	return -1, false
}

// CategoryOf extracts the normalized category from err, defaulting to
// model.ErrorUnknown when err is not a *corerr.Error.
func CategoryOf(err error) model.ErrorCategory {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return model.ErrorUnknown
}

// ClassifyHTTPStatus implements the default status-to-category mapping.
// Providers override specific statuses (e.g. Gemini maps 504 to timeout
// instead of server) by checking their own table first and falling back to
// this one.
func ClassifyHTTPStatus(status int) model.ErrorCategory {
	switch status {
	case 401, 403:
		return model.ErrorAuth
	case 429:
		return model.ErrorRateLimit
	case 400:
		return model.ErrorInvalidArg
	case 404:
		return model.ErrorNotFound
	case 500, 502, 503, 504, 529:
		return model.ErrorServer
	}
	if status >= 400 && status < 500 {
		return model.ErrorUnknown
	}
	return model.ErrorUnknown
}

// BodyErrorType maps a provider's body-level error "type" string to a
// category. Unrecognized types return (model.ErrorUnknown, false) so callers
// keep the status-derived category instead.
func BodyErrorType(errType string) (model.ErrorCategory, bool) {
	switch errType {
	case "authentication_error", "permission_error", "authentication", "permission":
		return model.ErrorAuth, true
	case "rate_limit_error", "rate_limit_exceeded", "rate-limit":
		return model.ErrorRateLimit, true
	case "invalid_request_error", "invalid_argument", "invalid-request":
		return model.ErrorInvalidArg, true
	case "not_found_error", "not_found":
		return model.ErrorNotFound, true
	case "server_error", "service_unavailable", "internal_error":
		return model.ErrorServer, true
	}
	return model.ErrorUnknown, false
}

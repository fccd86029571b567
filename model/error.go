package model

// ErrorCategory is the normalized classification of a provider error,
// derived from HTTP status, transport failure, or a body-level error type.
type ErrorCategory string

const (
	ErrorAuth           ErrorCategory = "auth"
	ErrorRateLimit      ErrorCategory = "rate-limit"
	ErrorInvalidArg     ErrorCategory = "invalid-arg"
	ErrorNotFound       ErrorCategory = "not-found"
	ErrorServer         ErrorCategory = "server"
	ErrorTimeout        ErrorCategory = "timeout"
	ErrorContentFilter  ErrorCategory = "content-filter"
	ErrorNetwork        ErrorCategory = "network"
	ErrorUnknown        ErrorCategory = "unknown"
)

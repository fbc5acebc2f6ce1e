package domainerrors

import "errors"

// Code represents a domain error category independent of transport layer.
// These codes describe what went wrong in business logic terms, not HTTP terms.
type Code string

const (
	// CodeValidation: a required field was missing or malformed. Raised before any network call.
	CodeValidation Code = "validation_failed"
	// CodeRejected: the bank was reachable and answered with an explicit non-success marker.
	CodeRejected Code = "business_rejection"
	// CodeTransport: network failure, unreadable response, or a request that never completed.
	CodeTransport Code = "transport_failure"
	// CodeCaptureUnavailable: no Face Sample could be obtained.
	CodeCaptureUnavailable Code = "capture_unavailable"

	CodeInvalidState Code = "invalid_state"
	CodeSessionEnded Code = "session_ended"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeBadRequest   Code = "bad_request"
	CodeInternal     Code = "internal_error"
)

// Error wraps domain or infrastructure failures with a stable code.
// It is transport-agnostic and can be used across service, client, and other layers.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap creates a new domain error wrapping an existing error.
// If the wrapped error is already a domain error, the original code is preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode checks if an error is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the code of the outermost domain error in err's chain,
// or CodeInternal when err carries none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// Recoverable reports whether the failure leaves the calling flow in place so the
// user can correct input or retry.
func Recoverable(err error) bool {
	switch CodeOf(err) {
	case CodeValidation, CodeRejected, CodeTransport, CodeCaptureUnavailable, CodeInvalidState:
		return true
	default:
		return false
	}
}

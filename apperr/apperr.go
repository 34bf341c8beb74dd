// Package apperr defines the error taxonomy shared by all request
// handlers. Every failure surfaced to a client carries one of these
// codes so the UI can distinguish "out of order" from "not found"
// from "not authenticated" without string matching.
package apperr

import (
	"errors"
	"net/http"

	"github.com/rohanthewiz/serr"
)

// Code classifies a failure.
type Code string

const (
	Unauthenticated    Code = "unauthenticated"
	InvalidArgument    Code = "invalid-argument"
	NotFound           Code = "not-found"
	FailedPrecondition Code = "failed-precondition"
	NotConnected       Code = "not-connected"
	Internal           Code = "internal"
)

// Error is a coded error with a client-facing reason.
type Error struct {
	Code   Code
	Reason string
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return string(e.Code) + ": " + e.Reason + ": " + e.cause.Error()
	}
	return string(e.Code) + ": " + e.Reason
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a coded error.
func New(code Code, reason string) *Error {
	return &Error{Code: code, Reason: reason}
}

// Wrap attaches a code and reason to an underlying error.
func Wrap(code Code, err error, reason string) *Error {
	return &Error{Code: code, Reason: reason, cause: serr.Wrap(err, reason)}
}

// CodeOf extracts the code from an error chain. Anything uncoded is
// treated as Internal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return Internal
}

// ReasonOf extracts the client-facing reason from an error chain.
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return "internal error"
}

// HTTPStatus maps an error to an HTTP status code.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case Unauthenticated:
		return http.StatusUnauthorized
	case InvalidArgument:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case FailedPrecondition:
		return http.StatusConflict
	case NotConnected:
		return http.StatusPreconditionFailed
	default:
		return http.StatusInternalServerError
	}
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

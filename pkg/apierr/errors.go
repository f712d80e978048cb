// Package apierr defines the single error type every backend
// operation surfaces, regardless of whether the response came from the
// live network or the embedded simulator. Callers never need to
// special-case origin: they match on the sentinel categories below.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the error taxonomy. Use errors.Is to classify.
var (
	// ErrValidation indicates a malformed or incomplete request body.
	ErrValidation = errors.New("request validation failed")

	// ErrNotFound indicates a referenced entity is absent.
	ErrNotFound = errors.New("resource not found")

	// ErrUnauthorized indicates the session is no longer valid.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTransport indicates a network-level failure with no response.
	ErrTransport = errors.New("transport failure")

	// ErrShapeMismatch indicates a response that arrived but was
	// missing the fields the caller requires.
	ErrShapeMismatch = errors.New("response shape mismatch")
)

// Error is the normalized error carried across the access layer.
type Error struct {
	// Op is the logical operation that failed (e.g. "appointments.Create").
	Op string

	// StatusCode is the HTTP status associated with the failure, if any.
	// Zero means no status is known (e.g. a socket-level failure).
	StatusCode int

	// Err is the underlying category or cause.
	Err error

	// Msg is an optional human-readable detail.
	Msg string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// Validation builds a 400-class error.
func Validation(op, msg string) *Error {
	return &Error{Op: op, StatusCode: http.StatusBadRequest, Err: ErrValidation, Msg: msg}
}

// NotFound builds a 404-class error.
func NotFound(op, msg string) *Error {
	return &Error{Op: op, StatusCode: http.StatusNotFound, Err: ErrNotFound, Msg: msg}
}

// Unauthorized builds a 401-class error.
func Unauthorized(op, msg string) *Error {
	return &Error{Op: op, StatusCode: http.StatusUnauthorized, Err: ErrUnauthorized, Msg: msg}
}

// Transport builds a network-failure error with no status code.
func Transport(op string, cause error) *Error {
	return &Error{Op: op, Err: ErrTransport, Msg: errMsg(cause)}
}

// ShapeMismatch builds an error for a response missing required fields.
func ShapeMismatch(op, msg string) *Error {
	return &Error{Op: op, Err: ErrShapeMismatch, Msg: msg}
}

// Wrap normalizes an arbitrary error into *Error, preserving an
// existing *Error's category and status while recording the new Op.
func Wrap(op string, err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		if ae.Op == op {
			return ae
		}
		return &Error{Op: op, StatusCode: ae.StatusCode, Err: ae.Err, Msg: ae.Msg}
	}
	return &Error{Op: op, Err: err}
}

// FromStatus maps an HTTP status code onto the taxonomy.
func FromStatus(op string, status int, msg string) *Error {
	switch status {
	case http.StatusBadRequest:
		return Validation(op, msg)
	case http.StatusUnauthorized:
		return Unauthorized(op, msg)
	case http.StatusNotFound:
		return NotFound(op, msg)
	default:
		return &Error{Op: op, StatusCode: status, Err: fmt.Errorf("unexpected status %d", status), Msg: msg}
	}
}

// StatusOf extracts the status code from an error, or zero.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.StatusCode
	}
	return 0
}

func errMsg(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

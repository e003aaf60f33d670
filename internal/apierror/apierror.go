// Package apierror defines the error kinds surfaced to API callers and the
// JSON envelope they are rendered in.
package apierror

import (
	"errors"
	"net/http"
)

var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("not found")
	ErrAllocation  = errors.New("serial allocation failed")
	ErrPersistence = errors.New("persistence failed")
)

// Error carries a kind (one of the sentinels above), a caller-facing
// message and an optional underlying cause.
type Error struct {
	Kind    error
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == e.Kind }

func Validation(msg string) *Error {
	return &Error{Kind: ErrValidation, Message: msg}
}

// ValidationFields reports per-field failures, keyed by field name.
func ValidationFields(msg string, fields map[string]string) *Error {
	return &Error{Kind: ErrValidation, Message: msg, Fields: fields}
}

func NotFound(msg string) *Error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

func Allocation(err error) *Error {
	return &Error{Kind: ErrAllocation, Message: "failed to allocate serial number", Err: err}
}

func Persistence(msg string, err error) *Error {
	return &Error{Kind: ErrPersistence, Message: msg, Err: err}
}

// Response is the JSON body written for every 4xx/5xx.
type Response struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func New(msg string) Response {
	return Response{Error: msg}
}

// Status maps an error to its HTTP status code. Unknown errors are 500.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// From builds the response body for err. Server-side failures keep their
// cause out of the body.
func From(err error) Response {
	var e *Error
	if !errors.As(err, &e) {
		return New("internal server error")
	}
	if Status(err) == http.StatusInternalServerError {
		return New(e.Message)
	}
	return Response{Error: e.Message, Fields: e.Fields}
}

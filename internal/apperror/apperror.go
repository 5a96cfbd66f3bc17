// Package apperror defines the classified error model shared by the handler,
// validator and service layers.
//
// Every error that crosses the HTTP boundary is either classified (a client
// error carrying a safe message and a status code) or unclassified, in which
// case it is rendered as a generic server failure.
package apperror

import (
	"errors"
	"net/http"
)

// Kind tags the category of an Error.
type Kind int

const (
	// Internal marks an unexpected failure. Its message is never shown to clients.
	Internal Kind = iota
	// Validation marks a malformed or rejected payload.
	Validation
	// Authentication marks a missing or invalid credential.
	Authentication
	// Forbidden marks a credential that lacks rights on the resource.
	Forbidden
	// NotFound marks a missing resource.
	NotFound
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Authentication:
		return "authentication"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// StatusCode returns the HTTP status code for the kind.
func (k Kind) StatusCode() int {
	switch k {
	case Validation:
		return http.StatusBadRequest
	case Authentication:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is a tagged error value.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status code for the error's kind.
func (e *Error) StatusCode() int {
	return e.Kind.StatusCode()
}

// Classified reports whether the error is safe to show to the client.
func (e *Error) Classified() bool {
	return e.Kind != Internal
}

// NewValidation creates a Validation error.
func NewValidation(message string) *Error {
	return &Error{Kind: Validation, Message: message}
}

// NewAuthentication creates an Authentication error.
func NewAuthentication(message string) *Error {
	return &Error{Kind: Authentication, Message: message}
}

// NewForbidden creates a Forbidden error.
func NewForbidden(message string) *Error {
	return &Error{Kind: Forbidden, Message: message}
}

// NewNotFound creates a NotFound error.
func NewNotFound(message string) *Error {
	return &Error{Kind: NotFound, Message: message}
}

// Wrap creates an Internal error around err.
func Wrap(err error, message string) *Error {
	return &Error{Kind: Internal, Message: message, Err: err}
}

// Classify extracts a client-safe Error from err.
// It returns false for nil, untagged, and Internal errors.
func Classify(err error) (*Error, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return nil, false
	}
	if !e.Classified() {
		return nil, false
	}
	return e, true
}

// KindOf returns the kind of err, or Internal if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

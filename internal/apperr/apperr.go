package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the HTTP boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindNotFound
	KindProvisioning
	KindRemoteOperation
)

// Error is the base error type carried across service boundaries.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error without an underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap wraps an existing error.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Common constructors

func Validation(message string) *Error {
	return New(KindValidation, message)
}

func Unauthorized(message string) *Error {
	if message == "" {
		message = "unauthorized"
	}
	return New(KindUnauthorized, message)
}

// NotFound covers both absent resources and resources owned by someone
// else; the two are deliberately indistinguishable to the caller.
func NotFound(resource string) *Error {
	return New(KindNotFound, resource+" not found")
}

func Provisioning(message string, cause error) *Error {
	return Wrap(KindProvisioning, message, cause)
}

func RemoteOperation(message string, cause error) *Error {
	return Wrap(KindRemoteOperation, message, cause)
}

// KindOf extracts the Kind from an error chain, KindInternal if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error to its response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

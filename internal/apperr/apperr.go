// Package apperr defines the business error kinds returned by services and their
// mapping to HTTP status codes at the transport boundary.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for the caller.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindDuplicateEmail
	KindForbidden
	KindNotFound
	KindSelfDeletion
	KindUnauthenticated
)

// InternalMessage is the only text ever rendered for an internal failure.
const InternalMessage = "Internal server error"

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDuplicateEmail:
		return "duplicate_email"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindSelfDeletion:
		return "self_deletion"
	case KindUnauthenticated:
		return "unauthenticated"
	default:
		return "internal"
	}
}

// Error is a business error with a caller-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports malformed or missing input.
func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

// DuplicateEmail reports an email already held by another user.
func DuplicateEmail() *Error {
	return &Error{Kind: KindDuplicateEmail, Message: "Email already exists"}
}

// Forbidden reports that the actor lacks rank, scope or ownership.
func Forbidden(msg string) *Error { return &Error{Kind: KindForbidden, Message: msg} }

// NotFound reports a missing or soft-deleted entity.
func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

// SelfDeletion reports an attempt to delete one's own account.
func SelfDeletion() *Error {
	return &Error{Kind: KindSelfDeletion, Message: "Cannot delete your own account"}
}

// Unauthenticated reports a missing or invalid identity.
func Unauthenticated(msg string) *Error { return &Error{Kind: KindUnauthenticated, Message: msg} }

// Internal wraps an unexpected failure. The cause is kept for logging only.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: InternalMessage, Err: err}
}

// KindOf returns the kind of err, or KindInternal for errors that are not *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the caller-facing message for err. Internal causes are never exposed.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return InternalMessage
}

// HTTPStatus maps a kind to its transport status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindDuplicateEmail, KindSelfDeletion:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

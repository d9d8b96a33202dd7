// Package service holds the business rules that sit between the HTTP
// handlers and the repositories: answer grading, scoreboard computation,
// event publishing and the periodic snapshot job.
package service

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the HTTP layer.
type Kind int

const (
	InvalidInput Kind = iota + 1
	AuthenticationRequired
	AuthenticationInvalid
	AuthorizationDenied
	NotFound
	Conflict
	StorageError
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid_input"
	case AuthenticationRequired:
		return "authentication_required"
	case AuthenticationInvalid:
		return "authentication_invalid"
	case AuthorizationDenied:
		return "authorization_denied"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case StorageError:
		return "storage_error"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a classified failure.  Msg is safe to show to clients; Err is
// the underlying cause and is only logged.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds an Error without a cause.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error around err.
func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the Kind of err, or StorageError for unclassified errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return StorageError
}

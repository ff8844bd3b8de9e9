// Package apperr defines the client-facing error categories shared by the
// domain packages. The HTTP layer maps each Kind to a status code.
package apperr

import "errors"

type Kind string

const (
	KindInvalidInput    Kind = "invalid_input"
	KindNotFound        Kind = "not_found"
	KindForbidden       Kind = "forbidden"
	KindAmountMismatch  Kind = "amount_mismatch"
	KindConflictOfState Kind = "conflict_of_state"
	KindUnauthenticated Kind = "unauthenticated"
)

// Error carries a category and a message that is safe to show to clients.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error of the same kind, so errors.Is(err, &Error{Kind: k})
// works as a category check.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func New(kind Kind, msg string) *Error { return &Error{Kind: kind, Message: msg} }

func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

func InvalidInput(msg string) *Error    { return New(KindInvalidInput, msg) }
func NotFound(msg string) *Error        { return New(KindNotFound, msg) }
func Forbidden(msg string) *Error       { return New(KindForbidden, msg) }
func AmountMismatch(msg string) *Error  { return New(KindAmountMismatch, msg) }
func Conflict(msg string) *Error        { return New(KindConflictOfState, msg) }
func Unauthenticated(msg string) *Error { return New(KindUnauthenticated, msg) }

// KindOf returns the category of err, or "" for uncategorized (internal) errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

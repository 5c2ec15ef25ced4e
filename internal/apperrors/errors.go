package apperrors

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindValidation Kind = iota
	KindNotFound
	KindConflict
	KindTransport
	KindInvariant
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindTransport:
		return "transport"
	case KindInvariant:
		return "invariant"
	}
	return "unknown"
}

// Error carries a machine-checkable kind and a human-readable message.
// Field is set for validation and invariant errors so callers can address
// the offending input.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func Transport(message string, err error) *Error {
	return &Error{Kind: KindTransport, Message: message, Err: err}
}

func Invariant(field, message string) *Error {
	return &Error{Kind: KindInvariant, Field: field, Message: message}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

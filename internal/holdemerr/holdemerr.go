// Package holdemerr carries the error taxonomy shared by the command
// layer and the transport shell.
package holdemerr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the caller. The set is closed; transports
// map kinds to their own status vocabulary.
type Kind string

const (
	NotFound           Kind = "not_found"
	Unauthenticated    Kind = "unauthenticated"
	Forbidden          Kind = "forbidden"
	InvalidState       Kind = "invalid_state"
	InvalidAmount      Kind = "invalid_amount"
	Conflict           Kind = "conflict"
	StorageUnavailable Kind = "storage_unavailable"
	Internal           Kind = "internal"
)

// Error is a taxonomy error with a short human-readable reason.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New creates a taxonomy error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a taxonomy error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the taxonomy kind from err, defaulting to Internal
// for anything untyped.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// MessageOf returns the human-readable reason, or the raw error text for
// untyped errors.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// Package apperr classifies service errors so handlers can map them to HTTP
// statuses without string matching.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindInternal is the default for unclassified failures.
	KindInternal Kind = iota
	// KindValidation rejects bad input before any I/O.
	KindValidation
	// KindRateLimited means the caller exhausted a quota window.
	KindRateLimited
	// KindConflict means the request contradicts existing state, e.g. a
	// duplicate pending pick.
	KindConflict
	// KindNotFound means a referenced entity does not exist.
	KindNotFound
	// KindUpstream wraps failures of the external market source.
	KindUpstream
	// KindUnauthorized means the caller is missing or not allowed.
	KindUnauthorized
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindInternal when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the user-facing message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	if err != nil {
		return err.Error()
	}
	return "internal error"
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Package apperr defines the error kinds surfaced by catalog, mutation and
// access operations. Every failure returned to the presentation layer carries
// exactly one Kind so callers can decide how to render it.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	// KindValidation is bad local input; no I/O was attempted.
	KindValidation Kind = "validation"
	// KindNetwork is a transport-level failure.
	KindNetwork Kind = "network"
	// KindInvalidResponse is a well-formed response with a malformed payload.
	KindInvalidResponse Kind = "invalid_response"
	// KindNotFound means the remote object or catalog entry is absent.
	KindNotFound Kind = "not_found"
	// KindCatalogReference is a local guard rejection before any remote call.
	KindCatalogReference Kind = "catalog_reference"
	// KindBusy means another operation is in flight on the same store.
	KindBusy Kind = "busy"
	// KindService is a non-2xx answer from the catalog service.
	KindService Kind = "service"
)

// Sentinels for errors.Is matching against a kind.
var (
	ErrValidation       = &Error{Kind: KindValidation}
	ErrNetwork          = &Error{Kind: KindNetwork}
	ErrInvalidResponse  = &Error{Kind: KindInvalidResponse}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrCatalogReference = &Error{Kind: KindCatalogReference}
	ErrBusy             = &Error{Kind: KindBusy}
	ErrService          = &Error{Kind: KindService}
)

// Error is a classified failure. Op names the operation that failed
// ("upload", "resolve view", ...). Msg is the user-facing text; Err is the
// underlying cause, if any.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality so errors.Is(err, apperr.ErrNotFound) works for
// any *Error of that kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Msg == "" && t.Err == nil
}

// New returns an error of the given kind with a formatted message.
func New(kind Kind, op, format string, a ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, a...)}
}

// Validation returns a KindValidation error.
func Validation(op, msg string) *Error {
	return &Error{Kind: KindValidation, Op: op, Msg: msg}
}

// Wrap classifies err under kind. An err that already carries a kind is
// returned with its original kind and the new op prefixed.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return &Error{Kind: ae.Kind, Op: op, Err: err}
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of err, or "" when err is nil or unclassified.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

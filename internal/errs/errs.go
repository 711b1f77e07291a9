// Package errs defines the error taxonomy shared by flows and services
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error so flow steps can pick the right recovery:
// re-prompt, refreshed list, generic apology, or hard rejection.
type Kind int

const (
	// Validation: malformed name/date/time/pin, corrected by re-prompting
	Validation Kind = iota
	// Authentication: unknown alias or wrong PIN, always surfaced generically
	Authentication
	// Conflict: slot taken, duplicate active appointment, already-blocked hour
	Conflict
	// Authorization: staff acting on another staff's appointment
	Authorization
	// NotFound: target appointment or blocked slot does not exist
	NotFound
	// Infrastructure: store or messaging failure, state is not advanced
	Infrastructure
)

var kindNames = map[Kind]string{
	Validation:     "validation",
	Authentication: "authentication",
	Conflict:       "conflict",
	Authorization:  "authorization",
	NotFound:       "not_found",
	Infrastructure: "infrastructure",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Error carries a kind, a message and an optional wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap enables errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.Err
}

// E creates a new typed error
func E(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap wraps an underlying error with a kind and message
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the kind from err. Untyped errors are treated as
// Infrastructure: the safest recovery is a generic apology without
// advancing state.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Infrastructure
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

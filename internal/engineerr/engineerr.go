// Package engineerr defines the engine's closed error taxonomy.
//
// Every error that crosses a package boundary in this engine is one of the
// kinds below, wrapped with github.com/pkg/errors so callers can recover both
// a human-facing message (via Error()) and the original cause (via
// errors.Cause) without losing the call-site context that created it.
package engineerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is a closed enum of the error taxonomy the engine exposes at its
// façade boundary. New operations never introduce a new Kind — they reuse
// one of these.
type Kind string

const (
	// InvalidRequest is caller-fixable: bad parameters, empty inputs, a
	// malformed template. Returned as a façade-level error, never per-item.
	InvalidRequest Kind = "InvalidRequest"

	// Io is a per-item failure talking to the filesystem: not found,
	// permission denied, disk full.
	Io Kind = "Io"

	// Codec is a per-item failure in the JPEG/EXIF codec: corrupt segment,
	// oversized IFD, unsupported encoding.
	Codec Kind = "Codec"

	// Planner is a per-item condition detected before any mutation; it
	// becomes a skipped PlanItem rather than a failure.
	Planner Kind = "Planner"

	// Canceled marks a per-item skip caused by run cancellation.
	Canceled Kind = "Canceled"

	// Internal is an unexpected invariant violation. It aborts the whole
	// request rather than being recorded per item.
	Internal Kind = "Internal"
)

// Error is a taxonomy-tagged error. errors.Cause unwraps to the underlying
// cause chain pkg/errors built; Kind classifies it for façade-boundary
// decisions (abort-the-request vs. record-per-item).
type Error struct {
	Kind Kind
	Op   string
	err  error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.err)
}

func (e *Error) Unwrap() error { return e.err }
func (e *Error) Cause() error  { return e.err }

// New wraps err with the given kind and operation label. err must not be nil.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, err: errors.WithStack(err)}
}

// Newf builds a new error of the given kind from a format string, the way
// callers that have no underlying error to wrap still want a stack trace.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, err: errors.Errorf(format, args...)}
}

// Wrap attaches a message to err and tags it with kind, preserving err's
// cause chain for errors.Cause.
func Wrap(kind Kind, op string, err error, message string) *Error {
	return &Error{Kind: kind, Op: op, err: errors.Wrap(err, message)}
}

// KindOf recovers the Kind of err if it (or something it wraps) is an
// *Error, defaulting to Internal for anything unrecognized — an
// unclassified error crossing the façade boundary is by definition an
// invariant violation.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// IsCanceled reports whether err represents a cancellation skip.
func IsCanceled(err error) bool {
	return KindOf(err) == Canceled
}

package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/dusk-indust/deckmerge/internal/opc"
)

// ErrNoSources is returned when a merge is asked to run without inputs.
var ErrNoSources = errors.New("orchestrator: at least one source is required")

// ErrorClass is the short, user-facing classification of a merge failure.
type ErrorClass string

const (
	ClassFormat   ErrorClass = "format"   // an input is not a valid presentation package
	ClassInternal ErrorClass = "internal" // the engine broke a package invariant
	ClassCanceled ErrorClass = "canceled" // the caller's context ended first
)

// MergeError is the single error a merge run fails with.
type MergeError struct {
	// Source is the 1-based position of the input that caused the
	// failure, or 0 when no single input is responsible.
	Source int
	Class  ErrorClass
	Err    error
}

// Error implements the error interface. The message includes the wrapped
// detail and is meant for logs; show Summary to end users.
func (e *MergeError) Error() string {
	if e.Source > 0 {
		return fmt.Sprintf("merge: source %d: %s: %v", e.Source, e.Class, e.Err)
	}
	return fmt.Sprintf("merge: %s: %v", e.Class, e.Err)
}

func (e *MergeError) Unwrap() error { return e.Err }

// Summary describes the failure without internal part names or ids.
func (e *MergeError) Summary() string {
	var what string
	switch e.Class {
	case ClassFormat:
		what = "not a valid presentation"
	case ClassCanceled:
		what = "merge canceled"
	default:
		what = "internal merge error"
	}
	if e.Source > 0 {
		return fmt.Sprintf("source %d: %s", e.Source, what)
	}
	return what
}

// classify wraps err in a MergeError attributed to source.
func classify(source int, err error) *MergeError {
	var me *MergeError
	if errors.As(err, &me) {
		return me
	}
	class := ClassInternal
	switch {
	case errors.Is(err, opc.ErrFormat):
		class = ClassFormat
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		class = ClassCanceled
	}
	return &MergeError{Source: source, Class: class, Err: err}
}

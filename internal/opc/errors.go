package opc

import (
	"errors"
	"fmt"
)

// Error classes. Every typed error in this package matches exactly one of
// them through errors.Is.
var (
	// ErrFormat classifies malformed input packages.
	ErrFormat = errors.New("opc: invalid package format")

	// ErrInternal classifies invariant violations in a package under
	// construction. Seeing one means the caller assigned names or ids wrong.
	ErrInternal = errors.New("opc: package integrity violated")
)

// FormatError reports input that is not a readable presentation package.
type FormatError struct {
	Part   string // offending part, empty for container-level problems
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	msg := "opc: " + e.Reason
	if e.Part != "" {
		msg = fmt.Sprintf("opc: %s: %s", e.Part, e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() error { return e.Err }

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// UnresolvableTargetError reports an internal relationship whose target part
// does not exist in the package that owns it.
type UnresolvableTargetError struct {
	Owner  string
	ID     string
	Target string
}

// Error implements the error interface.
func (e *UnresolvableTargetError) Error() string {
	return fmt.Sprintf("opc: %s: relationship %s targets missing part %s", e.Owner, e.ID, e.Target)
}

func (e *UnresolvableTargetError) Is(target error) bool { return target == ErrFormat }

// NameCollisionError reports an attempt to add a part under a taken name.
type NameCollisionError struct {
	Name string
}

// Error implements the error interface.
func (e *NameCollisionError) Error() string {
	return fmt.Sprintf("opc: part name %s already in use", e.Name)
}

func (e *NameCollisionError) Is(target error) bool { return target == ErrInternal }

// IntegrityError reports a package that cannot be serialized because one of
// its invariants does not hold.
type IntegrityError struct {
	Part   string
	Reason string
}

// Error implements the error interface.
func (e *IntegrityError) Error() string {
	if e.Part == "" {
		return "opc: integrity: " + e.Reason
	}
	return fmt.Sprintf("opc: integrity: %s: %s", e.Part, e.Reason)
}

func (e *IntegrityError) Is(target error) bool { return target == ErrInternal }

package haspermission

import (
	"errors"
	"fmt"
)

var (
	// ErrPermissionDenied matches every *PermissionError via errors.Is.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidArgument matches every *InvalidArgumentError via errors.Is.
	ErrInvalidArgument = errors.New("invalid argument")
)

// PermissionError is returned by Assert when a scope is not granted.
type PermissionError struct {
	Scope     string
	Reference string

	hasReference bool
}

// NewPermissionError creates a PermissionError for scope. Only the first
// reference is kept.
func NewPermissionError(scope string, reference ...string) *PermissionError {
	e := &PermissionError{Scope: scope}
	if len(reference) > 0 {
		e.Reference = reference[0]
		e.hasReference = true
	}
	return e
}

// HasReference reports whether a reference was supplied.
func (e *PermissionError) HasReference() bool {
	return e.hasReference
}

// Name returns the error kind name.
func (e *PermissionError) Name() string {
	return "PermissionError"
}

func (e *PermissionError) Error() string {
	if e.Reference != "" {
		return fmt.Sprintf("Permission denied: %s for '%s'", e.Scope, e.Reference)
	}
	return "Permission denied: " + e.Scope
}

// Is reports whether target is ErrPermissionDenied.
func (e *PermissionError) Is(target error) bool {
	return target == ErrPermissionDenied
}

// InvalidArgumentError indicates a caller passed a value of the wrong type.
type InvalidArgumentError struct {
	Argument string // argument name, e.g. "scope"
	Expected string // expected type, e.g. "string"
}

func newScopeTypeError() *InvalidArgumentError {
	return &InvalidArgumentError{Argument: "scope", Expected: "string"}
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("Expected '%s' to be a %s", e.Argument, e.Expected)
}

// Is reports whether target is ErrInvalidArgument.
func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrTargetNotFound is matched by every TargetNotFoundError through errors.Is
var ErrTargetNotFound = stderrors.New("annotation target not found")

// TargetNotFoundError is returned by comment sources when a type, field or
// method cannot be located
type TargetNotFoundError struct {
	*BaseError
	TargetKind string // class, property or method
	Package    string
	Type       string
	Member     string
}

// NewTargetNotFoundError creates a lookup error for the given target
func NewTargetNotFoundError(kind, pkg, typeName, member string) *TargetNotFoundError {
	name := typeName
	if member != "" {
		name = typeName + "." + member
	}
	if pkg != "" {
		name = pkg + "." + name
	}

	base := New(TargetNotFoundErrorCode, fmt.Sprintf("%s %s not found", kind, name)).
		WithContext("kind", kind).
		WithContext("package", pkg)

	return &TargetNotFoundError{
		BaseError:  base,
		TargetKind: kind,
		Package:    pkg,
		Type:       typeName,
		Member:     member,
	}
}

// Is reports whether target is ErrTargetNotFound
func (e *TargetNotFoundError) Is(target error) bool {
	return target == ErrTargetNotFound
}

// WithSuggestion adds a helpful suggestion for fixing the error
func (e *TargetNotFoundError) WithSuggestion(suggestion string) *TargetNotFoundError {
	e.BaseError.WithSuggestion(suggestion)
	return e
}

// RegistrationError represents an invalid rule registration
type RegistrationError struct {
	*BaseError
	Name   string // annotation name the rule was registered for
	Reason string // reason for registration failure
}

// NewRegistrationError creates a new rule registration error
func NewRegistrationError(name, reason string) *RegistrationError {
	message := fmt.Sprintf("failed to register rule '%s': %s", name, reason)

	return &RegistrationError{
		BaseError: New(RuleRegistrationErrorCode, message),
		Name:      name,
		Reason:    reason,
	}
}

// WithSuggestion adds a helpful suggestion for fixing the error
func (e *RegistrationError) WithSuggestion(suggestion string) *RegistrationError {
	e.BaseError.WithSuggestion(suggestion)
	return e
}

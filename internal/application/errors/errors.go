// Package apperrors defines application-level error types.
package apperrors

import (
	"fmt"

	"github.com/mstuart/has-permission/internal/domain/capabilities"
)

// ValidationError indicates user input failed validation.
type ValidationError struct {
	Field   string   // Field that failed validation
	Message string   // Error message
	Details []string // Additional details
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s: %s (%d issues)", e.Field, e.Message, len(e.Details))
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string, details ...string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Details: details,
	}
}

// GrantError indicates a grant was refused by the security policy or the user.
type GrantError struct {
	Reason     string
	Capability capabilities.Capability
}

func (e *GrantError) Error() string {
	return fmt.Sprintf("grant refused: %s: %s", e.Capability.String(), e.Reason)
}

// NewGrantError creates a new grant error.
func NewGrantError(reason string, capability capabilities.Capability) *GrantError {
	return &GrantError{
		Reason:     reason,
		Capability: capability,
	}
}

// ConfigurationError indicates system config or setup issue.
type ConfigurationError struct {
	Cause   error
	Aspect  string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration error (%s): %s: %v", e.Aspect, e.Message, e.Cause)
	}
	return fmt.Sprintf("configuration error (%s): %s", e.Aspect, e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// NewConfigurationError creates a new configuration error.
func NewConfigurationError(aspect, message string, cause error) *ConfigurationError {
	return &ConfigurationError{
		Aspect:  aspect,
		Message: message,
		Cause:   cause,
	}
}

// Package services implements the definition lifecycle operations behind the
// management API.
package services

import (
	"errors"
	"fmt"

	"github.com/pulsedash/automation/pkg/models"
)

// Business logic errors. Validation errors map to 400 responses, conflicts
// to 409.
var (
	ErrInvalidRequest    = errors.New("invalid request")
	ErrNameRequired      = errors.New("definition name is required")
	ErrTenantRequired    = errors.New("tenant ID is required")
	ErrDefinitionInvalid = errors.New("definition has validation violations")

	ErrCannotModifyActive = errors.New("cannot modify a non-draft definition")
	ErrCannotDeleteActive = errors.New("cannot delete an active definition")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error should map to HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrNameRequired) ||
		errors.Is(err, ErrTenantRequired) ||
		errors.Is(err, ErrDefinitionInvalid)
}

// IsConflictError checks if an error should map to HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrCannotModifyActive) ||
		errors.Is(err, ErrCannotDeleteActive) ||
		errors.Is(err, models.ErrInvalidState)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

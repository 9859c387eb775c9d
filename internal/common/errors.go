// Package common defines shared sentinel errors and small helpers used
// across the vault layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")

	// Service-level errors.
	ErrValidation     = errors.New("validation error")
	ErrCredential     = errors.New("incorrect username or password")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrSessionExpired = errors.New("session expired")

	// Backup errors.
	ErrBackupDisabled = errors.New("backup storage is not configured")
)

// ValidationError carries a user-facing reason and matches ErrValidation.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError returns a *ValidationError with the given reason.
func NewValidationError(reason string) error {
	return &ValidationError{Reason: reason}
}

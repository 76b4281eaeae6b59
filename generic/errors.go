/*
errors.go - Centralized error types for the generic primitives

PURPOSE:
  All domain-agnostic error types in one place for consistency.
  The liquidation package wraps these with domain context.

ERROR CATEGORIES:
  1. Validation errors - Malformed input, rejected before any computation
  2. Lookup errors - Referenced records that do not exist
  3. Store errors - Database-level failures

USAGE:
  Domain packages wrap generic errors:

    return &generic.ValidationError{Field: "end_date", Value: v, Err: generic.ErrInvalidPeriod}

SEE ALSO:
  - liquidation/errors.go: Settlement-specific errors
  - api/handlers.go: Maps errors to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrInvalidDate is returned when a date is not a YYYY-MM-DD string.
	ErrInvalidDate = errors.New("invalid date")

	// ErrEntityNotFound is returned when a referenced entity doesn't exist.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrDuplicateEntity is returned when an entity with the same ID exists.
	ErrDuplicateEntity = errors.New("duplicate entity")

	// ErrPersistence is returned when a write cannot be committed.
	ErrPersistence = errors.New("persistence error")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError names the offending field. It unwraps to the sentinel that
// classifies it (ErrInvalidDate, ErrInvalidPeriod, ...).
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("%s=%q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NotFoundError identifies the missing record.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrEntityNotFound
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation returns true if the error is due to malformed client input.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrInvalidDate)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEntityNotFound)
}

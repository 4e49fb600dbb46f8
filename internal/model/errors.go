package model

import (
	"errors"
	"fmt"
)

// Errors returned by the preference model. Callers match them with errors.Is.
var (
	// ErrValidation indicates a structurally invalid chart, domain or preference set.
	ErrValidation = errors.New("validation failed")

	// ErrDegenerateRange indicates a score function whose best and worst scores are equal.
	ErrDegenerateRange = errors.New("degenerate score range")

	// ErrDegenerateWeights indicates a weight map whose weights are all zero.
	ErrDegenerateWeights = errors.New("degenerate weights")

	// ErrNotFound indicates an unknown objective, user or alternative.
	ErrNotFound = errors.New("not found")

	// ErrOutOfRange indicates a value outside a continuous domain.
	ErrOutOfRange = errors.New("value out of range")

	// ErrUndefinedValue indicates a discrete score lookup for an element with no score.
	ErrUndefinedValue = errors.New("undefined value")

	// ErrInvalidWeight indicates a negative or non-finite weight.
	ErrInvalidWeight = errors.New("invalid weight")

	// ErrEmptyFunction indicates an operation that needs at least one scored element.
	ErrEmptyFunction = errors.New("empty score function")
)

// ValidationError collects every problem found while validating one entity.
type ValidationError struct {
	// Entity names what was validated, e.g. "chart" or "domain".
	Entity string

	// Errors holds one message per failed check.
	Errors []string
}

// NewValidationError creates an empty ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{Entity: entity}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// Unwrap lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// Addf appends a formatted message.
func (e *ValidationError) Addf(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

// HasErrors reports whether any check failed.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// OrNil returns e when it holds errors and nil otherwise, so callers can
// return it directly without the typed-nil trap.
func (e *ValidationError) OrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

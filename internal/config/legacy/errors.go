package legacy

import (
	"errors"
	"fmt"

	"github.com/dshills/buildopts/internal/config/registry"
)

var (
	// ErrSchemaConflict indicates an internally inconsistent legacy table.
	ErrSchemaConflict = errors.New("schema conflict")

	// ErrInvalidValue indicates a value outside a restricted alias's allowed set.
	ErrInvalidValue = errors.New("invalid legacy value")
)

// ConflictError reports a legacy declaration that contradicts the schema.
// It indicates a schema authoring bug, not a user error.
type ConflictError struct {
	Name   string
	Reason string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("internal error: legacy setting (%s): %s", e.Name, e.Reason)
}

// Is implements error matching for ConflictError.
func (e *ConflictError) Is(target error) bool {
	return target == ErrSchemaConflict
}

// InvalidValueError is returned when a restricted alias is given a value
// outside its allowed set.
type InvalidValueError struct {
	Name    string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid command line option -s %s=%s: %s", e.Name, registry.FormatValue(e.Value), e.Message)
}

// Is implements error matching for InvalidValueError.
func (e *InvalidValueError) Is(target error) bool {
	return target == ErrInvalidValue
}

// Validate returns an InvalidValueError if value is not accepted by a.
func (a *Alias) Validate(value any) error {
	if a.Allows(value) {
		return nil
	}
	return &InvalidValueError{Name: a.Name, Value: value, Message: a.Message}
}

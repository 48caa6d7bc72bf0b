package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrSettingAlreadyRegistered is returned when a name is registered twice.
	ErrSettingAlreadyRegistered = errors.New("setting already registered")

	// ErrInvalidName is returned for empty setting names.
	ErrInvalidName = errors.New("invalid setting name")

	// ErrUnsupportedType is returned when a default has no supported type.
	ErrUnsupportedType = errors.New("unsupported setting type")

	// ErrTypeMismatch indicates the value type doesn't match the inferred type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrBooleanString indicates "true"/"false" text was given for a boolean.
	ErrBooleanString = errors.New("boolean given as string")
)

// TypeError is returned when a value's type disagrees with the setting's type.
type TypeError struct {
	// Name is the setting name.
	Name string
	// Expected is the inferred type name.
	Expected string
	// Actual is the given value's type name.
	Actual string
}

// Error implements the error interface.
func (e *TypeError) Error() string {
	return fmt.Sprintf("setting `%s` expects `%s` but got `%s`", e.Name, e.Expected, e.Actual)
}

// Is implements error matching for TypeError.
func (e *TypeError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// BooleanStringError is returned when textual true/false is used for a boolean.
type BooleanStringError struct {
	Name  string
	Value string
}

// Error implements the error interface.
func (e *BooleanStringError) Error() string {
	return fmt.Sprintf("attempt to set `%s` to `%s`; use 1/0 to set boolean settings", e.Name, e.Value)
}

// Is implements error matching for BooleanStringError.
func (e *BooleanStringError) Is(target error) bool {
	return target == ErrBooleanString
}

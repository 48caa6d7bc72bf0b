package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/buildopts/internal/config/legacy"
	"github.com/dshills/buildopts/internal/config/registry"
)

// Errors returned by settings operations.
var (
	// ErrUnknownSetting indicates the name is not in the live table.
	ErrUnknownSetting = errors.New("unknown setting")

	// ErrAccessDenied indicates the name is outside the active allow-list.
	ErrAccessDenied = errors.New("access denied")

	// ErrStrictMode indicates a legacy name was written while strict mode
	// is active.
	ErrStrictMode = errors.New("legacy setting used in strict mode")

	// ErrTypeMismatch indicates the value type doesn't match the inferred type.
	ErrTypeMismatch = registry.ErrTypeMismatch

	// ErrBooleanString indicates textual true/false for a boolean setting.
	ErrBooleanString = registry.ErrBooleanString

	// ErrInvalidLegacyValue indicates a restricted legacy setting was given
	// a value outside its allowed set.
	ErrInvalidLegacyValue = legacy.ErrInvalidValue

	// ErrSchemaConflict indicates an inconsistent schema. It is an
	// authoring bug, never a user error.
	ErrSchemaConflict = legacy.ErrSchemaConflict
)

// UnknownSettingError is returned for names absent from the live table.
type UnknownSettingError struct {
	// Name is the attempted setting name.
	Name string
	// Write is true when the failure came from a write.
	Write bool
	// Suggestions are near-miss valid names, best first.
	Suggestions []string
}

// Error implements the error interface.
func (e *UnknownSettingError) Error() string {
	var b strings.Builder
	if e.Write {
		fmt.Fprintf(&b, "attempt to set a non-existent setting: '%s'", e.Name)
	} else {
		fmt.Fprintf(&b, "no such setting: '%s'", e.Name)
	}
	if len(e.Suggestions) > 0 {
		fmt.Fprintf(&b, "; did you mean one of %s?", strings.Join(e.Suggestions, ", "))
	}
	return b.String()
}

// Hints returns the follow-up lines shown under the error by the CLI.
func (e *UnknownSettingError) Hints() []string {
	var hints []string
	if len(e.Suggestions) > 0 {
		hints = append(hints, fmt.Sprintf("did you mean one of %s?", strings.Join(e.Suggestions, ", ")))
	}
	return append(hints,
		"perhaps a typo in -sX=Y notation?",
		"(see the settings schema for valid values)",
	)
}

// Is implements error matching for UnknownSettingError.
func (e *UnknownSettingError) Is(target error) bool {
	return target == ErrUnknownSetting
}

// AccessDeniedError is returned when the allow-list excludes a name.
type AccessDeniedError struct {
	Name string
	// Op is "read" or "write".
	Op string
}

// Error implements the error interface.
func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("internal error: attempt to %s setting '%s' while in limited settings mode", e.Op, e.Name)
}

// Is implements error matching for AccessDeniedError.
func (e *AccessDeniedError) Is(target error) bool {
	return target == ErrAccessDenied
}

// StrictModeError is returned for writes to legacy names in strict mode.
type StrictModeError struct {
	Name string
}

// Error implements the error interface.
func (e *StrictModeError) Error() string {
	return "legacy setting used in strict mode: " + e.Name
}

// Is implements error matching for StrictModeError.
func (e *StrictModeError) Is(target error) bool {
	return target == ErrStrictMode
}

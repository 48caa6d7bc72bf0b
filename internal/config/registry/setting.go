// Package registry provides the setting definitions table for buildopts.
//
// A Setting's type is inferred once from its default value and never changes
// afterwards. The registry also owns the write-time type check, including the
// boolean coercion rule and the fixed list of names exempt from checking.
package registry

import (
	"fmt"
	"math"
)

// ValueType is the inferred type of a setting.
type ValueType uint8

const (
	// TypeUnknown means no type could be inferred.
	TypeUnknown ValueType = iota
	// TypeBool represents a boolean value.
	TypeBool
	// TypeInt represents an integer value.
	TypeInt
	// TypeString represents a string value.
	TypeString
	// TypeList represents an ordered list of primitives.
	TypeList
)

// String returns the string representation of the type.
func (t ValueType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeString:
		return "str"
	case TypeList:
		return "list"
	default:
		return "unknown"
	}
}

// Setting defines a single recognized setting.
type Setting struct {
	// Name is the case-sensitive setting name (e.g., "INITIAL_MEMORY").
	Name string

	// Default is the value installed at initialization.
	Default any

	// Type is inferred from Default when the setting is registered.
	Type ValueType

	// Internal settings are live but never offered as suggestions.
	Internal bool

	// CompileTime marks settings that apply while compiling, not only at link.
	CompileTime bool

	// MemSize marks settings whose overrides may use size suffixes (64kb, 1Gb).
	MemSize bool

	// Origin records who declared the setting ("schema", "internal", or a port name).
	Origin string
}

// bypassed lists the settings whose legitimate values cross type boundaries.
// The list is fixed; do not infer it.
var bypassed = map[string]struct{}{
	"SUPPORT_LONGJMP":   {},
	"PTHREAD_POOL_SIZE": {},
	"SEPARATE_DWARF":    {},
	"LTO":               {},
}

// IsBypassed reports whether name is exempt from type checking.
func IsBypassed(name string) bool {
	_, ok := bypassed[name]
	return ok
}

// InferType returns the type of a default value.
func InferType(value any) (ValueType, error) {
	v, err := Normalize(value)
	if err != nil {
		return TypeUnknown, err
	}
	t := TypeOf(v)
	if t == TypeUnknown {
		return TypeUnknown, fmt.Errorf("%w: %T", ErrUnsupportedType, value)
	}
	return t, nil
}

// TypeOf returns the type of an already normalized value.
func TypeOf(value any) ValueType {
	switch v := value.(type) {
	case bool:
		return TypeBool
	case int:
		return TypeInt
	case string:
		return TypeString
	case []any:
		for _, item := range v {
			switch item.(type) {
			case bool, int, string:
			default:
				return TypeUnknown
			}
		}
		return TypeList
	default:
		return TypeUnknown
	}
}

// Normalize converts a value to the canonical representation stored in the
// live table: sized integers become int and typed slices become []any.
// Values of other kinds are returned unchanged.
func Normalize(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int8:
		return int(v), nil
	case int16:
		return int(v), nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case uint8:
		return int(v), nil
	case uint16:
		return int(v), nil
	case uint32:
		return int(v), nil
	case uint:
		if uint64(v) > math.MaxInt64 {
			return nil, fmt.Errorf("%w: %d overflows int", ErrUnsupportedType, v)
		}
		return int(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return nil, fmt.Errorf("%w: %d overflows int", ErrUnsupportedType, v)
		}
		return int(v), nil
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, nil
	case []int:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			n, err := Normalize(item)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	default:
		return value, nil
	}
}

// Check validates value against the expected type of the named setting and
// returns the value to store. Integers 1 and 0 are accepted (and converted)
// where a boolean is expected; the strings "true" and "false" are not.
func Check(name string, expected ValueType, value any) (any, error) {
	v, err := Normalize(value)
	if err != nil {
		return nil, &TypeError{Name: name, Expected: expected.String(), Actual: describe(value)}
	}
	if IsBypassed(name) || expected == TypeUnknown {
		return v, nil
	}

	if expected == TypeBool {
		switch x := v.(type) {
		case int:
			switch x {
			case 1:
				return true, nil
			case 0:
				return false, nil
			}
		case string:
			if isBoolString(x) {
				return nil, &BooleanStringError{Name: name, Value: x}
			}
		}
	}

	if TypeOf(v) != expected {
		return nil, &TypeError{Name: name, Expected: expected.String(), Actual: describe(v)}
	}
	return v, nil
}

func isBoolString(s string) bool {
	switch s {
	case "true", "false", "True", "False":
		return true
	}
	return false
}

// describe names the runtime type of a value the way error messages show it.
func describe(value any) string {
	if value == nil {
		return "null"
	}
	if t := TypeOf(value); t != TypeUnknown {
		return t.String()
	}
	return fmt.Sprintf("%T", value)
}

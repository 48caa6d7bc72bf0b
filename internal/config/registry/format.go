package registry

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatValue renders a setting value the way it would be written in a
// NAME=VALUE override.
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case bool:
		if v {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(v)
	case string:
		return v
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = FormatValue(item)
		}
		return "[" + strings.Join(parts, ",") + "]"
	default:
		n, err := Normalize(value)
		if err == nil && TypeOf(n) != TypeUnknown {
			return FormatValue(n)
		}
		return fmt.Sprint(value)
	}
}

// Equal compares two setting values. Booleans compare equal to the integers
// 1 and 0, and lists compare element-wise.
func Equal(a, b any) bool {
	na, errA := Normalize(a)
	nb, errB := Normalize(b)
	if errA != nil || errB != nil {
		return false
	}

	switch x := na.(type) {
	case []any:
		y, ok := nb.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case bool:
		switch y := nb.(type) {
		case bool:
			return x == y
		case int:
			return boolInt(x) == y
		}
		return false
	case int:
		switch y := nb.(type) {
		case int:
			return x == y
		case bool:
			return x == boolInt(y)
		}
		return false
	case string:
		y, ok := nb.(string)
		return ok && x == y
	}
	return false
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

package loader

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	gojson "github.com/goccy/go-json"
)

// ErrInvalidAssignment is returned for malformed NAME=VALUE arguments.
var ErrInvalidAssignment = errors.New("invalid setting assignment")

// ParseAssignment parses a NAME=VALUE argument. A bare NAME is shorthand for
// NAME=1.
func ParseAssignment(arg, source string) (Assignment, error) {
	name, raw, hasValue := strings.Cut(arg, "=")
	name = strings.TrimSpace(name)
	if name == "" {
		return Assignment{}, fmt.Errorf("%w: %q: missing name", ErrInvalidAssignment, arg)
	}
	if !hasValue {
		return Assignment{Name: name, Value: 1, Source: source}, nil
	}

	value, err := ParseValue(raw)
	if err != nil {
		return Assignment{}, fmt.Errorf("%w: %s: %w", ErrInvalidAssignment, name, err)
	}
	return Assignment{Name: name, Value: value, Source: source}, nil
}

// ParseValue converts the textual right-hand side of an override.
//
// Decimal integers become int. Bracketed values become lists, either as a
// JSON array or as a comma-separated list of bare words. Everything else,
// including "true" and "false", stays a string so that boolean settings can
// reject it.
func ParseValue(raw string) (any, error) {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "[") {
		if !strings.HasSuffix(s, "]") {
			return nil, fmt.Errorf("unterminated list %q", raw)
		}
		return parseList(s)
	}

	if n, ok := parseInt(s); ok {
		return n, nil
	}
	return raw, nil
}

func parseInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n > math.MaxInt || n < math.MinInt {
		return 0, false
	}
	return int(n), true
}

func parseList(s string) ([]any, error) {
	dec := gojson.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var items []any
	if err := dec.Decode(&items); err == nil {
		return listFromJSON(items)
	}

	// Bare words: [_main,_malloc]
	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return []any{}, nil
	}
	parts := strings.Split(inner, ",")
	out := make([]any, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), `'"`)
		if p == "" {
			return nil, fmt.Errorf("empty list element in %q", s)
		}
		if n, ok := parseInt(p); ok {
			out = append(out, n)
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func listFromJSON(items []any) ([]any, error) {
	out := make([]any, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string, bool:
			out = append(out, v)
		case gojson.Number:
			n, err := v.Int64()
			if err != nil || n > math.MaxInt || n < math.MinInt {
				return nil, fmt.Errorf("list element %s is not an integer", v)
			}
			out = append(out, int(n))
		default:
			return nil, fmt.Errorf("list elements must be strings, integers or booleans, got %T", item)
		}
	}
	return out, nil
}

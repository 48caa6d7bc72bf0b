package loader

import (
	"errors"
	"fmt"
	"sort"

	"github.com/pelletier/go-toml/v2"
)

// parseTOML reads top-level TOML keys. TOML tables are unordered, so keys
// are applied in name order.
func parseTOML(source string, data []byte) ([]Assignment, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		perr := &ParseError{Path: source, Message: err.Error(), Err: err}
		var de *toml.DecodeError
		if errors.As(err, &de) {
			perr.Line, perr.Column = de.Position()
		}
		return nil, perr
	}

	names := make([]string, 0, len(doc))
	for name := range doc {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Assignment, 0, len(names))
	for _, name := range names {
		v, err := tomlValue(doc[name])
		if err != nil {
			return nil, &ParseError{Path: source, Message: fmt.Sprintf("%s: %v", name, err), Err: err}
		}
		out = append(out, Assignment{Name: name, Value: v, Source: source})
	}
	return out, nil
}

func tomlValue(v any) (any, error) {
	switch x := v.(type) {
	case bool, string:
		return x, nil
	case int64:
		return int(x), nil
	case []any:
		list := make([]any, 0, len(x))
		for _, item := range x {
			if _, nested := item.([]any); nested {
				return nil, fmt.Errorf("nested lists are not supported")
			}
			iv, err := tomlValue(item)
			if err != nil {
				return nil, err
			}
			list = append(list, iv)
		}
		return list, nil
	case map[string]any:
		return nil, fmt.Errorf("tables are not supported")
	default:
		return nil, fmt.Errorf("unsupported value of type %T", v)
	}
}

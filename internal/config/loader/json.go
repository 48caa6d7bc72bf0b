package loader

import (
	"fmt"
	"math"

	"github.com/tidwall/gjson"
)

// parseJSON reads a flat JSON object, keeping document order.
func parseJSON(source string, data []byte) ([]Assignment, error) {
	if !gjson.ValidBytes(data) {
		return nil, &ParseError{Path: source, Message: "invalid JSON"}
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, &ParseError{Path: source, Message: "top level must be an object of NAME: value"}
	}

	var (
		out  []Assignment
		perr error
	)
	root.ForEach(func(key, value gjson.Result) bool {
		v, err := jsonValue(value)
		if err != nil {
			perr = &ParseError{Path: source, Message: fmt.Sprintf("%s: %v", key.String(), err), Err: err}
			return false
		}
		out = append(out, Assignment{Name: key.String(), Value: v, Source: source})
		return true
	})
	if perr != nil {
		return nil, perr
	}
	return out, nil
}

func jsonValue(r gjson.Result) (any, error) {
	switch r.Type {
	case gjson.True:
		return true, nil
	case gjson.False:
		return false, nil
	case gjson.String:
		return r.String(), nil
	case gjson.Number:
		f := r.Float()
		if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
			return nil, fmt.Errorf("%s is not an integer", r.Raw)
		}
		return int(r.Int()), nil
	case gjson.JSON:
		if !r.IsArray() {
			return nil, fmt.Errorf("nested objects are not supported")
		}
		items := r.Array()
		list := make([]any, 0, len(items))
		for _, item := range items {
			if item.IsArray() || item.IsObject() {
				return nil, fmt.Errorf("nested lists are not supported")
			}
			v, err := jsonValue(item)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	default:
		return nil, fmt.Errorf("null is not a setting value")
	}
}

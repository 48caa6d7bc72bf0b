package loader

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// parseYAML reads a flat YAML mapping, keeping document order.
func parseYAML(source string, data []byte) ([]Assignment, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Path: source, Message: err.Error(), Err: err}
	}
	if doc.Kind == 0 {
		return nil, nil
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, &ParseError{Path: source, Line: root.Line, Column: root.Column, Message: "top level must be a mapping of NAME: value"}
	}

	out := make([]Assignment, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		v, err := yamlValue(val)
		if err != nil {
			return nil, &ParseError{Path: source, Line: val.Line, Column: val.Column, Message: fmt.Sprintf("%s: %v", key.Value, err), Err: err}
		}
		out = append(out, Assignment{Name: key.Value, Value: v, Source: source})
	}
	return out, nil
}

func yamlValue(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, err
		}
		switch v.(type) {
		case bool, int, string:
			return v, nil
		case nil:
			return nil, fmt.Errorf("null is not a setting value")
		default:
			return nil, fmt.Errorf("unsupported value %q", node.Value)
		}
	case yaml.SequenceNode:
		list := make([]any, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("nested lists are not supported")
			}
			v, err := yamlValue(item)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	default:
		return nil, fmt.Errorf("nested mappings are not supported")
	}
}

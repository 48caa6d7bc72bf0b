package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// LegacyDecl declares a deprecated setting name.
//
// A rename has a Replacement; writes to Name are forwarded to it. A
// restricted alias has Allowed values and a Message explaining the
// restriction; its default is Allowed[0].
type LegacyDecl struct {
	Name        string
	Replacement string
	Allowed     []any
	Message     string
}

// Rename declares a renamed setting.
func Rename(name, replacement string) LegacyDecl {
	return LegacyDecl{Name: name, Replacement: replacement}
}

// Restricted declares a setting that only accepts a fixed set of values.
func Restricted(name string, allowed []any, message string) LegacyDecl {
	return LegacyDecl{Name: name, Allowed: allowed, Message: message}
}

// IsRename reports whether the declaration is a rename.
func (d LegacyDecl) IsRename() bool {
	return d.Replacement != ""
}

// UnmarshalYAML decodes the two-element [OLD, NEW] form and the
// three-element [OLD, [allowed...], message] form.
func (d *LegacyDecl) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("%w: line %d: expected a list", ErrInvalidLegacyDecl, node.Line)
	}

	var name string
	switch len(node.Content) {
	case 2:
		var replacement string
		if err := node.Content[0].Decode(&name); err != nil {
			return fmt.Errorf("%w: line %d: %v", ErrInvalidLegacyDecl, node.Line, err)
		}
		if err := node.Content[1].Decode(&replacement); err != nil {
			return fmt.Errorf("%w: line %d: %v", ErrInvalidLegacyDecl, node.Line, err)
		}
		*d = Rename(name, replacement)
	case 3:
		var allowed []any
		var message string
		if err := node.Content[0].Decode(&name); err != nil {
			return fmt.Errorf("%w: line %d: %v", ErrInvalidLegacyDecl, node.Line, err)
		}
		if node.Content[1].Kind != yaml.SequenceNode {
			return fmt.Errorf("%w: line %d: allowed values of %s must be a list", ErrInvalidLegacyDecl, node.Line, name)
		}
		if err := node.Content[1].Decode(&allowed); err != nil {
			return fmt.Errorf("%w: line %d: %v", ErrInvalidLegacyDecl, node.Line, err)
		}
		if err := node.Content[2].Decode(&message); err != nil {
			return fmt.Errorf("%w: line %d: %v", ErrInvalidLegacyDecl, node.Line, err)
		}
		*d = Restricted(name, allowed, message)
	default:
		return fmt.Errorf("%w: line %d: expected 2 or 3 elements, got %d", ErrInvalidLegacyDecl, node.Line, len(node.Content))
	}
	return nil
}

func (d LegacyDecl) validate() error {
	switch {
	case d.Name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidLegacyDecl)
	case d.IsRename():
		if len(d.Allowed) > 0 {
			return fmt.Errorf("%w: %s is both a rename and restricted", ErrInvalidLegacyDecl, d.Name)
		}
		if d.Replacement == d.Name {
			return fmt.Errorf("%w: %s renamed to itself", ErrInvalidLegacyDecl, d.Name)
		}
	case len(d.Allowed) == 0:
		return fmt.Errorf("%w: %s has no allowed values", ErrInvalidLegacyDecl, d.Name)
	case d.Message == "":
		return fmt.Errorf("%w: %s has no message", ErrInvalidLegacyDecl, d.Name)
	}
	return nil
}

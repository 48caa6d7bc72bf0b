// Package legacy maintains the table of deprecated setting names.
//
// A legacy name is either a rename, whose writes are forwarded to the modern
// setting, or a restricted alias that only accepts a fixed set of values.
// Legacy names never collide with regular names; Build enforces this.
package legacy

import (
	"github.com/dshills/buildopts/internal/config/registry"
	"github.com/dshills/buildopts/internal/config/schema"
)

// Kind distinguishes the two alias shapes.
type Kind uint8

const (
	// KindRename forwards writes to a replacement setting.
	KindRename Kind = iota
	// KindRestricted accepts only a fixed set of values.
	KindRestricted
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindRename:
		return "rename"
	case KindRestricted:
		return "restricted"
	default:
		return "unknown"
	}
}

// Alias is a single legacy name.
type Alias struct {
	// Name is the deprecated setting name.
	Name string

	// Replacement is the modern name for renames; empty otherwise.
	Replacement string

	// Allowed lists accepted values for restricted aliases.
	Allowed []any

	// Message explains the deprecation.
	Message string

	def any
}

// Kind returns the alias shape.
func (a *Alias) Kind() Kind {
	if a.Replacement != "" {
		return KindRename
	}
	return KindRestricted
}

// Default returns the value installed under the legacy name at build time.
// For renames this is the replacement's value when the table was built; for
// restricted aliases it is the first allowed value.
func (a *Alias) Default() any {
	return a.def
}

// Allows reports whether value may be written to the alias. Renames accept
// any value; their type is checked against the replacement.
func (a *Alias) Allows(value any) bool {
	if a.Kind() == KindRename {
		return true
	}
	for _, v := range a.Allowed {
		if registry.Equal(v, value) {
			return true
		}
	}
	return false
}

// Lookup returns the current value of a regular setting.
type Lookup func(name string) (any, bool)

// Table holds all legacy aliases of a configuration session.
type Table struct {
	aliases map[string]*Alias
	order   []string
	renames map[string][]string // replacement -> legacy names
}

// Build constructs the table from declarations. regular resolves the current
// value of regular settings; a declaration whose name is a regular setting,
// or whose replacement is not one, is a schema authoring bug and fails with
// a ConflictError.
func Build(decls []schema.LegacyDecl, regular Lookup) (*Table, error) {
	t := &Table{
		aliases: make(map[string]*Alias, len(decls)),
		renames: make(map[string][]string),
	}

	for _, d := range decls {
		if _, exists := regular(d.Name); exists {
			return nil, &ConflictError{Name: d.Name, Reason: "legacy setting cannot also be a regular setting"}
		}
		if _, dup := t.aliases[d.Name]; dup {
			return nil, &ConflictError{Name: d.Name, Reason: "legacy setting declared twice"}
		}

		a := &Alias{
			Name:        d.Name,
			Replacement: d.Replacement,
			Message:     d.Message,
		}
		if d.IsRename() {
			current, ok := regular(d.Replacement)
			if !ok {
				return nil, &ConflictError{Name: d.Name, Reason: "replacement " + d.Replacement + " is not a regular setting"}
			}
			a.def = current
			a.Message = "setting renamed to " + d.Replacement
			t.renames[d.Replacement] = append(t.renames[d.Replacement], d.Name)
		} else {
			if len(d.Allowed) == 0 {
				return nil, &ConflictError{Name: d.Name, Reason: "restricted legacy setting has no allowed values"}
			}
			allowed := make([]any, len(d.Allowed))
			for i, v := range d.Allowed {
				n, err := registry.Normalize(v)
				if err != nil {
					return nil, &ConflictError{Name: d.Name, Reason: err.Error()}
				}
				allowed[i] = n
			}
			a.Allowed = allowed
			a.def = allowed[0]
		}

		t.aliases[d.Name] = a
		t.order = append(t.order, d.Name)
	}
	return t, nil
}

// Lookup returns the alias for name.
func (t *Table) Lookup(name string) (*Alias, bool) {
	a, ok := t.aliases[name]
	return a, ok
}

// IsLegacy reports whether name is a legacy name.
func (t *Table) IsLegacy(name string) bool {
	_, ok := t.aliases[name]
	return ok
}

// Names returns the legacy names in declaration order.
func (t *Table) Names() []string {
	names := make([]string, len(t.order))
	copy(names, t.order)
	return names
}

// Len returns the number of aliases.
func (t *Table) Len() int {
	return len(t.order)
}

// RenamedFrom returns the legacy names forwarding to a modern setting.
func (t *Table) RenamedFrom(modern string) []string {
	names := t.renames[modern]
	out := make([]string, len(names))
	copy(out, names)
	return out
}

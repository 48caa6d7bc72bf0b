package registry

import (
	"fmt"
	"sort"
)

// Registry holds the definitions of every recognized regular setting.
//
// A Registry is not safe for concurrent use; it belongs to a single
// configuration session.
type Registry struct {
	settings map[string]*Setting
	order    []string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		settings: make(map[string]*Setting),
	}
}

// Register adds a setting definition, inferring its type from the default.
// Returns an error if the name is already registered or the default has no
// supported type.
func (r *Registry) Register(setting Setting) error {
	if setting.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	if _, exists := r.settings[setting.Name]; exists {
		return fmt.Errorf("%w: %s", ErrSettingAlreadyRegistered, setting.Name)
	}

	def, err := Normalize(setting.Default)
	if err != nil {
		return fmt.Errorf("setting %s: %w", setting.Name, err)
	}
	typ, err := InferType(def)
	if err != nil {
		return fmt.Errorf("setting %s: %w", setting.Name, err)
	}

	s := setting
	s.Default = def
	s.Type = typ
	r.settings[s.Name] = &s
	r.order = append(r.order, s.Name)
	return nil
}

// Get returns the definition for name, or nil if it is not registered.
func (r *Registry) Get(name string) *Setting {
	return r.settings[name]
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.settings[name]
	return ok
}

// TypeOf returns the inferred type of a registered setting.
func (r *Registry) TypeOf(name string) (ValueType, bool) {
	s, ok := r.settings[name]
	if !ok {
		return TypeUnknown, false
	}
	return s.Type, true
}

// Len returns the number of registered settings.
func (r *Registry) Len() int {
	return len(r.settings)
}

// Names returns all registered names sorted.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	sort.Strings(names)
	return names
}

// Ordered returns all definitions in registration order.
func (r *Registry) Ordered() []*Setting {
	result := make([]*Setting, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.settings[name])
	}
	return result
}

// All returns all definitions sorted by name.
func (r *Registry) All() []*Setting {
	result := r.Ordered()
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// Package layer orders override sources for the settings store.
//
// Each layer holds the assignments of one source. Layers are applied from
// lowest to highest priority, so a later layer overrides an earlier one for
// the same name.
package layer

import (
	"slices"

	"github.com/dshills/buildopts/internal/config/loader"
)

// Layer represents a single override source.
type Layer struct {
	// Name identifies the layer (e.g., "arguments", "file:opts.json").
	Name string

	// Priority determines application order (higher applies later).
	Priority int

	// Source indicates what kind of source the layer came from.
	Source Source

	// Path is the file path (if loaded from file).
	Path string

	// Assignments holds the overrides in application order.
	Assignments []loader.Assignment
}

// NewLayer creates an empty layer.
func NewLayer(name string, source Source, priority int) *Layer {
	return &Layer{
		Name:     name,
		Source:   source,
		Priority: priority,
	}
}

// NewLayerWithAssignments creates a layer with initial assignments.
func NewLayerWithAssignments(name string, source Source, priority int, assignments []loader.Assignment) *Layer {
	l := NewLayer(name, source, priority)
	l.Assignments = append(l.Assignments, assignments...)
	return l
}

// Load creates a layer from a loader using the standard name and priority
// of source.
func Load(source Source, ld loader.Loader) (*Layer, error) {
	assignments, err := ld.Load()
	if err != nil {
		return nil, err
	}
	return NewLayerWithAssignments(StandardLayerName(source), source, DefaultPriority(source), assignments), nil
}

// Add appends an assignment.
func (l *Layer) Add(a loader.Assignment) {
	l.Assignments = append(l.Assignments, a)
}

// Lookup returns the last value the layer assigns to any of names.
func (l *Layer) Lookup(names ...string) (any, bool) {
	for i := len(l.Assignments) - 1; i >= 0; i-- {
		if slices.Contains(names, l.Assignments[i].Name) {
			return l.Assignments[i].Value, true
		}
	}
	return nil, false
}

// Source indicates where an override layer came from.
type Source uint8

const (
	// SourceFile represents an override file.
	SourceFile Source = iota
	// SourceEnv represents environment variables.
	SourceEnv
	// SourceArgs represents command-line -s arguments.
	SourceArgs
	// SourcePort represents settings a port implies for its dependencies.
	SourcePort
)

// String returns a human-readable name for the source.
func (s Source) String() string {
	switch s {
	case SourceFile:
		return "file"
	case SourceEnv:
		return "environment"
	case SourceArgs:
		return "arguments"
	case SourcePort:
		return "port"
	default:
		return "unknown"
	}
}

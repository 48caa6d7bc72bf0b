// Package schema provides the declarative definition of every recognized
// build setting.
//
// A schema document lists regular settings with their defaults, internal
// settings, legacy alias declarations, and the compile-time and memory-size
// subsets. Documents are decoded, never executed.
package schema

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/dshills/buildopts/internal/config/registry"
)

//go:embed settings.yaml
var schemaFS embed.FS

// DefaultFile is the name of the embedded schema document.
const DefaultFile = "settings.yaml"

// Definition is a single name/default pair from a schema document.
type Definition struct {
	Name    string
	Default any
}

// Schema is a decoded schema document.
type Schema struct {
	// Settings are the regular settings, in document order.
	Settings []Definition

	// Internal settings are live but hidden from suggestions.
	Internal []Definition

	// Legacy holds the alias declarations, in document order.
	Legacy []LegacyDecl

	// CompileTime lists settings that apply at compile time.
	CompileTime []string

	// MemSize lists settings that accept memory-size suffixes.
	MemSize []string
}

// document mirrors the on-disk layout.
type document struct {
	Settings    definitions  `yaml:"settings"`
	Internal    definitions  `yaml:"internal"`
	Legacy      []LegacyDecl `yaml:"legacy"`
	CompileTime []string     `yaml:"compile_time"`
	MemSize     []string     `yaml:"mem_size"`
}

// definitions decodes a YAML mapping while keeping document order.
type definitions []Definition

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *definitions) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: settings must be a mapping of NAME: default", node.Line)
	}
	out := make(definitions, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		var def any
		if err := val.Decode(&def); err != nil {
			return fmt.Errorf("line %d: default for %s: %w", val.Line, key.Value, err)
		}
		if def == nil {
			// An empty list decodes as []any{}, but a bare key decodes as nil.
			return fmt.Errorf("line %d: %s has no default", key.Line, key.Value)
		}
		out = append(out, Definition{Name: key.Value, Default: def})
	}
	*d = out
	return nil
}

var (
	defaultOnce   sync.Once
	defaultSchema *Schema
	defaultErr    error
)

// Default returns the embedded schema. The document is decoded once; callers
// must treat the result as read-only.
func Default() (*Schema, error) {
	defaultOnce.Do(func() {
		data, err := schemaFS.ReadFile(DefaultFile)
		if err != nil {
			defaultErr = fmt.Errorf("failed to read embedded schema: %w", err)
			return
		}
		defaultSchema, defaultErr = Parse(data)
		if defaultErr != nil {
			defaultErr = fmt.Errorf("failed to parse embedded schema: %w", defaultErr)
		}
	})
	return defaultSchema, defaultErr
}

// Load reads and parses a schema document from disk.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a schema document.
func Parse(data []byte) (*Schema, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}

	s := &Schema{
		Settings:    doc.Settings,
		Internal:    doc.Internal,
		Legacy:      doc.Legacy,
		CompileTime: doc.CompileTime,
		MemSize:     doc.MemSize,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the document for authoring mistakes: duplicate names,
// unsupported default types, malformed legacy entries and subset lists that
// name unknown settings. Collisions between legacy and regular names are
// reported by the legacy table.
func (s *Schema) Validate() error {
	seen := make(map[string]string, len(s.Settings)+len(s.Internal))
	check := func(section string, defs []Definition) error {
		for _, d := range defs {
			if d.Name == "" {
				return fmt.Errorf("%w: empty name in %s", ErrInvalidSchema, section)
			}
			if prev, dup := seen[d.Name]; dup {
				return fmt.Errorf("%w: %s declared in %s and %s", ErrDuplicateSetting, d.Name, prev, section)
			}
			seen[d.Name] = section
			if _, err := registry.InferType(d.Default); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalidSchema, d.Name, err)
			}
		}
		return nil
	}
	if err := check("settings", s.Settings); err != nil {
		return err
	}
	if err := check("internal", s.Internal); err != nil {
		return err
	}

	for _, l := range s.Legacy {
		if err := l.validate(); err != nil {
			return err
		}
	}

	for _, name := range s.CompileTime {
		if _, ok := seen[name]; !ok {
			return fmt.Errorf("%w: compile_time names unknown setting %s", ErrInvalidSchema, name)
		}
	}
	for _, name := range s.MemSize {
		if _, ok := seen[name]; !ok {
			return fmt.Errorf("%w: mem_size names unknown setting %s", ErrInvalidSchema, name)
		}
	}
	return nil
}

// Registry builds the definitions table for the regular and internal
// settings of the schema.
func (s *Schema) Registry() (*registry.Registry, error) {
	compileTime := toSet(s.CompileTime)
	memSize := toSet(s.MemSize)

	r := registry.New()
	add := func(defs []Definition, internal bool, origin string) error {
		for _, d := range defs {
			_, ct := compileTime[d.Name]
			_, ms := memSize[d.Name]
			err := r.Register(registry.Setting{
				Name:        d.Name,
				Default:     d.Default,
				Internal:    internal,
				CompileTime: ct,
				MemSize:     ms,
				Origin:      origin,
			})
			if err != nil {
				return err
			}
		}
		return nil
	}
	if err := add(s.Settings, false, "schema"); err != nil {
		return nil, err
	}
	if err := add(s.Internal, true, "internal"); err != nil {
		return nil, err
	}
	return r, nil
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

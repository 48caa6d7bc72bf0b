package ports

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dshills/buildopts/internal/config/loader"
	"github.com/dshills/buildopts/internal/config/registry"
	"github.com/dshills/buildopts/internal/config/schema"
)

// Port describes an optional third-party library.
type Port struct {
	Name     string              `yaml:"name"`     // Port identifier (e.g., "sdl2_gfx")
	Version  string              `yaml:"version"`  // Upstream version or tag
	License  string              `yaml:"license"`  // License name
	Summary  string              `yaml:"show"`     // One-line description shown to users
	Library  string              `yaml:"library"`  // Library base name, without "lib" and ".a"
	Deps     []string            `yaml:"deps"`     // Ports this port builds against
	Settings []schema.Definition `yaml:"settings"` // Settings the port declares
	When     Condition           `yaml:"needed"`   // When the port is linked
	Sets     []Requirement       `yaml:"sets"`     // Settings forced when the port is linked
	Variant  *Variant            `yaml:"variant"`  // Optional library variant
	Args     []string            `yaml:"args"`     // Extra compile arguments
}

// Condition selects a port when Setting equals Value.
type Condition struct {
	Setting string `yaml:"setting"`
	Value   any    `yaml:"value"`
}

// Requirement is a setting value a port forces on its dependencies.
type Requirement struct {
	Name  string `yaml:"name"`
	Value any    `yaml:"value"`
}

// Variant names a library suffix used when Setting is truthy.
type Variant struct {
	Suffix  string `yaml:"suffix"`
	Setting string `yaml:"setting"`
}

// Reader is the read side of a settings store. Truthy reports whether a
// setting holds a true, non-zero or non-empty value.
type Reader interface {
	Get(name string) (any, error)
	Truthy(name string) (bool, error)
}

// Writer is the write side of a settings store. Source names who made the
// change.
type Writer interface {
	SetFrom(name string, value any, source string) error
}

// Declarer registers additional settings at configuration time.
type Declarer interface {
	DeclareSettings(source string, defs []schema.Definition) error
}

// Store is everything ports need from a settings store.
type Store interface {
	Reader
	Writer
	Declarer
}

// IncludePlaceholder is replaced by the include directory in Args.
const IncludePlaceholder = "{include}"

// Validation errors.
var (
	ErrMissingName    = errors.New("port: name is required")
	ErrInvalidName    = errors.New("port: name must be lowercase alphanumeric with underscores")
	ErrMissingLibrary = errors.New("port: library is required")
	ErrInvalidSetting = errors.New("port: invalid setting")
	ErrInvalidNeeded  = errors.New("port: needed must name a declared setting")
)

var (
	namePattern    = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	settingPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
)

// Source is the change source recorded for writes made by the port.
func (p *Port) Source() string {
	return "port:" + p.Name
}

// Show returns the description printed when listing ports.
func (p *Port) Show() string {
	return p.Summary
}

// Validate checks that the descriptor is well formed.
func (p *Port) Validate() error {
	if p.Name == "" {
		return ErrMissingName
	}
	if !namePattern.MatchString(p.Name) {
		return fmt.Errorf("%w: %s", ErrInvalidName, p.Name)
	}
	if p.Library == "" {
		return fmt.Errorf("%w: %s", ErrMissingLibrary, p.Name)
	}
	for _, dep := range p.Deps {
		if !namePattern.MatchString(dep) {
			return fmt.Errorf("%w: dependency %q of %s", ErrInvalidName, dep, p.Name)
		}
	}

	declared := false
	for _, d := range p.Settings {
		if !settingPattern.MatchString(d.Name) {
			return fmt.Errorf("%w: %q in %s", ErrInvalidSetting, d.Name, p.Name)
		}
		if _, err := registry.InferType(d.Default); err != nil {
			return fmt.Errorf("%w: %s in %s: %v", ErrInvalidSetting, d.Name, p.Name, err)
		}
		if d.Name == p.When.Setting {
			declared = true
		}
	}
	if !declared || p.When.Value == nil {
		return fmt.Errorf("%w: %s", ErrInvalidNeeded, p.Name)
	}

	for _, r := range p.Sets {
		if !settingPattern.MatchString(r.Name) || r.Value == nil {
			return fmt.Errorf("%w: forced setting %q in %s", ErrInvalidSetting, r.Name, p.Name)
		}
	}
	if p.Variant != nil && (p.Variant.Suffix == "" || !settingPattern.MatchString(p.Variant.Setting)) {
		return fmt.Errorf("%w: variant of %s", ErrInvalidSetting, p.Name)
	}
	return nil
}

// Needed reports whether the port is selected by the current settings.
func (p *Port) Needed(r Reader) (bool, error) {
	v, err := r.Get(p.When.Setting)
	if err != nil {
		return false, fmt.Errorf("port %s: %w", p.Name, err)
	}
	return registry.Equal(v, p.When.Value), nil
}

// ProcessDependencies writes the settings the port forces on the libraries
// it builds against and returns what it wrote.
func (p *Port) ProcessDependencies(w Writer) ([]loader.Assignment, error) {
	if len(p.Sets) == 0 {
		return nil, nil
	}
	written := make([]loader.Assignment, 0, len(p.Sets))
	for _, r := range p.Sets {
		if err := w.SetFrom(r.Name, r.Value, p.Source()); err != nil {
			return written, fmt.Errorf("port %s: %w", p.Name, err)
		}
		written = append(written, loader.Assignment{Name: r.Name, Value: r.Value, Source: p.Source()})
	}
	return written, nil
}

// LibName returns the archive name for the current settings, including the
// variant suffix when the variant is selected.
func (p *Port) LibName(r Reader) (string, error) {
	name := "lib" + p.Library
	if p.Variant != nil {
		on, err := r.Truthy(p.Variant.Setting)
		if err != nil {
			return "", fmt.Errorf("port %s: %w", p.Name, err)
		}
		if on {
			name += p.Variant.Suffix
		}
	}
	return name + ".a", nil
}

// CompileArgs returns the extra compile arguments with includeDir
// substituted.
func (p *Port) CompileArgs(includeDir string) []string {
	if len(p.Args) == 0 {
		return nil
	}
	args := make([]string, len(p.Args))
	for i, a := range p.Args {
		args[i] = strings.ReplaceAll(a, IncludePlaceholder, includeDir)
	}
	return args
}

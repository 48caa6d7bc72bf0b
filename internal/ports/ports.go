// Package ports describes the optional third-party libraries a build can
// link, and how they interact with build settings.
//
// A port declares the settings it understands, decides from the current
// settings whether it is needed, and may force settings on the libraries it
// builds against. Fetching and compiling the libraries is out of scope.
package ports

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/dshills/buildopts/internal/config/loader"
)

//go:embed ports.yaml
var builtinManifest []byte

// ErrUnknownPort is returned when a port name is not recognized.
var ErrUnknownPort = errors.New("unknown port")

// ErrDuplicatePort is returned when a manifest lists a port twice.
var ErrDuplicatePort = errors.New("duplicate port")

type manifest struct {
	Ports []*Port `yaml:"ports"`
}

var builtin = mustParse(builtinManifest)

// Parse decodes and validates a port manifest. Ports are returned sorted by
// name.
func Parse(data []byte) ([]*Port, error) {
	var m manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse port manifest: %w", err)
	}

	seen := make(map[string]bool, len(m.Ports))
	for _, p := range m.Ports {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePort, p.Name)
		}
		seen[p.Name] = true
	}

	sort.Slice(m.Ports, func(i, j int) bool {
		return m.Ports[i].Name < m.Ports[j].Name
	})
	return m.Ports, nil
}

// Load reads a port manifest from disk.
func Load(path string) ([]*Port, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read port manifest: %w", err)
	}
	return Parse(data)
}

func mustParse(data []byte) []*Port {
	p, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return p
}

// All returns the built-in ports sorted by name.
func All() []*Port {
	out := make([]*Port, len(builtin))
	copy(out, builtin)
	return out
}

// Get returns the built-in port called name.
func Get(name string) (*Port, error) {
	for _, p := range builtin {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownPort, name)
}

// Declare registers the settings of every given port with d. With no ports
// it declares the built-in set.
func Declare(d Declarer, ports ...*Port) error {
	if len(ports) == 0 {
		ports = builtin
	}
	for _, p := range ports {
		if len(p.Settings) == 0 {
			continue
		}
		if err := d.DeclareSettings(p.Source(), p.Settings); err != nil {
			return err
		}
	}
	return nil
}

// Resolution is the outcome of Resolve.
type Resolution struct {
	// Needed are the selected ports, sorted by name.
	Needed []*Port

	// Assignments are the settings written on behalf of the selected ports,
	// in the order they were written.
	Assignments []loader.Assignment
}

// Names returns the names of the selected ports.
func (r *Resolution) Names() []string {
	names := make([]string, len(r.Needed))
	for i, p := range r.Needed {
		names[i] = p.Name
	}
	return names
}

// Resolve selects the ports needed by the current settings of s and applies
// their dependency settings. Selection is repeated after the dependencies
// are written, since a forced setting may select another port. With no
// ports it resolves the built-in set.
func Resolve(s Store, ports ...*Port) (*Resolution, error) {
	if len(ports) == 0 {
		ports = builtin
	}

	res := &Resolution{}
	processed := make(map[string]bool, len(ports))
	for {
		needed, err := selectNeeded(s, ports)
		if err != nil {
			return nil, err
		}

		progress := false
		for _, p := range needed {
			if processed[p.Name] {
				continue
			}
			processed[p.Name] = true
			progress = true

			written, err := p.ProcessDependencies(s)
			res.Assignments = append(res.Assignments, written...)
			if err != nil {
				return nil, err
			}
		}
		if !progress {
			res.Needed = needed
			return res, nil
		}
	}
}

func selectNeeded(r Reader, ports []*Port) ([]*Port, error) {
	var needed []*Port
	for _, p := range ports {
		ok, err := p.Needed(r)
		if err != nil {
			return nil, err
		}
		if ok {
			needed = append(needed, p)
		}
	}
	sort.Slice(needed, func(i, j int) bool {
		return needed[i].Name < needed[j].Name
	})
	return needed, nil
}

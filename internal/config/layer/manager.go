package layer

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dshills/buildopts/internal/config/loader"
)

// Applier receives the merged assignments. The settings store implements it.
type Applier interface {
	Apply(assignments []loader.Assignment) error
}

// Manager keeps override layers sorted by priority.
type Manager struct {
	mu     sync.RWMutex
	layers []*Layer // Sorted by priority (ascending), stable for ties
}

// NewManager creates a new layer manager.
func NewManager() *Manager {
	return &Manager{}
}

// AddLayer adds a layer. Layers with equal priority keep insertion order.
func (m *Manager) AddLayer(layer *Layer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.layers = append(m.layers, layer)
	sort.SliceStable(m.layers, func(i, j int) bool {
		return m.layers[i].Priority < m.layers[j].Priority
	})
}

// Layers returns a copy of all layers sorted by priority.
func (m *Manager) Layers() []*Layer {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Layer, len(m.layers))
	copy(result, m.layers)
	return result
}

// LayerCount returns the number of layers.
func (m *Manager) LayerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.layers)
}

// Assignments returns every assignment of every layer in application order.
func (m *Manager) Assignments() []loader.Assignment {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []loader.Assignment
	for _, layer := range m.layers {
		out = append(out, layer.Assignments...)
	}
	return out
}

// Get returns the last value applied to any of names and the layer it came
// from. Pass a setting together with its rename aliases to find where its
// value was set.
func (m *Manager) Get(names ...string) (any, *Layer, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.layers) - 1; i >= 0; i-- {
		layer := m.layers[i]
		if val, ok := layer.Lookup(names...); ok {
			return val, layer, true
		}
	}
	return nil, nil, false
}

// WhichLayer returns the name of the layer that provides a value for any of
// names, or "" when none does.
func (m *Manager) WhichLayer(names ...string) string {
	_, layer, found := m.Get(names...)
	if !found {
		return ""
	}
	return layer.Name
}

// Apply hands each layer's assignments to dst, lowest priority first.
// Errors from file layers are prefixed with the file path.
func (m *Manager) Apply(dst Applier) error {
	for _, layer := range m.Layers() {
		if err := dst.Apply(layer.Assignments); err != nil {
			if layer.Path != "" {
				return fmt.Errorf("%s: %w", layer.Path, err)
			}
			return err
		}
	}
	return nil
}

package config

import "sort"

// Guard is an optional allow-list over setting names. An inactive guard
// allows everything.
type Guard struct {
	allowed map[string]struct{}
}

// Activate replaces the current restriction. An empty list deactivates the
// guard.
func (g *Guard) Activate(names []string) {
	if len(names) == 0 {
		g.allowed = nil
		return
	}
	g.allowed = make(map[string]struct{}, len(names))
	for _, n := range names {
		g.allowed[n] = struct{}{}
	}
}

// Deactivate clears the restriction.
func (g *Guard) Deactivate() {
	g.allowed = nil
}

// Active reports whether a restriction is in place.
func (g *Guard) Active() bool {
	return len(g.allowed) > 0
}

// Allows reports whether name may be read or written.
func (g *Guard) Allows(name string) bool {
	if !g.Active() {
		return true
	}
	_, ok := g.allowed[name]
	return ok
}

// Names returns the allowed names sorted, or nil when inactive.
func (g *Guard) Names() []string {
	if !g.Active() {
		return nil
	}
	names := make([]string, 0, len(g.allowed))
	for n := range g.allowed {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Package suggest ranks valid setting names by similarity to a misspelled
// one.
package suggest

import (
	"sort"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	// DefaultN is the maximum number of suggestions returned.
	DefaultN = 3

	// DefaultCutoff is the minimum similarity ratio for a suggestion.
	DefaultCutoff = 0.6
)

// Suggester returns close matches for name among candidates.
type Suggester interface {
	Suggest(name string, candidates []string) []string
}

// Engine ranks candidates with an edit-distance based similarity ratio.
// The result is deterministic for a given name and candidate set.
type Engine struct {
	// N is the maximum number of suggestions.
	N int

	// Cutoff is the minimum ratio in [0, 1] a candidate must reach.
	Cutoff float64
}

// New creates an engine. Non-positive n and out of range cutoffs fall back
// to the defaults.
func New(n int, cutoff float64) *Engine {
	if n <= 0 {
		n = DefaultN
	}
	if cutoff < 0 || cutoff > 1 {
		cutoff = DefaultCutoff
	}
	return &Engine{N: n, Cutoff: cutoff}
}

type scored struct {
	name  string
	score float64
}

// Suggest returns up to N candidates whose ratio to name is at least Cutoff,
// best first. Equal scores rank the greater name first.
func (e *Engine) Suggest(name string, candidates []string) []string {
	var matches []scored
	for _, c := range candidates {
		if r := Ratio(name, c); r >= e.Cutoff {
			matches = append(matches, scored{name: c, score: r})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].name > matches[j].name
	})

	if len(matches) > e.N {
		matches = matches[:e.N]
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.name
	}
	return out
}

// Ratio returns 2*M/T where M is the number of runes the two strings have in
// common according to a character diff and T is their combined length.
// Two empty strings are identical.
func Ratio(a, b string) float64 {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 1
	}
	if a == b {
		return 1
	}

	dmp := diffmatchpatch.New()
	matched := 0
	for _, d := range dmp.DiffMain(a, b, false) {
		if d.Type == diffmatchpatch.DiffEqual {
			matched += utf8.RuneCountInString(d.Text)
		}
	}
	return 2 * float64(matched) / float64(total)
}

// Cached memoizes another Suggester by attempted name. The owner must call
// Purge whenever the candidate set changes.
type Cached struct {
	inner Suggester
	cache *lru.Cache[string, []string]
}

// NewCached wraps inner with an LRU memo holding up to size names.
func NewCached(inner Suggester, size int) *Cached {
	if size <= 0 {
		size = 128
	}
	// lru.New only errors on non-positive size which we guard above.
	cache, _ := lru.New[string, []string](size)
	return &Cached{inner: inner, cache: cache}
}

// Suggest implements Suggester.
func (c *Cached) Suggest(name string, candidates []string) []string {
	if hit, ok := c.cache.Get(name); ok {
		return append([]string(nil), hit...)
	}
	result := c.inner.Suggest(name, candidates)
	c.cache.Add(name, result)
	return append([]string(nil), result...)
}

// Purge drops every memoized result.
func (c *Cached) Purge() {
	c.cache.Purge()
}

// Len returns the number of memoized names.
func (c *Cached) Len() int {
	return c.cache.Len()
}

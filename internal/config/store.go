package config

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/dshills/buildopts/internal/config/legacy"
	"github.com/dshills/buildopts/internal/config/loader"
	"github.com/dshills/buildopts/internal/config/notify"
	"github.com/dshills/buildopts/internal/config/registry"
	"github.com/dshills/buildopts/internal/config/schema"
	"github.com/dshills/buildopts/internal/config/suggest"
	"github.com/dshills/buildopts/internal/diagnostics"
	"github.com/dshills/buildopts/internal/logging"
)

// StrictSetting is the name of the setting that enables strict mode.
const StrictSetting = "STRICT"

// Store owns the live settings table of one configuration session.
//
// Every read and write runs the same pipeline: the allow-list first, then
// legacy handling, then the unknown-name check and the type check. A write
// that fails any step leaves the table unchanged.
//
// A Store is not safe for concurrent use. Use one Store per session.
type Store struct {
	schema *schema.Schema

	defs   *registry.Registry
	values map[string]any
	order  []string
	legacy *legacy.Table
	guard  Guard

	suggester suggest.Suggester
	memo      *suggest.Cached
	warner    diagnostics.Warner
	notifier  *notify.Notifier
	logger    *zap.Logger

	lookupEnv   loader.LookupFunc
	forceStrict *bool
}

// New creates a Store from sch and initializes it. A nil schema selects the
// embedded default.
func New(sch *schema.Schema, opts ...Option) (*Store, error) {
	if sch == nil {
		var err error
		if sch, err = schema.Default(); err != nil {
			return nil, err
		}
	}

	s := &Store{
		schema:    sch,
		suggester: suggest.New(suggest.DefaultN, suggest.DefaultCutoff),
		notifier:  notify.New(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.warner == nil {
		s.warner = diagnostics.New(s.logger, nil)
	}
	s.memo = suggest.NewCached(s.suggester, 256)

	if err := s.Reset(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reset clears every table and rebuilds it from the schema: regular and
// internal settings get their defaults, the strict override is applied and,
// unless strict mode is on, legacy names are installed with their defaults.
// The allow-list and all declared settings are dropped.
func (s *Store) Reset() error {
	defs, err := s.schema.Registry()
	if err != nil {
		return fmt.Errorf("building settings table: %w", err)
	}

	values := make(map[string]any, defs.Len()+len(s.schema.Legacy))
	order := make([]string, 0, defs.Len()+len(s.schema.Legacy))
	for _, d := range defs.Ordered() {
		values[d.Name] = cloneValue(d.Default)
		order = append(order, d.Name)
	}

	if err := s.applyStrictOverride(defs, values); err != nil {
		return err
	}

	table, err := legacy.Build(s.schema.Legacy, func(name string) (any, bool) {
		v, ok := values[name]
		return v, ok
	})
	if err != nil {
		return err
	}

	strict := truthy(values[StrictSetting])
	if !strict {
		for _, name := range table.Names() {
			alias, _ := table.Lookup(name)
			values[name] = cloneValue(alias.Default())
			order = append(order, name)
		}
	}

	s.defs = defs
	s.values = values
	s.order = order
	s.legacy = table
	s.guard.Deactivate()
	s.memo.Purge()

	s.logger.Debug("settings initialized",
		zap.Int("settings", defs.Len()),
		zap.Int("legacy", table.Len()),
		zap.Bool("strict", strict),
	)
	s.notifier.NotifyReload("reset")
	return nil
}

func (s *Store) applyStrictOverride(defs *registry.Registry, values map[string]any) error {
	var forced any
	switch {
	case s.forceStrict != nil:
		forced = *s.forceStrict
	default:
		n, ok, err := loader.StrictFromEnv(s.lookupEnv)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		forced = n
	}

	typ, ok := defs.TypeOf(StrictSetting)
	if !ok {
		return nil
	}
	switch v := forced.(type) {
	case int:
		if typ == registry.TypeBool {
			forced = v != 0
		}
	case bool:
		if typ == registry.TypeInt {
			forced = boolToInt(v)
		}
	}
	values[StrictSetting] = forced
	return nil
}

// Get returns the current value of name.
func (s *Store) Get(name string) (any, error) {
	if !s.guard.Allows(name) {
		return nil, &AccessDeniedError{Name: name, Op: "read"}
	}
	v, ok := s.values[name]
	if !ok {
		return nil, s.unknown(name, false)
	}
	return cloneValue(v), nil
}

// Set writes value under name. See SetFrom.
func (s *Store) Set(name string, value any) error {
	return s.SetFrom(name, value, "api")
}

// SetFrom writes value under name, recording source in change events.
//
// Writing a rename alias also writes its replacement; writing the
// replacement never touches the alias. Writing a restricted alias requires
// one of its allowed values. Both emit a legacy-settings warning. Setting
// STRICT to a truthy value removes every legacy name from the table.
func (s *Store) SetFrom(name string, value any, source string) error {
	if !s.guard.Allows(name) {
		return &AccessDeniedError{Name: name, Op: "write"}
	}

	alias, isLegacy := s.legacy.Lookup(name)
	if isLegacy {
		if s.Strict() {
			return &StrictModeError{Name: name}
		}
		if err := alias.Validate(value); err != nil {
			return err
		}
	}

	current, exists := s.values[name]
	if !exists {
		return s.unknown(name, true)
	}

	stored, err := s.check(name, alias, value)
	if err != nil {
		return err
	}

	if isLegacy {
		if err := s.warner.Warn(diagnostics.LegacySettings, "use of legacy setting: %s (%s)", name, alias.Message); err != nil {
			return err
		}
	}

	batch := s.notifier.NewBatch()
	s.values[name] = stored
	batch.Set(name, current, stored, source)

	enteringStrict := name == StrictSetting && truthy(stored)
	if isLegacy && alias.Kind() == legacy.KindRename {
		replacement := alias.Replacement
		batch.Set(replacement, s.values[replacement], stored, source)
		s.values[replacement] = cloneValue(stored)
		enteringStrict = enteringStrict || (replacement == StrictSetting && truthy(stored))
	}

	if enteringStrict {
		s.purgeLegacy(batch)
	}
	batch.Commit()
	return nil
}

// check runs the type check for a write and returns the value to store.
// Renames are checked against their replacement's type; restricted aliases
// were already checked by membership.
func (s *Store) check(name string, alias *legacy.Alias, value any) (any, error) {
	target := name
	if alias != nil {
		if alias.Kind() == legacy.KindRestricted {
			return registry.Check(name, registry.TypeUnknown, value)
		}
		target = alias.Replacement
	}
	typ, _ := s.defs.TypeOf(target)
	return registry.Check(name, typ, value)
}

func (s *Store) purgeLegacy(batch *notify.Batch) {
	purged := 0
	for _, name := range s.legacy.Names() {
		if old, ok := s.values[name]; ok {
			delete(s.values, name)
			batch.Delete(name, old, "strict")
			purged++
		}
	}
	if purged == 0 {
		return
	}

	order := s.order[:0]
	for _, name := range s.order {
		if _, ok := s.values[name]; ok {
			order = append(order, name)
		}
	}
	s.order = order
	s.logger.Debug("strict mode enabled; legacy settings removed", zap.Int("count", purged))
}

// unknown builds an UnknownSettingError with suggestions drawn from the
// non-internal regular names.
func (s *Store) unknown(name string, write bool) error {
	var candidates []string
	for _, d := range s.defs.All() {
		if !d.Internal {
			candidates = append(candidates, d.Name)
		}
	}
	return &UnknownSettingError{
		Name:        name,
		Write:       write,
		Suggestions: s.memo.Suggest(name, candidates),
	}
}

// UpdateMany writes every entry of values, in name order. It stops at the
// first failure; earlier entries stay applied.
func (s *Store) UpdateMany(values map[string]any) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := s.SetFrom(name, values[name], "update"); err != nil {
			return err
		}
	}
	return nil
}

// Apply writes override assignments in order. String values for memory-size
// settings may carry a KB, MB, GB or TB suffix. It stops at the first
// failure; earlier assignments stay applied.
func (s *Store) Apply(assignments []loader.Assignment) error {
	for _, a := range assignments {
		value := a.Value
		if raw, ok := value.(string); ok && s.IsMemSize(a.Name) {
			n, err := loader.ParseMemSize(raw)
			if err != nil {
				return fmt.Errorf("invalid command line option -s %s=%s: %w", a.Name, raw, err)
			}
			value = n
		}
		if err := s.SetFrom(a.Name, value, a.Source); err != nil {
			return err
		}
	}
	return nil
}

// DeclareSettings registers additional settings at configuration time, for
// example the options a port understands. New names get their default and
// an inferred type and are marked compile-time. Names that are already
// regular settings keep their current value. A name that collides with a
// legacy setting is a schema conflict; nothing is declared in that case.
func (s *Store) DeclareSettings(source string, defs []schema.Definition) error {
	for _, d := range defs {
		if d.Name == "" {
			return fmt.Errorf("declaring settings for %s: %w", source, registry.ErrInvalidName)
		}
		if s.legacy.IsLegacy(d.Name) {
			return &legacy.ConflictError{Name: d.Name, Reason: "declared by " + source + " but is a legacy setting"}
		}
		if s.defs.Has(d.Name) {
			continue
		}
		if _, err := registry.InferType(d.Default); err != nil {
			return fmt.Errorf("declaring %s for %s: %w", d.Name, source, err)
		}
	}

	for _, d := range defs {
		if existing := s.defs.Get(d.Name); existing != nil {
			existing.CompileTime = true
			continue
		}
		if err := s.defs.Register(registry.Setting{
			Name:        d.Name,
			Default:     d.Default,
			CompileTime: true,
			Origin:      source,
		}); err != nil {
			return fmt.Errorf("declaring %s for %s: %w", d.Name, source, err)
		}
		def := s.defs.Get(d.Name).Default
		s.values[d.Name] = cloneValue(def)
		s.order = append(s.order, d.Name)

		s.logger.Debug("setting declared", logging.Setting(d.Name, def), zap.String("source", source))
		s.notifier.NotifyDeclare(d.Name, def, source)
	}
	s.memo.Purge()
	return nil
}

// LimitSettings restricts reads and writes to names. An empty list lifts
// the restriction.
func (s *Store) LimitSettings(names []string) {
	s.guard.Activate(names)
}

// ClearLimit lifts the restriction set by LimitSettings.
func (s *Store) ClearLimit() {
	s.guard.Deactivate()
}

// Limited returns the active allow-list, or nil.
func (s *Store) Limited() []string {
	return s.guard.Names()
}

// AllNames returns the visible names of the live table, sorted.
func (s *Store) AllNames() []string {
	names := s.Keys()
	sort.Strings(names)
	return names
}

// Keys returns the visible names of the live table in initialization
// order: schema settings, internal settings, legacy names, then declared
// settings.
func (s *Store) Keys() []string {
	names := make([]string, 0, len(s.order))
	for _, name := range s.order {
		if s.guard.Allows(name) {
			names = append(names, name)
		}
	}
	return names
}

// Snapshot returns a copy of the visible part of the live table.
func (s *Store) Snapshot() map[string]any {
	out := make(map[string]any, len(s.order))
	for _, name := range s.Keys() {
		out[name] = cloneValue(s.values[name])
	}
	return out
}

// Strict reports whether strict mode is on.
func (s *Store) Strict() bool {
	return truthy(s.values[StrictSetting])
}

// Definition returns the definition of a regular or declared setting.
func (s *Store) Definition(name string) (registry.Setting, bool) {
	d := s.defs.Get(name)
	if d == nil {
		return registry.Setting{}, false
	}
	out := *d
	out.Default = cloneValue(d.Default)
	return out, true
}

// Alias returns the legacy alias registered under name, whether or not it
// is currently in the live table.
func (s *Store) Alias(name string) (*legacy.Alias, bool) {
	return s.legacy.Lookup(name)
}

// RenamedFrom returns the legacy names whose writes forward to name.
func (s *Store) RenamedFrom(name string) []string {
	return s.legacy.RenamedFrom(name)
}

// IsLegacy reports whether name is a legacy name.
func (s *Store) IsLegacy(name string) bool {
	return s.legacy.IsLegacy(name)
}

// IsInternal reports whether name is an internal setting.
func (s *Store) IsInternal(name string) bool {
	d := s.defs.Get(name)
	return d != nil && d.Internal
}

// IsCompileTime reports whether name applies at compile time.
func (s *Store) IsCompileTime(name string) bool {
	d := s.defs.Get(name)
	return d != nil && d.CompileTime
}

// IsMemSize reports whether name accepts memory-size suffixes. A rename
// alias follows its replacement.
func (s *Store) IsMemSize(name string) bool {
	if a, ok := s.legacy.Lookup(name); ok && a.Kind() == legacy.KindRename {
		name = a.Replacement
	}
	d := s.defs.Get(name)
	return d != nil && d.MemSize
}

func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case int:
		return x != 0
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	default:
		return false
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func cloneValue(v any) any {
	if list, ok := v.([]any); ok {
		out := make([]any, len(list))
		copy(out, list)
		return out
	}
	return v
}

package loader

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

const (
	// StrictEnvVar forces strict mode at initialization.
	StrictEnvVar = "BUILDOPTS_STRICT"

	// SettingEnvPrefix prefixes environment overrides:
	// BUILDOPTS_SETTING_ASSERTIONS=2 sets ASSERTIONS to 2.
	SettingEnvPrefix = "BUILDOPTS_SETTING_"
)

// ErrInvalidEnv is returned for unparsable environment values.
var ErrInvalidEnv = errors.New("invalid environment value")

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// StrictFromEnv reads StrictEnvVar. It reports ok=false when the variable is
// unset and fails when it is set to something other than an integer.
func StrictFromEnv(lookup LookupFunc) (value int, ok bool, err error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	raw, ok := lookup(StrictEnvVar)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s=%q must be an integer", ErrInvalidEnv, StrictEnvVar, raw)
	}
	return n, true, nil
}

// EnvLoader loads assignments from prefixed environment variables.
type EnvLoader struct {
	prefix  string
	environ func() []string
}

// NewEnvLoaderWithEnviron creates a loader reading from a custom environment.
func NewEnvLoaderWithEnviron(prefix string, environ func() []string) *EnvLoader {
	return &EnvLoader{prefix: prefix, environ: environ}
}

// Load implements Loader. Variables are applied in name order.
func (l *EnvLoader) Load() ([]Assignment, error) {
	var out []Assignment
	for _, env := range l.environ() {
		key, raw, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(key, l.prefix) {
			continue
		}
		name := strings.TrimPrefix(key, l.prefix)
		if name == "" {
			continue
		}
		value, err := ParseValue(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidEnv, key, err)
		}
		out = append(out, Assignment{Name: name, Value: value, Source: "env"})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

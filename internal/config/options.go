package config

import (
	"go.uber.org/zap"

	"github.com/dshills/buildopts/internal/config/loader"
	"github.com/dshills/buildopts/internal/config/notify"
	"github.com/dshills/buildopts/internal/config/suggest"
	"github.com/dshills/buildopts/internal/diagnostics"
)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithNotifier routes change events to n.
func WithNotifier(n *notify.Notifier) Option {
	return func(s *Store) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithWarner sets the channel for non-fatal diagnostics.
func WithWarner(w diagnostics.Warner) Option {
	return func(s *Store) {
		if w != nil {
			s.warner = w
		}
	}
}

// WithSuggester replaces the close-match engine used for unknown names.
func WithSuggester(sg suggest.Suggester) Option {
	return func(s *Store) {
		if sg != nil {
			s.suggester = sg
		}
	}
}

// WithEnv sets how the strict-mode environment variable is looked up.
// The default reads the process environment.
func WithEnv(lookup loader.LookupFunc) Option {
	return func(s *Store) {
		s.lookupEnv = lookup
	}
}

// WithStrict forces STRICT at every initialization, taking precedence over
// the schema default and the environment.
func WithStrict(strict bool) Option {
	return func(s *Store) {
		s.forceStrict = &strict
	}
}

package main

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/dshills/buildopts/internal/config"
	"github.com/dshills/buildopts/internal/config/layer"
	"github.com/dshills/buildopts/internal/config/loader"
	"github.com/dshills/buildopts/internal/config/notify"
	"github.com/dshills/buildopts/internal/config/schema"
	"github.com/dshills/buildopts/internal/diagnostics"
	"github.com/dshills/buildopts/internal/logging"
	"github.com/dshills/buildopts/internal/ports"
)

// options are the resolved global flags.
type options struct {
	schemaFile    string
	settings      []string
	settingsFiles []string
	limit         []string
	strict        *bool
	logLevel      string
	logFormat     string
	werror        bool
	noWarn        bool
	verbose       bool
}

// session is one configured settings store together with the layers that
// produced it.
type session struct {
	logger *zap.Logger
	diag   *diagnostics.Channel
	store  *config.Store
	layers *layer.Manager

	// baseline is the table after port declaration and before overrides.
	baseline map[string]any

	resolution *ports.Resolution
}

// openSession builds the store and applies every override layer: files,
// environment, command line, then the settings ports force on their
// dependencies. The allow-list is installed last.
func (c *cli) openSession(opts options) (*session, error) {
	logCfg := logging.DefaultConfig()
	logCfg.Level = opts.logLevel
	logCfg.Encoding = opts.logFormat
	if opts.verbose && (opts.logLevel == "" || opts.logLevel == "error") {
		logCfg.Level = "info"
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, err
	}

	diag := diagnostics.New(logger, c.errOut)
	switch {
	case opts.noWarn:
		err = diag.Disable(diagnostics.LegacySettings)
	case opts.werror:
		err = diag.Promote(diagnostics.LegacySettings)
	}
	if err != nil {
		return nil, err
	}

	notifier := notify.New()
	if opts.verbose {
		notifier.Subscribe(func(ch notify.Change) {
			logger.Info("setting changed",
				zap.String("name", ch.Name),
				zap.Stringer("type", ch.Type),
				zap.Any("old", ch.OldValue),
				zap.Any("new", ch.NewValue),
				zap.String("source", ch.Source))
		})
	}

	storeOpts := []config.Option{
		config.WithLogger(logger),
		config.WithNotifier(notifier),
		config.WithWarner(diag),
		config.WithEnv(c.lookupEnv),
	}
	if opts.strict != nil {
		storeOpts = append(storeOpts, config.WithStrict(*opts.strict))
	}
	var sch *schema.Schema
	if opts.schemaFile != "" {
		if sch, err = schema.Load(opts.schemaFile); err != nil {
			return nil, err
		}
	}
	store, err := config.New(sch, storeOpts...)
	if err != nil {
		return nil, err
	}
	if err := ports.Declare(store); err != nil {
		return nil, err
	}

	s := &session{
		logger:   logger,
		diag:     diag,
		store:    store,
		layers:   layer.NewManager(),
		baseline: store.Snapshot(),
	}

	if err := s.loadLayers(opts, c.environ); err != nil {
		return nil, err
	}
	if err := s.layers.Apply(store); err != nil {
		return nil, err
	}

	s.resolution, err = ports.Resolve(store)
	if err != nil {
		return nil, err
	}
	if len(s.resolution.Assignments) > 0 {
		src := layer.SourcePort
		s.layers.AddLayer(layer.NewLayerWithAssignments(
			layer.StandardLayerName(src), src, layer.DefaultPriority(src), s.resolution.Assignments))
	}

	store.LimitSettings(opts.limit)
	logger.Debug("session ready",
		zap.Int("layers", s.layers.LayerCount()),
		zap.Strings("ports", s.resolution.Names()))
	return s, nil
}

func (s *session) loadLayers(opts options, environ func() []string) error {
	for _, path := range opts.settingsFiles {
		l, err := layer.Load(layer.SourceFile, loader.NewFileLoader(path))
		if err != nil {
			return err
		}
		l.Name = "file:" + path
		l.Path = path
		s.layers.AddLayer(l)
	}

	env, err := layer.Load(layer.SourceEnv, loader.NewEnvLoaderWithEnviron(loader.SettingEnvPrefix, environ))
	if err != nil {
		return err
	}
	if len(env.Assignments) > 0 {
		s.layers.AddLayer(env)
	}

	if len(opts.settings) > 0 {
		src := layer.SourceArgs
		args := layer.NewLayer(layer.StandardLayerName(src), src, layer.DefaultPriority(src))
		for _, raw := range opts.settings {
			a, err := loader.ParseAssignment(raw, "cmdline")
			if err != nil {
				return err
			}
			args.Add(a)
		}
		s.layers.AddLayer(args)
	}
	return nil
}

// origin names the layer that set name, directly or through a rename
// alias, or "default".
func (s *session) origin(name string) string {
	names := append([]string{name}, s.store.RenamedFrom(name)...)
	if l := s.layers.WhichLayer(names...); l != "" {
		return l
	}
	return "default"
}

// changed returns the visible names whose values differ from the baseline,
// sorted.
func (s *session) changed() []string {
	added, modified, _ := layer.DiffMaps(s.baseline, s.store.Snapshot())
	out := append(added, modified...)
	sort.Strings(out)
	return out
}

// hints returns the extra lines printed under an error.
func hints(err error) []string {
	var unknown *config.UnknownSettingError
	if errors.As(err, &unknown) {
		return unknown.Hints()
	}
	var promoted *diagnostics.PromotedError
	if errors.As(err, &promoted) {
		return []string{fmt.Sprintf("use --no-warn or drop --werror to allow %s", promoted.Category)}
	}
	return nil
}

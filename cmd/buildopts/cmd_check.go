package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/buildopts/internal/config/watcher"
	"github.com/dshills/buildopts/internal/diagnostics"
)

var (
	styleOK  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	styleBox = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func (c *cli) newCheckCommand() *cobra.Command {
	var watch bool
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the overrides and report a summary",
		Long: `check applies every override layer and stops at the first invalid one.
On success it prints what was applied.

With --watch, check stays running and repeats whenever a settings file
changes. Errors are reported and watching continues.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.readOptions(cmd)
			if err != nil {
				return err
			}
			if watch {
				return c.watchCheck(cmd.Context(), opts, debounce)
			}
			_, err = c.check(opts)
			return err
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-check whenever a settings file changes")
	cmd.Flags().DurationVar(&debounce, "debounce", 100*time.Millisecond, "quiet period before re-checking")
	return cmd
}

func (c *cli) check(opts options) (*session, error) {
	s, err := c.openSession(opts)
	if err != nil {
		return nil, err
	}
	report := s.report()
	if isTTY(c.out) {
		lines := strings.Split(report, "\n")
		lines[0] = styleOK.Render(lines[0])
		report = styleBox.Render(strings.Join(lines, "\n"))
	}
	fmt.Fprintln(c.out, report)
	return s, nil
}

// watchCheck runs check once, then again after every settings file change
// until ctx is done.
func (c *cli) watchCheck(ctx context.Context, opts options, debounce time.Duration) error {
	if len(opts.settingsFiles) == 0 {
		return errors.New("--watch needs at least one --settings-file")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	recheck := func() *session {
		s, err := c.check(opts)
		if err != nil {
			printError(c.errOut, err)
		}
		return s
	}

	logger := zap.NewNop()
	if s := recheck(); s != nil {
		logger = s.logger
	}

	w, err := watcher.New(watcher.WithDebounce(debounce), watcher.WithLogger(logger))
	if err != nil {
		return err
	}
	for _, path := range opts.settingsFiles {
		if err := w.Watch(path); err != nil {
			w.Close()
			return err
		}
	}

	fmt.Fprintf(c.out, "watching: %s\n", strings.Join(w.WatchedFiles(), ", "))

	checks := make(chan watcher.Event, 1)
	w.OnChange(func(e watcher.Event) {
		select {
		case checks <- e:
		default:
		}
	})

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	for {
		select {
		case err := <-done:
			return err
		case e := <-checks:
			fmt.Fprintf(c.out, "%s changed (%s)\n", e.Path, e.Op)
			recheck()
		}
	}
}

// report summarizes a session.
func (s *session) report() string {
	overrides := len(s.layers.Assignments())
	var names []string
	for _, l := range s.layers.Layers() {
		names = append(names, l.Name)
	}

	var b strings.Builder
	b.WriteString("configuration ok\n")
	fmt.Fprintf(&b, "overrides: %d from %d layer(s)", overrides, len(names))
	if len(names) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(names, ", "))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "changed settings: %d\n", len(s.changed()))
	fmt.Fprintf(&b, "strict mode: %s\n", onOff(s.store.Strict()))
	if limited := s.store.Limited(); len(limited) > 0 {
		fmt.Fprintf(&b, "allow-list: %s\n", strings.Join(limited, ", "))
	}
	fmt.Fprintf(&b, "legacy warnings: %d\n", s.diag.Count(diagnostics.LegacySettings))
	ports := "none"
	if needed := s.resolution.Names(); len(needed) > 0 {
		ports = strings.Join(needed, ", ")
	}
	fmt.Fprintf(&b, "ports: %s", ports)
	return b.String()
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

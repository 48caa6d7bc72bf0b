package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/buildopts/internal/config/legacy"
	"github.com/dshills/buildopts/internal/config/registry"
)

func (c *cli) newListCommand() *cobra.Command {
	var (
		changedOnly     bool
		includeInternal bool
		includeLegacy   bool
		long            bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List settings and their values",
		Long: `list prints NAME=VALUE for every visible setting.

With --long each line also shows the setting's type and its flags:
compile-time, mem-size, internal, and the port that declared it. Legacy
names show what they forward to or the values they still accept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open(cmd)
			if err != nil {
				return err
			}

			names := s.store.AllNames()
			if changedOnly {
				names = s.changed()
			}

			var w io.Writer = c.out
			var tw *tabwriter.Writer
			if long {
				tw = tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
				w = tw
			}

			snapshot := s.store.Snapshot()
			for _, name := range names {
				if !includeInternal && s.store.IsInternal(name) {
					continue
				}
				if !includeLegacy && s.store.IsLegacy(name) {
					continue
				}
				v, ok := snapshot[name]
				if !ok {
					continue
				}
				if !long {
					fmt.Fprintf(w, "%s=%s\n", name, registry.FormatValue(v))
					continue
				}
				kind, info := s.describe(name)
				fmt.Fprintf(w, "%s=%s\t%s\t%s\n", name, registry.FormatValue(v), kind, info)
			}
			if tw != nil {
				return tw.Flush()
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&changedOnly, "changed", false, "only list settings that differ from their defaults")
	cmd.Flags().BoolVar(&includeInternal, "internal", false, "include internal settings")
	cmd.Flags().BoolVar(&includeLegacy, "legacy", false, "include legacy setting names")
	cmd.Flags().BoolVarP(&long, "long", "l", false, "show types and flags")
	return cmd
}

// describe returns the type column and the flags column for name.
func (s *session) describe(name string) (string, string) {
	if a, ok := s.store.Alias(name); ok {
		if a.Kind() == legacy.KindRename {
			return "legacy", "renamed to " + a.Replacement
		}
		allowed := make([]string, len(a.Allowed))
		for i, v := range a.Allowed {
			allowed[i] = registry.FormatValue(v)
		}
		return "legacy", fmt.Sprintf("one of %s: %s", strings.Join(allowed, ", "), a.Message)
	}

	d, ok := s.store.Definition(name)
	if !ok {
		return "", ""
	}
	var flags []string
	if s.store.IsCompileTime(name) {
		flags = append(flags, "compile-time")
	}
	if d.MemSize {
		flags = append(flags, "mem-size")
	}
	if d.Internal {
		flags = append(flags, "internal")
	}
	if strings.HasPrefix(d.Origin, "port:") {
		flags = append(flags, d.Origin)
	}
	return d.Type.String(), strings.Join(flags, ",")
}

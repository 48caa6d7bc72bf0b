package main

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
	"gopkg.in/yaml.v3"
)

// Dump formats.
const (
	formatJSON = "json"
	formatYAML = "yaml"
	formatTOML = "toml"
)

func (c *cli) newDumpCommand() *cobra.Command {
	var (
		format          string
		colorMode       string
		changedOnly     bool
		includeInternal bool
	)

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Write the settings table as JSON, YAML or TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			colored, err := useColor(colorMode, isTTY(c.out))
			if err != nil {
				return err
			}

			s, err := c.open(cmd)
			if err != nil {
				return err
			}

			names := s.store.AllNames()
			if changedOnly {
				names = s.changed()
			}
			snapshot := s.store.Snapshot()
			var visible []string
			for _, name := range names {
				if s.store.IsLegacy(name) || (!includeInternal && s.store.IsInternal(name)) {
					continue
				}
				if _, ok := snapshot[name]; ok {
					visible = append(visible, name)
				}
			}

			data, err := encodeTable(format, snapshot, visible, colored)
			if err != nil {
				return err
			}
			_, err = c.out.Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "output format (json, yaml or toml)")
	cmd.Flags().StringVar(&colorMode, "color", "auto", "colorize JSON output (auto, always or never)")
	cmd.Flags().BoolVar(&changedOnly, "changed", false, "only dump settings that differ from their defaults")
	cmd.Flags().BoolVar(&includeInternal, "internal", false, "include internal settings")
	return cmd
}

func useColor(mode string, tty bool) (bool, error) {
	switch mode {
	case "auto":
		return tty, nil
	case "always":
		return true, nil
	case "never":
		return false, nil
	}
	return false, fmt.Errorf("invalid --color %q: must be auto, always or never", mode)
}

// encodeTable encodes the named entries of table in the given format. JSON
// keys keep the order of names.
func encodeTable(format string, table map[string]any, names []string, colored bool) ([]byte, error) {
	switch strings.ToLower(format) {
	case formatJSON:
		out := []byte("{}")
		for _, name := range names {
			var err error
			if out, err = sjson.SetBytes(out, name, table[name]); err != nil {
				return nil, fmt.Errorf("encoding %s: %w", name, err)
			}
		}
		out = pretty.Pretty(out)
		if colored {
			out = pretty.Color(out, nil)
		}
		return out, nil

	case formatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(subset(table, names)); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	case formatTOML:
		return toml.Marshal(subset(table, names))
	}
	return nil, fmt.Errorf("unsupported format %q: must be json, yaml or toml", format)
}

func subset(table map[string]any, names []string) map[string]any {
	out := make(map[string]any, len(names))
	for _, name := range names {
		out[name] = table[name]
	}
	return out
}

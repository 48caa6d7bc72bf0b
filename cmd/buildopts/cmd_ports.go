package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dshills/buildopts/internal/ports"
)

func (c *cli) newPortsCommand() *cobra.Command {
	var (
		neededOnly bool
		includeDir string
	)

	cmd := &cobra.Command{
		Use:   "ports",
		Short: "List the available ports and which ones the settings select",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open(cmd)
			if err != nil {
				return err
			}

			selected := make(map[string]bool)
			for _, name := range s.resolution.Names() {
				selected[name] = true
			}
			mark := color.New(color.FgGreen, color.Bold).Sprint("*")

			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			for _, p := range ports.All() {
				if neededOnly && !selected[p.Name] {
					continue
				}
				lib, err := p.LibName(s.store)
				if err != nil {
					return err
				}
				prefix := " "
				if selected[p.Name] {
					prefix = mark
				}
				fmt.Fprintf(tw, "%s %s\t%s\t%s\n", prefix, p.Name, lib, p.Show())
				if selected[p.Name] {
					if extra := p.CompileArgs(includeDir); len(extra) > 0 {
						fmt.Fprintf(tw, "\t\targs: %s\n", strings.Join(extra, " "))
					}
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&neededOnly, "needed", false, "only list ports the settings select")
	cmd.Flags().StringVar(&includeDir, "include-dir", "include", "port include directory used in compile arguments")
	return cmd
}

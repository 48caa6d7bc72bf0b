package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/buildopts/internal/config/registry"
)

func (c *cli) newGetCommand() *cobra.Command {
	var showSource bool

	cmd := &cobra.Command{
		Use:   "get NAME...",
		Short: "Print the value of one or more settings",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open(cmd)
			if err != nil {
				return err
			}
			for _, name := range args {
				v, err := s.store.Get(name)
				if err != nil {
					return err
				}
				if showSource {
					fmt.Fprintf(c.out, "%s=%s\t(%s)\n", name, registry.FormatValue(v), s.origin(name))
					continue
				}
				fmt.Fprintf(c.out, "%s=%s\n", name, registry.FormatValue(v))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showSource, "source", false, "show which layer set each value")
	return cmd
}

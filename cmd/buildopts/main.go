// Package main is the entry point for the buildopts command.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/dshills/buildopts/internal/diagnostics"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) int {
	c := newCLI(out, errOut)
	rootCmd := c.newRootCommand()
	rootCmd.Version = fmt.Sprintf("%s (%s)", version, commit)
	rootCmd.SetArgs(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(errOut, err)
		return 1
	}
	return 0
}

func printError(w io.Writer, err error) {
	// Promoted warnings were already reported by the diagnostics channel.
	if errors.Is(err, diagnostics.ErrWarningAsError) {
		for _, h := range hints(err) {
			fmt.Fprintf(w, "  %s\n", h)
		}
		return
	}
	label := color.New(color.FgRed, color.Bold).Sprint("error:")
	fmt.Fprintf(w, "%s: %s %v\n", appName, label, err)
	for _, h := range hints(err) {
		fmt.Fprintf(w, "  %s\n", h)
	}
}

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/dshills/buildopts/internal/config/loader"
)

const appName = "buildopts"

// cli holds the command line state shared by all subcommands.
type cli struct {
	v *viper.Viper

	out    io.Writer
	errOut io.Writer

	// configFile overrides the search for .buildopts.yaml.
	configFile string

	environ   func() []string
	lookupEnv loader.LookupFunc
}

func newCLI(out, errOut io.Writer) *cli {
	return &cli{
		v:         viper.New(),
		out:       out,
		errOut:    errOut,
		environ:   os.Environ,
		lookupEnv: os.LookupEnv,
	}
}

// newRootCommand creates the root cobra command.
func (c *cli) newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   appName,
		Short: "Inspect and validate build settings",
		Long: `buildopts resolves the build settings table from the schema defaults,
settings files, BUILDOPTS_SETTING_* environment variables and -s NAME=VALUE
overrides, then reports the result.

Boolean settings take 1 or 0. Memory sizes accept KB, MB, GB and TB suffixes.
Set BUILDOPTS_STRICT=1 or pass --strict to reject legacy setting names.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.SetOut(c.out)
	rootCmd.SetErr(c.errOut)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&c.configFile, "config", "", "CLI config file (default: ./.buildopts.yaml or ~/.buildopts.yaml)")
	pf.String("schema", "", "settings schema document (default: built-in)")
	pf.StringArrayP("setting", "s", nil, "override a setting as NAME=VALUE (repeatable)")
	pf.StringArray("settings-file", nil, "JSON, YAML or TOML file of setting overrides (repeatable)")
	pf.StringArray("limit", nil, "only allow access to NAME (repeatable)")
	pf.Bool("strict", false, "reject legacy setting names")
	pf.String("log-level", "error", "log level (debug, info, warn, error)")
	pf.String("log-format", "console", "log format (console or json)")
	pf.Bool("werror", false, "treat legacy setting warnings as errors")
	pf.Bool("no-warn", false, "silence legacy setting warnings")
	pf.BoolP("verbose", "v", false, "log every setting change")

	rootCmd.AddCommand(c.newGetCommand())
	rootCmd.AddCommand(c.newListCommand())
	rootCmd.AddCommand(c.newDumpCommand())
	rootCmd.AddCommand(c.newCheckCommand())
	rootCmd.AddCommand(c.newPortsCommand())
	return rootCmd
}

// readOptions merges the CLI config file, BUILDOPTS_* variables and flags,
// in increasing precedence.
func (c *cli) readOptions(cmd *cobra.Command) (options, error) {
	v := c.v
	if c.configFile != "" {
		v.SetConfigFile(c.configFile)
	} else {
		v.SetConfigName("." + appName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return options{}, fmt.Errorf("reading CLI config: %w", err)
		}
	}

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return options{}, err
	}
	v.SetEnvPrefix(strings.ToUpper(appName))
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	for _, key := range []string{"log-level", "log-format", "werror", "no-warn"} {
		if err := v.BindEnv(key); err != nil {
			return options{}, err
		}
	}

	opts := options{
		schemaFile:    v.GetString("schema"),
		settings:      stringList(cmd, v, "setting"),
		settingsFiles: stringList(cmd, v, "settings-file"),
		limit:         stringList(cmd, v, "limit"),
		logLevel:      v.GetString("log-level"),
		logFormat:     v.GetString("log-format"),
		werror:        v.GetBool("werror"),
		noWarn:        v.GetBool("no-warn"),
		verbose:       v.GetBool("verbose"),
	}
	// STRICT is left to the store and BUILDOPTS_STRICT unless asked for.
	if v.IsSet("strict") {
		strict := v.GetBool("strict")
		opts.strict = &strict
	}
	return opts, nil
}

// stringList reads a repeatable flag. Values given on the command line are
// taken verbatim; otherwise the CLI config file supplies them.
func stringList(cmd *cobra.Command, v *viper.Viper, key string) []string {
	if f := cmd.Flags().Lookup(key); f != nil && f.Changed {
		if values, err := cmd.Flags().GetStringArray(key); err == nil {
			return values
		}
	}
	return v.GetStringSlice(key)
}

// open reads the options for cmd and builds a session.
func (c *cli) open(cmd *cobra.Command) (*session, error) {
	opts, err := c.readOptions(cmd)
	if err != nil {
		return nil, err
	}
	return c.openSession(opts)
}

// isTTY reports whether w is a terminal.
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

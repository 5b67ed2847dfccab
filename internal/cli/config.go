package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rileyhilliard/gpumon/internal/config"
	"github.com/rileyhilliard/gpumon/internal/errors"
	"github.com/rileyhilliard/gpumon/internal/ui"
	"github.com/spf13/cobra"
)

var (
	configFormat string
	configCheck  bool
	configPaths  bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved config",
	Long: `Print the config gpumon would use, after the search order and defaults
have been applied.

Config files are tried in order and the first one that exists and parses
wins. Use --paths to see every location and why it was skipped.

Examples:
  gpumon config
  gpumon config --format json
  gpumon config --paths
  gpumon config --check --config ./servers.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configCommand(ConfigOptions{
			Explicit: cfgFile,
			Format:   configFormat,
			Check:    configCheck,
			Paths:    configPaths,
		}, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().StringVar(&configFormat, "format", "yaml", "output format: yaml or json")
	configCmd.Flags().BoolVar(&configCheck, "check", false, "fail if no config file could be used")
	configCmd.Flags().BoolVar(&configPaths, "paths", false, "list the search locations and their outcome")
}

// ConfigOptions holds options for the config command.
type ConfigOptions struct {
	Explicit string
	Format   string
	Check    bool
	Paths    bool
}

// ConfigOutput is the JSON form of the config command.
type ConfigOutput struct {
	Source   string          `json:"source"`
	Default  bool            `json:"default"`
	Config   json.RawMessage `json:"config"`
	Attempts []AttemptOutput `json:"attempts,omitempty"`
}

// AttemptOutput describes one searched location.
type AttemptOutput struct {
	Path  string `json:"path"`
	Error string `json:"error,omitempty"`
}

// configCommand implements the config command logic.
func configCommand(opts ConfigOptions, out io.Writer) error {
	if opts.Check && opts.Explicit != "" {
		// An explicit file must load by itself under --check
		if _, err := config.Load(opts.Explicit); err != nil {
			return err
		}
	}

	resolved := config.Resolve(opts.Explicit)

	if opts.Check && resolved.IsDefault() {
		return errors.New(errors.ErrConfig,
			"No usable config file found",
			"Run 'gpumon config --paths' to see where gpumon looked, or 'gpumon init' to create one")
	}

	if machineMode {
		o, err := newConfigOutput(resolved)
		if err != nil {
			return err
		}
		return WriteJSONSuccess(out, o)
	}

	if opts.Paths {
		renderAttempts(resolved, out)
		return nil
	}

	data, err := config.Render(resolved.Config, opts.Format)
	if err != nil {
		return err
	}

	source := resolved.Source
	if resolved.IsDefault() {
		source = "built-in defaults"
	}
	fmt.Fprintf(out, "# source: %s\n", source)
	_, err = out.Write(data)
	return err
}

func newConfigOutput(resolved *config.Resolved) (ConfigOutput, error) {
	data, err := config.Render(resolved.Config, "json")
	if err != nil {
		return ConfigOutput{}, err
	}
	o := ConfigOutput{
		Source:  resolved.Source,
		Default: resolved.IsDefault(),
		Config:  json.RawMessage(data),
	}
	for _, a := range resolved.Attempts {
		ao := AttemptOutput{Path: a.Path}
		if a.Err != nil {
			ao.Error = firstLine(a.Err)
		}
		o.Attempts = append(o.Attempts, ao)
	}
	return o, nil
}

// renderAttempts lists each searched location with its outcome.
func renderAttempts(resolved *config.Resolved, out io.Writer) {
	for _, a := range resolved.Attempts {
		if a.Err == nil {
			fmt.Fprintf(out, "%s %s\n", ui.SuccessStyle().Render(ui.SymbolSuccess), a.Path)
			continue
		}
		fmt.Fprintf(out, "%s %s %s\n",
			ui.MutedStyle().Render(ui.SymbolSkipped),
			a.Path,
			ui.MutedStyle().Render("("+firstLine(a.Err)+")"))
	}
	if resolved.IsDefault() {
		fmt.Fprintf(out, "%s built-in defaults\n", ui.SuccessStyle().Render(ui.SymbolSuccess))
	}
}

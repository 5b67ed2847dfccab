package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/gpumon/internal/config"
	"github.com/rileyhilliard/gpumon/internal/errors"
	"github.com/rileyhilliard/gpumon/internal/monitor"
	"github.com/rileyhilliard/gpumon/internal/ui"
	"github.com/spf13/cobra"
)

// probeTimeout bounds the reachability check run before saving.
const probeTimeout = 5 * time.Second

// InitOptions holds options for the init command.
type InitOptions struct {
	Servers        []string // Pre-specified status hosts
	Port           int      // Pre-specified port, 0 for the default
	Endpoint       string   // Pre-specified path, empty for the default
	Path           string   // Where to write; empty means ./servers.json
	Global         bool     // Write to ~/.config/gpumon/servers.json
	Overwrite      bool     // Overwrite existing config without asking
	NonInteractive bool     // Skip prompts, use flags and defaults
	SkipProbe      bool     // Don't check the hosts before saving
}

var (
	initServers        []string
	initPort           int
	initEndpoint       string
	initPath           string
	initGlobal         bool
	initForce          bool
	initNonInteractive bool
	initNoProbe        bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a servers.json config",
	Long: `Create a servers.json file listing the GPU status hosts to poll.

Runs an interactive wizard unless --non-interactive is given (or the
GPUMON_NON_INTERACTIVE or CI environment variables are set). Each host is
probed once before saving so typos show up early; unreachable hosts are
still saved.

Examples:
  gpumon init
  gpumon init --global
  gpumon init --non-interactive --server 10.0.0.5 --server 10.0.0.6
  gpumon init --non-interactive --server gpu1,gpu2 --port 8080 --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults := initDefaults()
		opts := InitOptions{
			Servers:        initServers,
			Port:           initPort,
			Endpoint:       initEndpoint,
			Path:           initPath,
			Global:         initGlobal,
			Overwrite:      initForce,
			NonInteractive: initNonInteractive || defaults.NonInteractive || !stdinIsTerminal(),
			SkipProbe:      initNoProbe,
		}
		if len(opts.Servers) == 0 {
			opts.Servers = defaults.Servers
		}
		return Init(cmd.Context(), opts, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringSliceVarP(&initServers, "server", "s", nil, "status host to poll (repeatable or comma separated)")
	initCmd.Flags().IntVarP(&initPort, "port", "p", 0, fmt.Sprintf("status port (default %d)", config.DefaultPort))
	initCmd.Flags().StringVar(&initEndpoint, "endpoint", "", fmt.Sprintf("status path (default %s)", config.DefaultEndpoint))
	initCmd.Flags().StringVar(&initPath, "path", "", "file to write (default ./servers.json)")
	initCmd.Flags().BoolVar(&initGlobal, "global", false, "write the per-user config in ~/.config/gpumon")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing config")
	initCmd.Flags().BoolVar(&initNonInteractive, "non-interactive", false, "don't prompt; use flags and defaults")
	initCmd.Flags().BoolVar(&initNoProbe, "no-probe", false, "skip the reachability check")
}

// initEnvDefaults are init settings taken from the environment.
type initEnvDefaults struct {
	Servers        []string
	NonInteractive bool
}

// initDefaults reads GPUMON_SERVERS, GPUMON_NON_INTERACTIVE and CI.
func initDefaults() initEnvDefaults {
	d := initEnvDefaults{}
	if s := os.Getenv("GPUMON_SERVERS"); s != "" {
		d.Servers = splitServers([]string{s})
	}
	d.NonInteractive = envTrue("GPUMON_NON_INTERACTIVE") || envTrue("CI")
	return d
}

func envTrue(name string) bool {
	v, err := strconv.ParseBool(os.Getenv(name))
	return err == nil && v
}

// target returns the file Init writes.
func (o InitOptions) target() (string, error) {
	if o.Path != "" {
		return config.ExpandTilde(o.Path), nil
	}
	if o.Global {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Can't find your home directory",
				"Use --path to choose where to write the config")
		}
		return filepath.Join(home, config.GlobalConfigDir, config.ConfigFileName), nil
	}
	return filepath.Join(".", config.ConfigFileName), nil
}

// Init creates a new servers.json configuration file.
func Init(ctx context.Context, opts InitOptions, out io.Writer) error {
	configPath, err := opts.target()
	if err != nil {
		return err
	}

	overwrite := opts.Overwrite

	// Check for existing config
	if _, err := os.Stat(configPath); err == nil && !overwrite {
		if opts.NonInteractive {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Config file already exists: %s", configPath),
				"Use --force to overwrite")
		}

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Config file '%s' already exists. Overwrite?", configPath)).
					Value(&overwrite),
			),
		)

		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}

		if !overwrite {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	cfg, err := collectInitConfig(opts)
	if err != nil {
		return err
	}

	if !opts.SkipProbe {
		probeServers(ctx, cfg, out)
	}

	if err := config.Write(configPath, cfg, overwrite); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s Created %s\n\n", ui.SymbolSuccess, configPath)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  gpumon            - Poll every host once")
	fmt.Fprintln(out, "  gpumon --watch    - Live dashboard")
	fmt.Fprintln(out, "  gpumon config     - Show the resolved config")

	return nil
}

// collectInitConfig builds the config from flags, or from the wizard.
func collectInitConfig(opts InitOptions) (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Servers = splitServers(opts.Servers)
	if opts.Port != 0 {
		cfg.Port = opts.Port
	}
	if opts.Endpoint != "" {
		cfg.Endpoint = opts.Endpoint
	}

	if opts.NonInteractive {
		if len(cfg.Servers) == 0 {
			return nil, errors.New(errors.ErrConfig,
				"At least one server is required in non-interactive mode",
				"Provide --server (or set GPUMON_SERVERS) or run interactively")
		}
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	serversText := strings.Join(cfg.Servers, ", ")
	if serversText == "" {
		serversText = strings.Join(config.DefaultServers, ", ")
	}
	portText := strconv.Itoa(cfg.Port)
	endpoint := cfg.Endpoint

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Status hosts").
				Description("Hostnames or IPs running the GPU status reporter, comma separated").
				Placeholder("192.168.5.40, gpu-box").
				Value(&serversText).
				Validate(func(s string) error {
					if len(splitServers([]string{s})) == 0 {
						return fmt.Errorf("at least one host is required")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Port").
				Description("Port the status reporters listen on").
				Placeholder(strconv.Itoa(config.DefaultPort)).
				Value(&portText).
				Validate(func(s string) error {
					if _, err := validatePort(s); err != nil {
						return fmt.Errorf("enter a port between 1 and 65535")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Endpoint").
				Description("HTTP path serving the status JSON").
				Placeholder(config.DefaultEndpoint).
				Value(&endpoint).
				Validate(func(s string) error {
					if !strings.HasPrefix(strings.TrimSpace(s), "/") {
						return fmt.Errorf("endpoint must start with /")
					}
					return nil
				}),
		),
	)

	if err := form.Run(); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get user input",
			"Check terminal compatibility or use --non-interactive flag")
	}

	port, err := validatePort(portText)
	if err != nil {
		return nil, err
	}
	cfg.Servers = splitServers([]string{serversText})
	cfg.Port = port
	cfg.Endpoint = strings.TrimSpace(endpoint)

	return cfg, config.Validate(cfg)
}

// probeServers polls every host once and reports which ones answered.
// Failures are only reported; the config is saved either way.
func probeServers(ctx context.Context, cfg *config.Config, out io.Writer) {
	fetcher := monitor.NewFetcher(cfg.Endpoints(),
		monitor.WithHTTPClient(statusClient),
		monitor.WithTimeout(probeTimeout),
	)

	var spinner *ui.Spinner
	if isTerminal(out) {
		spinner = ui.NewSpinner(fmt.Sprintf("Checking %d hosts", len(cfg.Servers)))
		spinner.SetOutput(func(s string) { fmt.Fprint(out, s) })
		spinner.Start()
	}

	results := fetcher.FetchResults(ctx)

	if spinner != nil {
		spinner.Clear()
	}

	for _, r := range results {
		if r.OK() {
			fmt.Fprintf(out, "%s %s %s\n",
				ui.SuccessStyle().Render(ui.SymbolSuccess),
				r.Host,
				ui.MutedStyle().Render(fmt.Sprintf("%s, %s", r.Status.Hostname, ui.FormatGPUCount(len(r.Status.Samples)))))
			continue
		}
		fmt.Fprintf(out, "%s %s %s\n",
			ui.WarningStyle().Render(ui.SymbolFail),
			r.Host,
			ui.MutedStyle().Render(firstLine(r.Err)))
	}
	fmt.Fprintln(out)
}

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rileyhilliard/gpumon/internal/logger"
	"github.com/rileyhilliard/gpumon/internal/ui"
	"github.com/spf13/cobra"
)

// Global flags
var (
	cfgFile string
	verbose bool
	noColor bool
)

// Root command flags
var (
	watchFlag    bool
	intervalFlag int
	logFlag      bool
	logDirFlag   string
	plainFlag    bool
)

var rootCmd = &cobra.Command{
	Use:   "gpumon",
	Short: "Poll GPU power draw across a fleet of status hosts",
	Long: `gpumon polls every configured GPU status host, merges the replies into
one snapshot and prints per-host and total power draw.

Without flags it performs a single poll and exits. With --watch it keeps
polling on an interval and shows a live dashboard.

Hosts are read from servers.json (see 'gpumon config --paths'). When no
config file is found the built-in defaults are used.

Examples:
  gpumon
  gpumon --watch
  gpumon -w -i 5
  gpumon --json`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			ui.DisableColors()
		}
		if verbose {
			logger.EnableDebug()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return statusCommand(cmd.Context(), StatusOptions{
			ConfigPath:  cfgFile,
			Watch:       watchFlag,
			Interval:    intervalFlag,
			IntervalSet: cmd.Flags().Changed("interval"),
			Log:         logFlag || cmd.Flags().Changed("log-dir"),
			LogDir:      logDirFlag,
			Plain:       plainFlag,
			JSON:        machineMode,
		}, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to servers.json")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&machineMode, "json", false, "output JSON (one object per poll in watch mode)")

	rootCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "keep polling and show a live view")
	rootCmd.Flags().IntVarP(&intervalFlag, "interval", "i", 1, "seconds between polls in watch mode (minimum 1)")
	rootCmd.Flags().BoolVar(&logFlag, "log", false, "append every sample to the daily CSV log")
	rootCmd.Flags().StringVar(&logDirFlag, "log-dir", "", "directory for CSV logs (implies --log)")
	rootCmd.Flags().BoolVar(&plainFlag, "plain", false, "re-print plain text in watch mode instead of the dashboard")
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}

	if machineMode {
		_ = WriteJSONFromError(os.Stdout, err)
		os.Exit(1)
	}

	fmt.Fprintln(os.Stderr, strings.TrimRight(err.Error(), "\n"))
	if isUnknownCommandError(err) {
		if name := extractUnknownCommand(err); name != "" {
			fmt.Fprintf(os.Stderr, "\n'%s' is not a gpumon command. ", name)
		} else {
			fmt.Fprintln(os.Stderr)
		}
		fmt.Fprintln(os.Stderr, "Run 'gpumon --help' for usage.")
	}
	os.Exit(1)
}

// isUnknownCommandError reports whether cobra rejected the command line itself.
func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") ||
		strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag")
}

// extractUnknownCommand pulls the command name out of cobra's
// `unknown command "foo" for "gpumon"` message.
func extractUnknownCommand(err error) string {
	msg := err.Error()
	start := strings.Index(msg, `"`)
	if start < 0 {
		return ""
	}
	end := strings.Index(msg[start+1:], `"`)
	if end < 0 {
		return ""
	}
	return msg[start+1 : start+1+end]
}

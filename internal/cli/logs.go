package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rileyhilliard/gpumon/internal/config"
	"github.com/rileyhilliard/gpumon/internal/powerlog"
	"github.com/rileyhilliard/gpumon/internal/ui"
	"github.com/spf13/cobra"
)

var (
	logsDir  string
	logsTail int
)

// logsCmd implements `gpumon logs` for locating and reading the CSV power log.
var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show where today's power log is written",
	Long: `Print the path of today's CSV power log.

One file is written per day as gpu_monitor_YYYY-MM-DD.csv in the log
directory (log_dir in servers.json, ~/.gpumon/logs by default). Rows are
only written when polling with --log.

Examples:
  gpumon logs
  gpumon logs --tail 20
  gpumon logs --dir /var/log/gpumon`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return logsCommand(LogsOptions{
			ConfigPath: cfgFile,
			Dir:        logsDir,
			Tail:       logsTail,
			Now:        time.Now,
		}, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.Flags().StringVar(&logsDir, "dir", "", "log directory (overrides log_dir from config)")
	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 0, "also print the last N rows")
}

// LogsOptions holds options for the logs command.
type LogsOptions struct {
	ConfigPath string
	Dir        string
	Tail       int
	Now        func() time.Time
}

// LogsOutput is the JSON form of the logs command.
type LogsOutput struct {
	Path   string     `json:"path"`
	Exists bool       `json:"exists"`
	Rows   [][]string `json:"rows,omitempty"`
}

// logsCommand prints today's log path and, optionally, its last rows.
func logsCommand(opts LogsOptions, out io.Writer) error {
	dir := opts.Dir
	if dir == "" {
		dir = config.Resolve(opts.ConfigPath).Config.LogDir
	}
	dir = config.ExpandTilde(dir)

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	log := powerlog.New(dir, powerlog.WithClock(now))
	path := log.Path()

	_, statErr := os.Stat(path)
	exists := statErr == nil

	var rows [][]string
	if opts.Tail > 0 && exists {
		var err error
		rows, err = powerlog.Tail(path, opts.Tail)
		if err != nil {
			return err
		}
	}

	if machineMode {
		return WriteJSONSuccess(out, LogsOutput{Path: path, Exists: exists, Rows: rows})
	}

	fmt.Fprintln(out, path)
	if !exists {
		fmt.Fprintln(out, ui.MutedStyle().Render("No samples logged today. Poll with 'gpumon --log' to start."))
		return nil
	}

	if opts.Tail > 0 {
		if len(rows) == 0 {
			fmt.Fprintln(out, ui.MutedStyle().Render("Log is empty."))
			return nil
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, ui.MutedStyle().Render(powerlog.Header))
		for _, r := range rows {
			fmt.Fprintln(out, strings.Join(r, ","))
		}
	}
	return nil
}

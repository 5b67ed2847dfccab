package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rileyhilliard/gpumon/internal/config"
	"github.com/rileyhilliard/gpumon/internal/dashboard"
	"github.com/rileyhilliard/gpumon/internal/logger"
	"github.com/rileyhilliard/gpumon/internal/monitor"
	"github.com/rileyhilliard/gpumon/internal/powerlog"
	"github.com/rileyhilliard/gpumon/internal/ui"
)

// statusClient overrides the HTTP client used for status requests. Nil
// means a default client.
var statusClient *http.Client

// clearScreen homes the cursor and clears the terminal.
const clearScreen = "\033[H\033[2J"

// StatusOptions holds the root command's flags.
type StatusOptions struct {
	ConfigPath  string
	Watch       bool
	Interval    int
	IntervalSet bool
	Log         bool
	LogDir      string
	Plain       bool
	JSON        bool
}

// SnapshotOutput is the JSON form of one completed poll.
type SnapshotOutput struct {
	ID          string               `json:"id"`
	CompletedAt time.Time            `json:"completed_at"`
	TotalWatts  float64              `json:"total_watts"`
	Responding  int                  `json:"responding"`
	Configured  int                  `json:"configured"`
	Hosts       []monitor.HostStatus `json:"hosts"`
}

// newSnapshotOutput converts a snapshot for JSON output.
func newSnapshotOutput(snap monitor.Snapshot) SnapshotOutput {
	hosts := snap.Hosts
	if hosts == nil {
		hosts = []monitor.HostStatus{}
	}
	return SnapshotOutput{
		ID:          snap.ID.String(),
		CompletedAt: snap.CompletedAt,
		TotalWatts:  snap.TotalWatts,
		Responding:  snap.Responding(),
		Configured:  snap.Configured,
		Hosts:       hosts,
	}
}

// session is everything a poll needs, built once per invocation.
type session struct {
	resolved *config.Resolved
	poller   *monitor.Poller
	sink     *powerlog.Log
	interval time.Duration
}

// newSession resolves config and wires the fetcher, poller and CSV sink.
func newSession(opts StatusOptions, errOut io.Writer) *session {
	resolved := config.Resolve(opts.ConfigPath)
	warnExplicitConfig(resolved, opts.ConfigPath, errOut)
	cfg := resolved.Config

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}
	fetcher := monitor.NewFetcher(cfg.Endpoints(),
		monitor.WithHTTPClient(statusClient),
		monitor.WithTimeout(timeout),
	)

	pollerOpts := []monitor.PollerOption{
		monitor.WithHistorySize(cfg.HistorySize),
	}

	var sink *powerlog.Log
	if opts.Log {
		dir := cfg.LogDir
		if opts.LogDir != "" {
			dir = config.ExpandTilde(opts.LogDir)
		}
		sink = powerlog.New(dir, powerlog.WithLogger(logger.NewEnvLogger("[powerlog]")))
		pollerOpts = append(pollerOpts, monitor.WithSink(sink))
	}

	return &session{
		resolved: resolved,
		poller:   monitor.NewPoller(fetcher, pollerOpts...),
		sink:     sink,
		interval: resolveInterval(opts.Interval, opts.IntervalSet, cfg.Interval),
	}
}

// logPath returns the CSV path, or empty when logging is off.
func (s *session) logPath() string {
	if s.sink == nil {
		return ""
	}
	return s.sink.Path()
}

// warnExplicitConfig tells the user when the --config file was skipped.
func warnExplicitConfig(resolved *config.Resolved, explicit string, errOut io.Writer) {
	if explicit == "" || resolved.Source == explicit {
		return
	}
	for _, a := range resolved.Attempts {
		if a.Path != explicit || a.Err == nil {
			continue
		}
		fallback := "built-in defaults"
		if !resolved.IsDefault() {
			fallback = resolved.Source
		}
		fmt.Fprintf(errOut, "%s %s\n",
			ui.WarningStyle().Render(ui.SymbolFail),
			ui.WarningStyle().Render(fmt.Sprintf("Couldn't use %s, using %s instead", explicit, fallback)))
		fmt.Fprintf(errOut, "  %s\n", ui.MutedStyle().Render(firstLine(a.Err)))
		return
	}
}

// statusCommand implements the root command: one poll, or a watch loop.
// Fetch failures never make it fail; unreachable hosts are just missing.
func statusCommand(ctx context.Context, opts StatusOptions, out, errOut io.Writer) error {
	s := newSession(opts, errOut)

	if !opts.Watch {
		return runOnce(ctx, s, opts, out, errOut)
	}

	switch {
	case opts.JSON:
		enc := json.NewEncoder(out)
		return watchLoop(ctx, s.poller, s.interval, func(v monitor.View) error {
			return enc.Encode(newSnapshotOutput(v.Snapshot))
		})

	case isTerminal(out) && !opts.Plain:
		return dashboard.Run(ctx, s.poller, dashboard.Options{
			Interval: s.interval,
			Hosts:    len(s.resolved.Config.Servers),
			LogPath:  s.logPath(),
		})

	default:
		redraw := isTerminal(out)
		return watchLoop(ctx, s.poller, s.interval, func(v monitor.View) error {
			if redraw {
				fmt.Fprint(out, clearScreen)
			} else {
				fmt.Fprintln(out)
			}
			fmt.Fprintln(out, ui.RenderStatus(v.Snapshot))
			fmt.Fprintln(out)
			_, err := fmt.Fprintln(out, ui.RenderFooter(s.poller.Interval()))
			return err
		})
	}
}

// runOnce performs a single poll and prints the result.
func runOnce(ctx context.Context, s *session, opts StatusOptions, out, errOut io.Writer) error {
	var spinner *ui.Spinner
	if !opts.JSON && isTerminal(errOut) {
		spinner = ui.NewSpinner(fmt.Sprintf("Polling %d hosts", len(s.resolved.Config.Servers)))
		spinner.SetOutput(func(str string) { fmt.Fprint(errOut, str) })
		spinner.Start()
	}

	snap := s.poller.RunOnce(ctx)

	if spinner != nil {
		spinner.Clear()
	}

	if opts.JSON {
		return WriteJSONSuccess(out, newSnapshotOutput(snap))
	}

	fmt.Fprintln(out, ui.RenderStatus(snap))
	if path := s.logPath(); path != "" {
		fmt.Fprintln(errOut, ui.MutedStyle().Render("Logged to "+path))
	}
	return nil
}

// watchLoop starts the poller and calls render after every completed cycle
// until ctx is done.
func watchLoop(ctx context.Context, poller *monitor.Poller, interval time.Duration, render func(monitor.View) error) error {
	updates, unsubscribe := poller.Subscribe()
	defer unsubscribe()

	poller.Start(interval)
	defer poller.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-updates:
			if err := render(poller.View()); err != nil {
				return err
			}
		}
	}
}

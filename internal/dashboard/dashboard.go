// Package dashboard provides the Bubble Tea watch-mode TUI. It subscribes
// to a running poller and redraws after every completed cycle.
package dashboard

import (
	"context"
	stderrors "errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/gpumon/internal/errors"
	"github.com/rileyhilliard/gpumon/internal/monitor"
)

// Run starts the poller and the dashboard TUI, and blocks until the user
// quits or ctx is cancelled. The poller is stopped on return.
func Run(ctx context.Context, poller *monitor.Poller, opts Options) error {
	updates, unsubscribe := poller.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := NewModel(poller, opts)
	program := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	bridge := NewBridge(program, poller)
	go bridge.Forward(ctx, updates)

	poller.Start(model.Interval())
	defer poller.Stop()

	if _, err := program.Run(); err != nil {
		// Cancellation from the caller (e.g. SIGTERM) is a normal exit
		if stderrors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return errors.WrapWithCode(err, errors.ErrExec,
			"Dashboard stopped unexpectedly",
			"Try plain watch mode with `gpumon -w --plain`")
	}
	return nil
}

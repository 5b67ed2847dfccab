package dashboard

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// sender is the part of *tea.Program the bridge needs.
type sender interface {
	Send(msg tea.Msg)
}

// Bridge forwards poller notifications to the Bubble Tea program via
// program.Send(). This is goroutine-safe.
type Bridge struct {
	program sender
	source  Source
}

// NewBridge creates a bridge that reads state from source and forwards it
// to program.
func NewBridge(program sender, source Source) *Bridge {
	return &Bridge{program: program, source: source}
}

// Forward sends a CycleMsg for every notification on updates. It returns
// when ctx is done or updates is closed.
func (b *Bridge) Forward(ctx context.Context, updates <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-updates:
			if !ok {
				b.program.Send(sourceClosedMsg{})
				return
			}
			b.program.Send(CycleMsg{
				View:     b.source.View(),
				Interval: b.source.Interval(),
			})
		}
	}
}

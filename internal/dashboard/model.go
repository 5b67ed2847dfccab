package dashboard

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/gpumon/internal/monitor"
	"github.com/rileyhilliard/gpumon/internal/ui"
)

// Source is the poller surface the dashboard reads and steers.
// *monitor.Poller implements it.
type Source interface {
	View() monitor.View
	Interval() time.Duration
	SetInterval(d time.Duration)
	Refresh() bool
}

// intervalStep is how much +/- change the polling interval.
const intervalStep = time.Second

// minInterval is the shortest interval the dashboard will ask for.
const minInterval = time.Second

// Options configures the dashboard.
type Options struct {
	// Interval is the initial polling interval.
	Interval time.Duration
	// Hosts is the number of configured hosts, shown while waiting.
	Hosts int
	// LogPath is shown in the footer when the CSV log is enabled.
	LogPath string
}

// Model is the Bubble Tea model for the watch-mode dashboard. It only
// renders what the poller publishes; the single write path back is the
// polling interval.
type Model struct {
	source   Source
	view     monitor.View
	interval time.Duration
	hosts    int
	logPath  string
	width    int
	height   int
	spinner  spinner.Model
	help     help.Model
	keys     keyMap
	closed   bool
	quitting bool
}

// NewModel creates a dashboard model over source.
func NewModel(source Source, opts Options) Model {
	interval := opts.Interval
	if interval < minInterval {
		interval = minInterval
	}
	return Model{
		source:   source,
		interval: interval,
		hosts:    opts.Hosts,
		logPath:  opts.LogPath,
		spinner:  ui.NewSpinnerModel(),
		help:     help.New(),
		keys:     defaultKeys,
	}
}

// Init starts the waiting spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case CycleMsg:
		m.view = msg.View
		if msg.Interval > 0 {
			m.interval = msg.Interval
		}
		return m, nil

	case sourceClosedMsg:
		m.closed = true
		return m, nil

	case spinner.TickMsg:
		// The spinner only animates until the first cycle lands
		if !m.waiting() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Refresh):
		m.source.Refresh()
		return m, nil

	case key.Matches(msg, m.keys.Faster):
		m.setInterval(m.interval - intervalStep)
		return m, nil

	case key.Matches(msg, m.keys.Slower):
		m.setInterval(m.interval + intervalStep)
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}
	return m, nil
}

func (m *Model) setInterval(d time.Duration) {
	if d < minInterval {
		d = minInterval
	}
	if d == m.interval {
		return
	}
	m.interval = d
	m.source.SetInterval(d)
}

// waiting reports whether no cycle has been published yet.
func (m Model) waiting() bool {
	return m.view.Snapshot.IsZero()
}

// Interval returns the polling interval the dashboard last saw or set.
func (m Model) Interval() time.Duration {
	return m.interval
}

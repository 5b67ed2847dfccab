package dashboard

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/muesli/termenv"
	"github.com/rileyhilliard/gpumon/internal/monitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

// fakeSource records interval changes and serves a fixed view.
type fakeSource struct {
	mu        sync.Mutex
	view      monitor.View
	interval  time.Duration
	sets      []time.Duration
	refreshes int
}

func (f *fakeSource) View() monitor.View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.view
}

func (f *fakeSource) Interval() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.interval
}

func (f *fakeSource) SetInterval(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.interval = d
	f.sets = append(f.sets, d)
}

func (f *fakeSource) Refresh() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return true
}

func sampleView() monitor.View {
	at := time.Date(2025, 3, 1, 12, 0, 5, 0, time.UTC)
	snap := monitor.NewSnapshot(uuid.New(), []monitor.HostStatus{
		{
			Hostname: "a",
			GPUCount: 1,
			Samples:  []monitor.GPUSample{{ID: 0, PowerWatts: 120, UtilizationPercent: 80}},
		},
	}, 2, at)

	var history []monitor.HistoryPoint
	for i, w := range []float64{100, 110, 120} {
		ts := at.Add(time.Duration(i-2) * time.Second)
		history = append(history,
			monitor.HistoryPoint{Timestamp: ts, SeriesKey: "a", Watts: w},
			monitor.HistoryPoint{Timestamp: ts, SeriesKey: monitor.TotalSeriesKey, Watts: w},
		)
	}
	return monitor.View{Snapshot: snap, History: history}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func TestNewModel(t *testing.T) {
	src := &fakeSource{}
	m := NewModel(src, Options{Interval: 3 * time.Second, Hosts: 4, LogPath: "/tmp/x.csv"})

	assert.Equal(t, 3*time.Second, m.Interval())
	assert.Equal(t, 4, m.hosts)
	assert.True(t, m.waiting())
	assert.NotNil(t, m.Init())
}

func TestNewModelClampsInterval(t *testing.T) {
	m := NewModel(&fakeSource{}, Options{})
	assert.Equal(t, time.Second, m.Interval())
}

func TestWaitingView(t *testing.T) {
	m := NewModel(&fakeSource{}, Options{Interval: time.Second, Hosts: 3})

	out := m.View()

	assert.Contains(t, out, "Polling 3 hosts...")
	assert.Contains(t, out, "Updating every 1s • Ctrl+C to exit")
	assert.NotContains(t, out, "GPU Monitor")
}

func TestCycleMsgUpdatesView(t *testing.T) {
	m := NewModel(&fakeSource{}, Options{Interval: time.Second})

	m, cmd := update(t, m, CycleMsg{View: sampleView(), Interval: 2 * time.Second})
	assert.Nil(t, cmd)
	assert.False(t, m.waiting())
	assert.Equal(t, 2*time.Second, m.Interval())

	out := m.View()
	assert.Contains(t, out, "GPU Monitor │ Total: 120W │ 1/2 hosts")
	assert.Contains(t, out, "  ● a")
	assert.Contains(t, out, "└─ GPU 0:")
	assert.Contains(t, out, "  80%")
	assert.Contains(t, out, "  Total ")
	assert.Contains(t, out, "peak 120W")
	assert.Contains(t, out, "Last update 12:00:05")
	assert.Contains(t, out, "Updating every 2s")
}

func TestViewNoServersResponding(t *testing.T) {
	m := NewModel(&fakeSource{}, Options{})
	view := monitor.View{
		Snapshot: monitor.NewSnapshot(uuid.New(), nil, 2, time.Now()),
		History:  []monitor.HistoryPoint{{SeriesKey: monitor.TotalSeriesKey}},
	}

	m, _ = update(t, m, CycleMsg{View: view})

	out := m.View()
	assert.Contains(t, out, "No servers responding")
	assert.Contains(t, out, "Total: 0W")
}

func TestViewShowsLogPath(t *testing.T) {
	m := NewModel(&fakeSource{}, Options{LogPath: "/var/log/gpu_monitor_2025-03-01.csv"})
	assert.Contains(t, m.View(), "Logging to /var/log/gpu_monitor_2025-03-01.csv")
}

func TestSparklineWidthFollowsWindow(t *testing.T) {
	tests := []struct {
		width int
		want  int
	}{
		{0, defaultSparkWidth},
		{20, minSparkWidth},
		{80, 38},
		{300, maxSparkWidth},
	}

	for _, tt := range tests {
		m := NewModel(&fakeSource{}, Options{})
		m, _ = update(t, m, tea.WindowSizeMsg{Width: tt.width, Height: 40})
		assert.Equal(t, tt.want, m.sparkWidth(), "width %d", tt.width)
	}
}

func TestQuitKeys(t *testing.T) {
	for _, k := range []string{"q", "esc", "ctrl+c"} {
		t.Run(k, func(t *testing.T) {
			m := NewModel(&fakeSource{}, Options{})
			m, cmd := update(t, m, keyMsg(k))

			require.NotNil(t, cmd)
			assert.IsType(t, tea.QuitMsg{}, cmd())
			assert.True(t, m.quitting)
			assert.Empty(t, m.View())
		})
	}
}

func TestRefreshKey(t *testing.T) {
	src := &fakeSource{}
	m := NewModel(src, Options{})

	update(t, m, keyMsg("r"))

	assert.Equal(t, 1, src.refreshes)
	assert.Empty(t, src.sets)
}

func TestIntervalKeys(t *testing.T) {
	src := &fakeSource{}
	m := NewModel(src, Options{Interval: 2 * time.Second})

	m, _ = update(t, m, keyMsg("+"))
	assert.Equal(t, time.Second, m.Interval())

	// Already at the floor: no call to the source.
	m, _ = update(t, m, keyMsg("+"))
	assert.Equal(t, time.Second, m.Interval())

	m, _ = update(t, m, keyMsg("-"))
	assert.Equal(t, 2*time.Second, m.Interval())

	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, src.sets)
}

func TestHelpToggle(t *testing.T) {
	m := NewModel(&fakeSource{}, Options{})
	short := m.View()
	assert.Contains(t, short, "refresh now")
	assert.NotContains(t, short, "poll faster")

	m, _ = update(t, m, keyMsg("?"))
	assert.Contains(t, m.View(), "poll faster")

	m, _ = update(t, m, keyMsg("?"))
	assert.NotContains(t, m.View(), "poll faster")
}

func TestSpinnerStopsAfterFirstCycle(t *testing.T) {
	m := NewModel(&fakeSource{}, Options{})
	tick := m.spinner.Tick()

	_, cmd := update(t, m, tick)
	assert.NotNil(t, cmd, "spinner keeps ticking while waiting")

	m, _ = update(t, m, CycleMsg{View: sampleView()})
	_, cmd = update(t, m, tick)
	assert.Nil(t, cmd)
}

func TestSourceClosed(t *testing.T) {
	m := NewModel(&fakeSource{}, Options{})
	m, _ = update(t, m, sourceClosedMsg{})
	assert.True(t, m.closed)
}

// fakeProgram collects sent messages.
type fakeProgram struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (p *fakeProgram) Send(msg tea.Msg) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
}

func (p *fakeProgram) Messages() []tea.Msg {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]tea.Msg(nil), p.msgs...)
}

func TestBridgeForwardsCycles(t *testing.T) {
	src := &fakeSource{view: sampleView(), interval: 5 * time.Second}
	prog := &fakeProgram{}
	updates := make(chan struct{}, 1)

	done := make(chan struct{})
	go func() {
		NewBridge(prog, src).Forward(context.Background(), updates)
		close(done)
	}()

	updates <- struct{}{}
	require.Eventually(t, func() bool { return len(prog.Messages()) == 1 }, time.Second, 5*time.Millisecond)

	close(updates)
	<-done

	msgs := prog.Messages()
	require.Len(t, msgs, 2)
	cycle, ok := msgs[0].(CycleMsg)
	require.True(t, ok)
	assert.Equal(t, 5*time.Second, cycle.Interval)
	assert.InDelta(t, 120.0, cycle.View.Snapshot.TotalWatts, 1e-9)
	assert.IsType(t, sourceClosedMsg{}, msgs[1])
}

func TestBridgeStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewBridge(&fakeProgram{}, &fakeSource{}).Forward(ctx, make(chan struct{}))
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("bridge did not stop")
	}
}

func TestPollerSatisfiesSource(t *testing.T) {
	var _ Source = (*monitor.Poller)(nil)
	assert.True(t, strings.HasPrefix(defaultKeys.Quit.Help().Key, "q"))
}

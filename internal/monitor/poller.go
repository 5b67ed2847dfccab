package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rileyhilliard/gpumon/internal/config"
	"github.com/rileyhilliard/gpumon/internal/logger"
)

// StatusSource produces one cycle's host statuses. Fetcher implements it.
type StatusSource interface {
	FetchAll(ctx context.Context) []HostStatus
	Hosts() []string
}

// Sink receives the raw statuses of every completed cycle.
type Sink interface {
	Record(statuses []HostStatus)
}

// View is a consistent read of the poller state: the snapshot and the
// history that the same cycle produced.
type View struct {
	Snapshot Snapshot
	History  []HistoryPoint
}

// Poller runs fetch cycles on an interval and owns the resulting state.
//
// States: idle -> Start -> running -> Stop -> idle. While running, one cycle
// fires immediately and then once per interval. At most one cycle is in
// flight at a time; ticks that land during a cycle are skipped.
type Poller struct {
	source    StatusSource
	sink      Sink
	history   *History
	log       logger.Logger
	now       func() time.Time
	withTotal bool

	mu       sync.Mutex
	snapshot Snapshot
	interval time.Duration
	running  bool
	inFlight bool
	gen      uint64
	stop     chan struct{}
	cycles   uint64
	skipped  uint64
	subs     map[int]chan struct{}
	nextSub  int
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithHistorySize sets the points retained per series.
func WithHistorySize(size int) PollerOption {
	return func(p *Poller) {
		p.history = NewHistory(size)
	}
}

// WithSink sets where each cycle's raw statuses are recorded.
func WithSink(s Sink) PollerOption {
	return func(p *Poller) {
		p.sink = s
	}
}

// WithPollerLogger sets the diagnostic logger.
func WithPollerLogger(l logger.Logger) PollerOption {
	return func(p *Poller) {
		if l != nil {
			p.log = l
		}
	}
}

// WithClock replaces time.Now for cycle timestamps.
func WithClock(now func() time.Time) PollerOption {
	return func(p *Poller) {
		if now != nil {
			p.now = now
		}
	}
}

// WithTotalSeries controls whether each cycle appends a "Total" point.
// Enabled by default.
func WithTotalSeries(enabled bool) PollerOption {
	return func(p *Poller) {
		p.withTotal = enabled
	}
}

// NewPoller creates an idle poller reading from source.
func NewPoller(source StatusSource, opts ...PollerOption) *Poller {
	p := &Poller{
		source:    source,
		history:   NewHistory(DefaultHistorySize),
		log:       logger.NewEnvLogger("[poller]"),
		now:       time.Now,
		withTotal: true,
		interval:  config.DefaultInterval,
		subs:      make(map[int]chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start begins polling. The first cycle fires immediately. Calling Start
// on a running poller does nothing. A non-positive interval uses the default.
func (p *Poller) Start(interval time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}
	p.startLocked(normalizeInterval(interval))
}

// Stop prevents any further ticks. A cycle already in flight is allowed to
// finish and its results are still applied.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	p.running = false
	close(p.stop)
	p.stop = nil
}

// SetInterval changes the polling period. On a running poller the timer is
// restarted and a cycle fires immediately, unless one is already in flight.
// On an idle poller the interval is stored for the next Start.
func (p *Poller) SetInterval(interval time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	interval = normalizeInterval(interval)
	if !p.running {
		p.interval = interval
		return
	}
	close(p.stop)
	p.startLocked(interval)
}

// Refresh restarts the timer on the current interval, which issues an
// immediate cycle. It reports false when the poller is idle.
func (p *Poller) Refresh() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return false
	}
	close(p.stop)
	p.startLocked(p.interval)
	return true
}

// RunOnce runs a single cycle synchronously and returns its snapshot.
// If a cycle is already in flight, the current snapshot is returned instead.
func (p *Poller) RunOnce(ctx context.Context) Snapshot {
	p.mu.Lock()
	if p.inFlight {
		snap := p.snapshot
		p.mu.Unlock()
		return snap
	}
	p.inFlight = true
	p.mu.Unlock()

	return p.cycle(ctx)
}

// CurrentSnapshot returns the snapshot of the latest completed cycle.
func (p *Poller) CurrentSnapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot
}

// History returns the retained history points, oldest first.
func (p *Poller) History() []HistoryPoint {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.history.Points()
}

// View returns the snapshot and history as of the same completed cycle.
func (p *Poller) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return View{
		Snapshot: p.snapshot,
		History:  p.history.Points(),
	}
}

// Running reports whether the poller is ticking.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Interval returns the current polling period.
func (p *Poller) Interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}

// Cycles returns the number of completed cycles.
func (p *Poller) Cycles() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cycles
}

// Skipped returns the number of ticks dropped because a cycle was in flight.
func (p *Poller) Skipped() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.skipped
}

// Subscribe returns a channel that receives a value after each completed
// cycle. Notifications coalesce: a slow reader sees at most one pending
// value. The returned func unsubscribes and closes the channel.
func (p *Poller) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = ch
	p.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			delete(p.subs, id)
			close(ch)
		})
	}
}

// startLocked launches a new timer loop. Must be called with p.mu held.
func (p *Poller) startLocked(interval time.Duration) {
	p.interval = interval
	p.running = true
	p.gen++
	p.stop = make(chan struct{})
	go p.loop(p.gen, p.stop, interval)
}

// loop fires one tick immediately and then one per interval until stop
// is closed.
func (p *Poller) loop(gen uint64, stop <-chan struct{}, interval time.Duration) {
	p.tick(gen)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.tick(gen)
		}
	}
}

// tick starts a cycle unless the loop is stale or a cycle is in flight.
func (p *Poller) tick(gen uint64) {
	p.mu.Lock()
	if !p.running || p.gen != gen {
		p.mu.Unlock()
		return
	}
	if p.inFlight {
		p.skipped++
		p.mu.Unlock()
		p.log.Debug("cycle still in flight, skipping tick")
		return
	}
	p.inFlight = true
	p.mu.Unlock()

	go p.cycle(context.Background())
}

// cycle fetches, aggregates, and applies one round. The caller must have
// set p.inFlight.
func (p *Poller) cycle(ctx context.Context) Snapshot {
	statuses := p.source.FetchAll(ctx)
	at := p.now()

	snap := NewSnapshot(uuid.New(), statuses, len(p.source.Hosts()), at)
	points := snap.points(at, p.withTotal)

	p.mu.Lock()
	p.history.Append(points)
	p.snapshot = snap
	p.mu.Unlock()

	if p.sink != nil {
		p.sink.Record(statuses)
	}

	p.mu.Lock()
	p.inFlight = false
	p.cycles++
	for _, ch := range p.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	p.mu.Unlock()

	p.log.Debug("cycle %s: %d/%d hosts, %.1fW", snap.ID, snap.Responding(), snap.Configured, snap.TotalWatts)
	return snap
}

func normalizeInterval(d time.Duration) time.Duration {
	if d <= 0 {
		return config.DefaultInterval
	}
	return d
}

// SeriesWatts returns the last count wattage values for key from points,
// oldest first.
func SeriesWatts(points []HistoryPoint, key string, count int) []float64 {
	if count <= 0 {
		return nil
	}
	var out []float64
	for i := len(points) - 1; i >= 0 && len(out) < count; i-- {
		if points[i].SeriesKey == key {
			out = append(out, points[i].Watts)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

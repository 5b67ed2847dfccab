package monitor

import "sync"

// DefaultHistorySize is the default number of points retained per series.
const DefaultHistorySize = 60

// History is a bounded, append-only buffer of wattage points for several
// series. It is safe for concurrent use; readers receive copies.
//
// The cap is size x the number of distinct series keys in the most recent
// append. When an append pushes the buffer over the cap, the oldest points
// are dropped from the front regardless of which series they belong to.
type History struct {
	mu     sync.RWMutex
	size   int
	limit  int
	points []HistoryPoint
}

// NewHistory creates a new history with the specified points per series.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{size: size}
}

// Append adds one cycle's worth of points and evicts the oldest points
// until the buffer is within the cap. An empty batch is ignored.
func (h *History) Append(batch []HistoryPoint) {
	if len(batch) == 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.points = append(h.points, batch...)
	h.limit = h.size * distinctKeys(batch)

	if excess := len(h.points) - h.limit; excess > 0 {
		kept := make([]HistoryPoint, len(h.points)-excess, h.limit+len(batch))
		copy(kept, h.points[excess:])
		h.points = kept
	}
}

// Points returns all retained points, oldest first.
func (h *History) Points() []HistoryPoint {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]HistoryPoint, len(h.points))
	copy(out, h.points)
	return out
}

// Series returns the retained points for one key, oldest first.
func (h *History) Series(key string) []HistoryPoint {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []HistoryPoint
	for _, p := range h.points {
		if p.SeriesKey == key {
			out = append(out, p)
		}
	}
	return out
}

// Watts returns the last count wattage values for one key in chronological
// order. Returns fewer values if not enough history is available.
func (h *History) Watts(key string, count int) []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return SeriesWatts(h.points, key, count)
}

// Keys returns the distinct series keys in the order they first appear
// among the retained points.
func (h *History) Keys() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[string]bool)
	var keys []string
	for _, p := range h.points {
		if !seen[p.SeriesKey] {
			seen[p.SeriesKey] = true
			keys = append(keys, p.SeriesKey)
		}
	}
	return keys
}

// Len returns the number of retained points.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.points)
}

// Limit returns the cap computed by the most recent append.
func (h *History) Limit() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.limit
}

// Size returns the configured points per series.
func (h *History) Size() int {
	return h.size
}

// Reset removes all history.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.points = nil
	h.limit = 0
}

// distinctKeys counts the series keys in a batch.
func distinctKeys(batch []HistoryPoint) int {
	seen := make(map[string]struct{}, len(batch))
	for _, p := range batch {
		seen[p.SeriesKey] = struct{}{}
	}
	return len(seen)
}

package monitor

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// TotalSeriesKey is the history series carrying the per-cycle sum of all hosts.
const TotalSeriesKey = "Total"

// GPUSample is one GPU as reported by a status host.
type GPUSample struct {
	ID                 int     `json:"gpu_id"`
	PowerWatts         float64 `json:"power_draw_watts"`
	FreeMemoryMB       *int    `json:"memory_free_mb"`
	UtilizationPercent int     `json:"utilization_percent"`
}

// HostStatus is one host's decoded status response.
type HostStatus struct {
	Hostname string `json:"hostname"`
	// SourceAddress is the address that was dialed, set by the Fetcher.
	SourceAddress string      `json:"source_address"`
	ReportedAt    string      `json:"timestamp"`
	GPUCount      int         `json:"gpu_count"`
	Samples       []GPUSample `json:"gpus"`
}

// TotalWatts returns the summed power draw of all GPUs on the host.
func (h HostStatus) TotalWatts() float64 {
	var total float64
	for _, s := range h.Samples {
		total += s.PowerWatts
	}
	return total
}

// Snapshot is the result of one completed cycle.
type Snapshot struct {
	ID uuid.UUID
	// Hosts is sorted ascending by hostname.
	Hosts       []HostStatus
	TotalWatts  float64
	CompletedAt time.Time
	// Configured is the number of hosts that were polled.
	Configured int
}

// NewSnapshot builds a Snapshot from a cycle's statuses. The statuses are
// copied and sorted by hostname; the input slice is left untouched.
func NewSnapshot(id uuid.UUID, statuses []HostStatus, configured int, completedAt time.Time) Snapshot {
	hosts := make([]HostStatus, len(statuses))
	copy(hosts, statuses)
	sort.SliceStable(hosts, func(i, j int) bool {
		return hosts[i].Hostname < hosts[j].Hostname
	})

	var total float64
	for _, h := range hosts {
		total += h.TotalWatts()
	}

	return Snapshot{
		ID:          id,
		Hosts:       hosts,
		TotalWatts:  total,
		CompletedAt: completedAt,
		Configured:  configured,
	}
}

// IsZero reports whether no cycle has completed yet.
func (s Snapshot) IsZero() bool {
	return s.CompletedAt.IsZero()
}

// Responding returns how many hosts contributed to the snapshot.
func (s Snapshot) Responding() int {
	return len(s.Hosts)
}

// TotalGPUs returns the number of GPU samples across all hosts.
func (s Snapshot) TotalGPUs() int {
	n := 0
	for _, h := range s.Hosts {
		n += len(h.Samples)
	}
	return n
}

// Host looks up a host by hostname.
func (s Snapshot) Host(hostname string) (HostStatus, bool) {
	i := sort.Search(len(s.Hosts), func(i int) bool {
		return s.Hosts[i].Hostname >= hostname
	})
	if i < len(s.Hosts) && s.Hosts[i].Hostname == hostname {
		return s.Hosts[i], true
	}
	return HostStatus{}, false
}

// HistoryPoint is one wattage value in the history window.
type HistoryPoint struct {
	ID        uuid.UUID
	Timestamp time.Time
	// SeriesKey is a hostname or TotalSeriesKey.
	SeriesKey string
	Watts     float64
}

// points derives the history points for a snapshot, all stamped with at.
func (s Snapshot) points(at time.Time, withTotal bool) []HistoryPoint {
	n := len(s.Hosts)
	if withTotal {
		n++
	}
	out := make([]HistoryPoint, 0, n)
	for _, h := range s.Hosts {
		out = append(out, HistoryPoint{
			ID:        uuid.New(),
			Timestamp: at,
			SeriesKey: h.Hostname,
			Watts:     h.TotalWatts(),
		})
	}
	if withTotal {
		out = append(out, HistoryPoint{
			ID:        uuid.New(),
			Timestamp: at,
			SeriesKey: TotalSeriesKey,
			Watts:     s.TotalWatts,
		})
	}
	return out
}

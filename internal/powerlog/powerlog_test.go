package powerlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rileyhilliard/gpumon/internal/errors"
	"github.com/rileyhilliard/gpumon/internal/logger"
	"github.com/rileyhilliard/gpumon/internal/monitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedTime }

func status(name string, gpuCount int, watts ...float64) monitor.HostStatus {
	h := monitor.HostStatus{Hostname: name, GPUCount: gpuCount, ReportedAt: "reported-by-host"}
	for i, w := range watts {
		h.Samples = append(h.Samples, monitor.GPUSample{ID: i, PowerWatts: w, UtilizationPercent: 10 * (i + 1)})
	}
	return h
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "gpu_monitor_2025-03-01.csv", FileName(fixedTime))
	assert.Equal(t, "gpu_monitor_2024-12-09.csv", FileName(time.Date(2024, 12, 9, 0, 0, 0, 0, time.Local)))
}

func TestNewFixesPathAtCreation(t *testing.T) {
	dir := t.TempDir()
	now := fixedTime
	l := New(dir, WithClock(func() time.Time { return now }))

	assert.Equal(t, filepath.Join(dir, "gpu_monitor_2025-03-01.csv"), l.Path())
	assert.Equal(t, dir, l.Dir())

	// Crossing midnight does not move the file.
	now = now.Add(2 * time.Hour)
	require.NoError(t, l.Append([]monitor.HostStatus{status("h1", 1, 5)}))
	assert.Equal(t, filepath.Join(dir, "gpu_monitor_2025-03-01.csv"), l.Path())

	_, err := os.Stat(filepath.Join(dir, FileName(now)))
	assert.True(t, os.IsNotExist(err))
}

func TestNewDoesNotTouchFilesystem(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	New(dir)

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestAppendWritesOneRowPerSample(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	l := New(dir, WithClock(fixedClock))

	err := l.Append([]monitor.HostStatus{
		status("h1", 2, 200.5, 180),
		status("h2", 1, 120),
	})
	require.NoError(t, err)

	lines := readLines(t, l.Path())
	require.Len(t, lines, 4)
	assert.Equal(t, Header, lines[0])
	assert.Equal(t, "2025-03-01T23:30:00Z,h1,0,200.5,10,2", lines[1])
	assert.Equal(t, "2025-03-01T23:30:00Z,h1,1,180.0,20,2", lines[2])
	assert.Equal(t, "2025-03-01T23:30:00Z,h2,0,120.0,10,1", lines[3])
}

func TestAppendWritesHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	l := New(dir, WithClock(fixedClock))
	cycle := []monitor.HostStatus{status("h1", 2, 1, 2), status("h2", 1, 3)}

	require.NoError(t, l.Append(cycle))
	require.NoError(t, l.Append(cycle))

	lines := readLines(t, l.Path())
	assert.Len(t, lines, 7)

	headers := 0
	for _, line := range lines {
		if line == Header {
			headers++
		}
	}
	assert.Equal(t, 1, headers)
}

func TestAppendKeepsExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName(fixedTime))
	require.NoError(t, os.WriteFile(path, []byte(Header+"\nearlier,row,0,1.0,1,1\n"), 0644))

	l := New(dir, WithClock(fixedClock))
	require.NoError(t, l.Append([]monitor.HostStatus{status("h1", 1, 7)}))

	lines := readLines(t, path)
	require.Len(t, lines, 3)
	assert.Equal(t, "earlier,row,0,1.0,1,1", lines[1])

	// A second process opening the same day's file appends too.
	other := New(dir, WithClock(fixedClock))
	require.NoError(t, other.Append([]monitor.HostStatus{status("h2", 1, 8)}))
	assert.Len(t, readLines(t, path), 4)
}

func TestAppendWithoutSamplesIsNoop(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	l := New(dir)

	require.NoError(t, l.Append(nil))
	require.NoError(t, l.Append([]monitor.HostStatus{status("idle", 0)}))

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestAppendQuotesHostnames(t *testing.T) {
	l := New(t.TempDir(), WithClock(fixedClock))
	require.NoError(t, l.Append([]monitor.HostStatus{status("odd,name", 1, 1)}))

	rows, err := Tail(l.Path(), 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "odd,name", rows[0][1])
}

func TestAppendFailure(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	l := New(filepath.Join(blocker, "logs"))
	err := l.Append([]monitor.HostStatus{status("h1", 1, 1)})

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrLog))
}

func TestRecordSwallowsErrors(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	buf := logger.NewBufferLogger()
	l := New(filepath.Join(blocker, "logs"), WithLogger(buf))

	assert.NotPanics(t, func() {
		l.Record([]monitor.HostStatus{status("h1", 2, 1, 2)})
	})
	assert.Equal(t, 1, buf.Count("debug"))
	assert.Contains(t, buf.Messages()[0].Message, "2 rows")
}

func TestRecordRetriesInitialization(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "logs")
	require.NoError(t, os.WriteFile(dir, []byte("x"), 0644))

	l := New(dir, WithLogger(logger.Noop()), WithClock(fixedClock))
	l.Record([]monitor.HostStatus{status("h1", 1, 1)})

	require.NoError(t, os.Remove(dir))
	l.Record([]monitor.HostStatus{status("h1", 1, 2)})

	lines := readLines(t, l.Path())
	require.Len(t, lines, 2)
	assert.Equal(t, Header, lines[0])
}

func TestImplementsSink(t *testing.T) {
	var _ monitor.Sink = New(t.TempDir())
}

func TestTail(t *testing.T) {
	l := New(t.TempDir(), WithClock(fixedClock))
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Append([]monitor.HostStatus{status("h", 1, float64(i))}))
	}

	rows, err := Tail(l.Path(), 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "3.0", rows[0][3])
	assert.Equal(t, "4.0", rows[1][3])

	all, err := Tail(l.Path(), 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestTailMissingFile(t *testing.T) {
	_, err := Tail(filepath.Join(t.TempDir(), "nope.csv"), 5)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrLog))
}

func TestFormatWatts(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{120, "120.0"},
		{0, "0.0"},
		{200.5, "200.5"},
		{33.25, "33.25"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatWatts(tt.in))
		})
	}
}

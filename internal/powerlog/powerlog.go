// Package powerlog writes every GPU sample from every poll cycle to a
// daily CSV file.
package powerlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rileyhilliard/gpumon/internal/errors"
	"github.com/rileyhilliard/gpumon/internal/logger"
	"github.com/rileyhilliard/gpumon/internal/monitor"
)

// Columns is the fixed header row of every log file.
var Columns = []string{
	"timestamp",
	"hostname",
	"gpu_id",
	"power_draw_watts",
	"utilization_percent",
	"total_gpu_count",
}

// Header is Columns as it appears in the file.
var Header = strings.Join(Columns, ",")

// FileName returns the log file name for a calendar day.
func FileName(day time.Time) string {
	return fmt.Sprintf("gpu_monitor_%s.csv", day.Format("2006-01-02"))
}

// Log appends sample rows to one file. The file is chosen when the Log is
// created and does not roll over at midnight.
type Log struct {
	mu          sync.Mutex
	dir         string
	path        string
	initialized bool
	now         func() time.Time
	log         logger.Logger
}

// Option configures a Log.
type Option func(*Log)

// WithClock replaces time.Now for the file date and row timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLogger sets the diagnostic logger used by Record.
func WithLogger(lg logger.Logger) Option {
	return func(l *Log) {
		if lg != nil {
			l.log = lg
		}
	}
}

// New creates a Log under dir for the current day. Nothing touches the
// filesystem until the first row is written.
func New(dir string, opts ...Option) *Log {
	l := &Log{
		dir: dir,
		now: time.Now,
		log: logger.NewEnvLogger("[powerlog]"),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.path = filepath.Join(dir, FileName(l.now()))
	return l
}

// Path returns the file this Log writes to.
func (l *Log) Path() string {
	return l.path
}

// Dir returns the directory holding the log files.
func (l *Log) Dir() string {
	return l.dir
}

// Record appends the cycle's rows and swallows any failure.
func (l *Log) Record(statuses []monitor.HostStatus) {
	if err := l.Append(statuses); err != nil {
		l.log.Debug("dropping %d rows: %s", countRows(statuses), errText(err))
	}
}

// Append writes one row per (host, sample) pair in the order given, all
// stamped with the current time. The header is written on first use when
// the file does not exist yet. A cycle without samples writes nothing.
func (l *Log) Append(statuses []monitor.HostStatus) error {
	if countRows(statuses) == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.initialized {
		if err := l.initialize(); err != nil {
			return err
		}
		l.initialized = true
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrLog,
			"Can't open power log "+l.path, "")
	}
	defer f.Close()

	stamp := l.now().UTC().Format(time.RFC3339)
	w := csv.NewWriter(f)
	for _, h := range statuses {
		for _, s := range h.Samples {
			row := []string{
				stamp,
				h.Hostname,
				strconv.Itoa(s.ID),
				formatWatts(s.PowerWatts),
				strconv.Itoa(s.UtilizationPercent),
				strconv.Itoa(h.GPUCount),
			}
			if err := w.Write(row); err != nil {
				return errors.WrapWithCode(err, errors.ErrLog,
					"Can't write power log "+l.path, "")
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.WrapWithCode(err, errors.ErrLog,
			"Can't write power log "+l.path, "")
	}
	return nil
}

// initialize creates the directory and, if the file is missing, the file
// with its header. An existing file is left as is.
func (l *Log) initialize() error {
	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return errors.WrapWithCode(err, errors.ErrLog,
			"Can't create log directory "+l.dir, "Check permissions or set log_dir in servers.json")
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if os.IsExist(err) {
		return nil
	}
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrLog,
			"Can't create power log "+l.path, "")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Columns); err != nil {
		return errors.WrapWithCode(err, errors.ErrLog, "Can't write log header", "")
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.WrapWithCode(err, errors.ErrLog, "Can't write log header", "")
	}
	return nil
}

// Tail returns up to n data rows from the end of the file at path, oldest
// first. The header is not included.
func Tail(path string, n int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrLog,
			"Can't read power log "+path, "Run `gpumon --log` to start recording")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(Columns)

	var rows [][]string
	first := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrLog,
				"Power log "+path+" is malformed", "")
		}
		if first {
			first = false
			if strings.Join(rec, ",") == Header {
				continue
			}
		}
		rows = append(rows, rec)
		if n > 0 && len(rows) > n {
			rows = rows[1:]
		}
	}
	return rows, nil
}

// formatWatts always keeps a fractional part, so 120 is written as "120.0".
func formatWatts(w float64) string {
	s := strconv.FormatFloat(w, 'f', -1, 64)
	if !strings.ContainsAny(s, ".IN") {
		s += ".0"
	}
	return s
}

func countRows(statuses []monitor.HostStatus) int {
	n := 0
	for _, h := range statuses {
		n += len(h.Samples)
	}
	return n
}

func errText(err error) string {
	if e, ok := err.(*errors.Error); ok {
		return e.Short()
	}
	return err.Error()
}

package dashboard

import (
	"time"

	"github.com/rileyhilliard/gpumon/internal/monitor"
)

// CycleMsg carries the poller state after a completed cycle.
type CycleMsg struct {
	View     monitor.View
	Interval time.Duration
}

// sourceClosedMsg signals that the update stream has ended.
type sourceClosedMsg struct{}

package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Progress bar block characters.
const (
	progressFilled = '█'
	progressEmpty  = '░'
)

// RenderUtilizationBar draws a GPU utilization bar without brackets.
// The percent parameter should be 0-100 (values outside this range are clamped).
// Output format: ████████░░░░  67%
// Colors follow utilization thresholds: green below 60%, yellow below 80%, red above.
func RenderUtilizationBar(percent float64, width int) string {
	if width <= 0 {
		return ""
	}

	if percent < 0 {
		percent = 0
	} else if percent > 100 {
		percent = 100
	}

	filledCount := int((percent / 100.0) * float64(width))
	emptyCount := width - filledCount

	var sb strings.Builder
	sb.Grow(width * 3)
	for i := 0; i < filledCount; i++ {
		sb.WriteRune(progressFilled)
	}
	for i := 0; i < emptyCount; i++ {
		sb.WriteRune(progressEmpty)
	}

	style := lipgloss.NewStyle().Foreground(utilizationColor(percent))
	return style.Render(sb.String()) + fmt.Sprintf(" %3.0f%%", percent)
}

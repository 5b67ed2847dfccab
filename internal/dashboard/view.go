package dashboard

import (
	"fmt"
	"strings"

	"github.com/rileyhilliard/gpumon/internal/monitor"
	"github.com/rileyhilliard/gpumon/internal/ui"
)

// Sparkline widths for responsive layout.
const (
	defaultSparkWidth = 30
	minSparkWidth     = 10
	maxSparkWidth     = 60
	// rowWidth is the visible width of a host row before its sparkline.
	rowWidth = 40
)

// utilBarWidth is the width of the per-GPU utilization bar.
const utilBarWidth = 10

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	if m.waiting() {
		b.WriteString(m.renderWaiting())
	} else {
		b.WriteString(m.renderSnapshot())
	}

	b.WriteString(ui.RenderFooter(m.interval))
	b.WriteString("\n")
	if m.logPath != "" {
		b.WriteString(ui.MutedStyle().Render("Logging to " + m.logPath))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderWaiting() string {
	label := "Polling..."
	if m.hosts > 0 {
		label = fmt.Sprintf("Polling %d hosts...", m.hosts)
	}
	return m.spinner.View() + " " + label + "\n\n"
}

func (m Model) renderSnapshot() string {
	snap := m.view.Snapshot
	width := m.sparkWidth()

	var b strings.Builder
	b.WriteString(ui.RenderTitle(snap))
	b.WriteString("\n")
	b.WriteString(ui.RenderRule(m.ruleWidth()))
	b.WriteString("\n")

	if len(snap.Hosts) == 0 {
		b.WriteString(ui.WarningStyle().Render("  No servers responding"))
		b.WriteString("\n")
	}
	for _, h := range snap.Hosts {
		b.WriteString(ui.RenderHostRow(h))
		if spark := ui.RenderWattSparkline(monitor.SeriesWatts(m.view.History, h.Hostname, width), width); spark != "" {
			b.WriteString("  ")
			b.WriteString(spark)
		}
		b.WriteString("\n")
		for _, s := range h.Samples {
			b.WriteString(renderGPULine(s))
			b.WriteString("\n")
		}
	}

	b.WriteString(ui.RenderRule(m.ruleWidth()))
	b.WriteString("\n")

	if total := monitor.SeriesWatts(m.view.History, monitor.TotalSeriesKey, width); len(total) > 0 {
		b.WriteString(ui.BoldStyle().Render("  Total "))
		b.WriteString(ui.RenderSparkline(total, width, ui.ColorInfo))
		b.WriteString(ui.MutedStyle().Render(fmt.Sprintf("  peak %s", ui.FormatWatts(peak(total)))))
		b.WriteString("\n")
	}

	b.WriteString(ui.MutedStyle().Render("Last update " + snap.CompletedAt.Format("15:04:05")))
	b.WriteString("\n")
	return b.String()
}

// renderGPULine renders a GPU sub-row with a utilization bar.
func renderGPULine(s monitor.GPUSample) string {
	muted := ui.MutedStyle()
	return muted.Render(fmt.Sprintf("      %s GPU %d: ", ui.SymbolBranch, s.ID)) +
		ui.WattsStyle(s.PowerWatts).Render(fmt.Sprintf("%5.0fW", s.PowerWatts)) +
		"  " + ui.RenderUtilizationBar(float64(s.UtilizationPercent), utilBarWidth)
}

func (m Model) sparkWidth() int {
	if m.width == 0 {
		return defaultSparkWidth
	}
	w := m.width - rowWidth - 2
	if w < minSparkWidth {
		return minSparkWidth
	}
	if w > maxSparkWidth {
		return maxSparkWidth
	}
	return w
}

func (m Model) ruleWidth() int {
	if m.width > 0 && m.width < ui.RuleWidth {
		return m.width
	}
	return ui.RuleWidth
}

func peak(values []float64) float64 {
	var top float64
	for _, v := range values {
		if v > top {
			top = v
		}
	}
	return top
}

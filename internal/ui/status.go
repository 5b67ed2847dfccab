package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/gpumon/internal/monitor"
)

// RuleWidth is the width of the divider lines around the status table.
const RuleWidth = 50

// hostColumnWidth is the padded width of the hostname column.
const hostColumnWidth = 15

// FormatWatts formats a reading with no decimals, e.g. "120W".
func FormatWatts(watts float64) string {
	return fmt.Sprintf("%.0fW", watts)
}

// FormatGPUCount returns "1 GPU" or "N GPUs".
func FormatGPUCount(n int) string {
	if n == 1 {
		return "1 GPU"
	}
	return fmt.Sprintf("%d GPUs", n)
}

// RenderTitle renders "GPU Monitor │ Total: NNNW" with the total in its
// wattage colour, followed by how many hosts answered.
func RenderTitle(snap monitor.Snapshot) string {
	muted := MutedStyle()
	title := BoldStyle().Render("GPU Monitor") + " " + muted.Render(SymbolSeparator) +
		" Total: " + WattsStyle(snap.TotalWatts).Render(FormatWatts(snap.TotalWatts))

	if snap.Configured > 0 {
		title += " " + muted.Render(fmt.Sprintf("%s %d/%d hosts", SymbolSeparator, snap.Responding(), snap.Configured))
	}
	return title
}

// RenderRule renders a muted horizontal divider.
func RenderRule(width int) string {
	if width <= 0 {
		width = RuleWidth
	}
	return MutedStyle().Render(strings.Repeat(SymbolRule, width))
}

// RenderHostRow renders one host line: dot, padded hostname, total watts
// and GPU count.
func RenderHostRow(h monitor.HostStatus) string {
	total := h.TotalWatts()
	dot := SuccessStyle().Render(SymbolComplete)
	watts := WattsStyle(total).Render(fmt.Sprintf("%6.0fW", total))
	gpus := MutedStyle().Render(FormatGPUCount(h.GPUCount))

	return "  " + dot + " " + padRight(h.Hostname, hostColumnWidth) + " " + watts + "  " + gpus
}

// RenderGPURow renders one GPU sub-row under its host.
func RenderGPURow(s monitor.GPUSample) string {
	muted := MutedStyle()
	line := muted.Render(fmt.Sprintf("      %s GPU %d: ", SymbolBranch, s.ID)) +
		WattsStyle(s.PowerWatts).Render(FormatWatts(s.PowerWatts)) +
		muted.Render(fmt.Sprintf(" @ %d%%", s.UtilizationPercent))

	if s.FreeMemoryMB != nil {
		line += muted.Render(fmt.Sprintf(" %s %d MB free", SymbolDot, *s.FreeMemoryMB))
	}
	return line
}

// RenderStatus renders the one-shot status table for a snapshot.
func RenderStatus(snap monitor.Snapshot) string {
	var b strings.Builder

	b.WriteString(RenderTitle(snap))
	b.WriteString("\n")
	b.WriteString(RenderRule(RuleWidth))
	b.WriteString("\n")

	if len(snap.Hosts) == 0 {
		b.WriteString(WarningStyle().Render("  No servers responding"))
		b.WriteString("\n")
	}
	for _, h := range snap.Hosts {
		b.WriteString(RenderHostRow(h))
		b.WriteString("\n")
		for _, s := range h.Samples {
			b.WriteString(RenderGPURow(s))
			b.WriteString("\n")
		}
	}

	b.WriteString(RenderRule(RuleWidth))
	b.WriteString("\n")
	return b.String()
}

// RenderFooter renders the watch-mode footer, e.g.
// "Updating every 1s • Ctrl+C to exit".
func RenderFooter(interval time.Duration) string {
	return MutedStyle().Render(fmt.Sprintf("Updating every %s %s Ctrl+C to exit",
		FormatInterval(interval), SymbolDot))
}

// FormatInterval formats a polling interval compactly: "1s", "1.5s", "2m0s".
func FormatInterval(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%gs", d.Seconds())
	}
	return d.Round(time.Second).String()
}

// padRight pads a string to the specified width.
func padRight(s string, width int) string {
	// Account for ANSI codes when calculating visible length
	visibleLen := lipgloss.Width(s)
	if visibleLen >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visibleLen)
}

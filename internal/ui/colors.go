package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Semantic colors for status indication, as ANSI codes for broad terminal
// compatibility.
const (
	ColorSuccess lipgloss.Color = "2"   // Green
	ColorError   lipgloss.Color = "1"   // Red
	ColorWarning lipgloss.Color = "3"   // Yellow
	ColorOrange  lipgloss.Color = "208" // 256-colour orange
	ColorInfo    lipgloss.Color = "6"   // Cyan
)

// Text colors for content hierarchy
const (
	ColorPrimary   lipgloss.Color = "7" // White/default
	ColorSecondary lipgloss.Color = "4" // Blue
	ColorMuted     lipgloss.Color = "8" // Gray (bright black)
)

// Wattage thresholds. A reading below a threshold takes that band's colour.
const (
	WattsLow    = 50.0
	WattsMedium = 100.0
	WattsHigh   = 200.0
)

// WattageColor returns the colour band for a power reading:
// under 50W green, under 100W yellow, under 200W orange, otherwise red.
func WattageColor(watts float64) lipgloss.Color {
	switch {
	case watts < WattsLow:
		return ColorSuccess
	case watts < WattsMedium:
		return ColorWarning
	case watts < WattsHigh:
		return ColorOrange
	default:
		return ColorError
	}
}

// utilizationColor returns a color based on percentage thresholds.
//   - 0-60%: green (success)
//   - 60-80%: yellow/amber (warning)
//   - 80-100%: red (error)
func utilizationColor(percent float64) lipgloss.Color {
	switch {
	case percent >= 80:
		return ColorError
	case percent >= 60:
		return ColorWarning
	default:
		return ColorSuccess
	}
}

// BoldStyle is used for titles.
func BoldStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true)
}

// MutedStyle is used for dividers, hints and secondary details.
func MutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorMuted)
}

// SuccessStyle renders text in the success colour.
func SuccessStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorSuccess)
}

// WarningStyle renders text in the warning colour.
func WarningStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorWarning)
}

// ErrorStyle renders text in the error colour.
func ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorError)
}

// WattsStyle renders a reading in its wattage colour.
func WattsStyle(watts float64) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(WattageColor(watts))
}

// DisableColors switches all rendering to plain text (for --no-color and
// non-terminal output).
func DisableColors() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

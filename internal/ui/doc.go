// Package ui provides terminal rendering for gpumon: the colour palette,
// wattage thresholds, sparklines, the one-shot status table and spinners.
//
// # Color Scheme
//
// Colors are ANSI codes for broad terminal compatibility. Power readings
// are banded by WattageColor:
//
//	< 50W   green
//	< 100W  yellow
//	< 200W  orange (256-colour 208)
//	>= 200W red
//
// Use DisableColors() to switch to monochrome output (for --no-color flag).
//
// # One-shot output
//
// RenderStatus draws a Snapshot the way `gpumon` prints it:
//
//	GPU Monitor │ Total: 500W │ 2/3 hosts
//	──────────────────────────────────────────────────
//	  ● a                  120W  1 GPU
//	      └─ GPU 0: 120W @ 80%
//	──────────────────────────────────────────────────
//
// # Bubble Tea Components
//
// NewSpinnerModel returns a bubbles spinner styled like the standalone
// Spinner, for the watch-mode dashboard.
package ui

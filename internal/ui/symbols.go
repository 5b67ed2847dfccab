package ui

// Unicode symbols for status indicators.
const (
	SymbolSuccess  = "✓" // Operation completed successfully
	SymbolFail     = "✗" // Operation failed
	SymbolPending  = "○" // Host not yet polled
	SymbolComplete = "●" // Host responding
	SymbolSkipped  = "⊘" // Host dropped this cycle
)

// Layout glyphs shared by the one-shot view and the dashboard.
const (
	SymbolSeparator = "│"
	SymbolRule      = "─"
	SymbolBranch    = "└─"
	SymbolDot       = "•"
)

// Package cli implements the gpumon command-line interface.
//
// The package is organized around Cobra commands. Each command parses its
// flags into an options struct and hands it to a plain function that takes
// an io.Writer, so commands can be tested without a terminal.
//
// # Command Structure
//
// The root command polls the configured hosts:
//
//	gpumon              - Poll every host once and print the result
//	gpumon -w [-i N]    - Keep polling every N seconds (dashboard on a TTY)
//	gpumon init         - Create servers.json
//	gpumon config       - Show the resolved config and search paths
//	gpumon logs         - Show today's CSV power log
//	gpumon version      - Print build information
//
// # Output Modes
//
// Watch mode picks its renderer from the output: the Bubble Tea dashboard
// when stdout is a terminal, a clear-and-reprint loop with --plain, a
// blank-line separated stream when piped, and one JSON object per poll
// with --json.
//
// # Flag Handling
//
// Global flags (--config, --verbose, --no-color, --json) are defined on
// the root command and available to all subcommands.
package cli

// Package cli implements the gridstitch command-line interface.
//
// This package provides commands for assembling tile grids into mosaic
// images, interactively excluding bad tiles, serving a browser preview,
// organizing raw capture directories, and managing the offset cache. The
// CLI is built using cobra and supports verbose logging via the
// charmbracelet/log library.
//
// # Commands
//
//   - mosaic: Assemble the tiles in a directory into a mosaic image
//   - select: Interactively exclude or restore tiles before assembly
//   - serve: Serve a browser preview with clickable tile toggling
//   - organize: Group raw capture files into per-channel directories
//   - inspect: Render the grid adjacency as a Graphviz diagram
//   - cache: Manage the per-dataset offset cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
//
// # Example
//
//	import "github.com/gridstitch/gridstitch/internal/cli"
//
//	func main() {
//	    if err := cli.Execute(context.Background()); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

// appName is the application name used for directories and display.
const appName = "gridstitch"

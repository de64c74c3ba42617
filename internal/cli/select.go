package cli

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/gridstitch/gridstitch/pkg/config"
	"github.com/gridstitch/gridstitch/pkg/exclusion"
	"github.com/gridstitch/gridstitch/pkg/pipeline"
	"github.com/gridstitch/gridstitch/pkg/tile"
)

// namingParser builds the filename parser for a configured pattern.
func namingParser(pattern string, cols int) tile.Parser {
	if pattern == pipeline.PatternSequential {
		return tile.SequentialParser{Cols: cols}
	}
	return tile.GridParser{}
}

// selectOpts holds the command-line flags for the select command.
type selectOpts struct {
	path    string
	pattern string
	cols    int
	label   string
}

// newSelectCmd creates the select command: an interactive grid view where
// tiles can be excluded from assembly or restored. Every toggle is
// persisted immediately by moving the tile files, so a crash or quit never
// loses a decision.
func newSelectCmd() *cobra.Command {
	opts := selectOpts{path: "."}

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Interactively exclude or restore tiles before assembly",
		Long: `Open an interactive grid view of the tile directory.

Move the cursor with the arrow keys (or hjkl) and press space or enter to
toggle the tile under the cursor. Excluded tiles are moved into the
skipped/ subdirectory and rendered as gaps by the mosaic command; toggling
again restores them. Each toggle is persisted before the view updates.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelect(cmd, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.path, "path", "p", opts.path, "tile directory")
	cmd.Flags().StringVar(&opts.pattern, "pattern", "", "filename convention: grid or sequential")
	cmd.Flags().IntVar(&opts.cols, "cols", 0, "column count (required for sequential naming)")
	cmd.Flags().StringVar(&opts.label, "label", "", "channel label to display")

	return cmd
}

func runSelect(cmd *cobra.Command, o *selectOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := config.Load(o.path)
	if err != nil {
		return err
	}
	pattern, cols, label := cfg.Pattern, cfg.Cols, cfg.Label
	if cmd.Flags().Changed("pattern") {
		pattern = o.pattern
	}
	if cmd.Flags().Changed("cols") {
		cols = o.cols
	}
	if cmd.Flags().Changed("label") {
		label = o.label
	}
	parser := namingParser(pattern, cols)

	store, err := exclusion.Load(o.path, parser, exclusion.WithLogger(logger))
	if err != nil {
		return err
	}

	catalog, err := tile.Build(o.path, parser, tile.WithLabel(label), tile.WithLogger(logger))
	if err != nil {
		// A directory where every tile is excluded still has a grid worth
		// showing; anything else is fatal.
		var cerr *tile.CatalogError
		if !errors.As(err, &cerr) || store.Len() == 0 {
			return err
		}
		catalog = nil
	}

	model := newSelectModel(catalog, store)
	final, err := tea.NewProgram(model, tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("selection ui: %w", err)
	}

	m, ok := final.(selectModel)
	if !ok {
		return nil
	}
	printSuccess("Selection saved")
	printDetail("%d toggles this session, %d tiles excluded", m.toggles, store.Len())
	if store.Len() > 0 {
		printNextStep("Assemble with gaps", fmt.Sprintf("%s mosaic --path %s", appName, o.path))
	}
	return nil
}

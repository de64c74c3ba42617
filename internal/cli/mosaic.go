package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gridstitch/gridstitch/pkg/config"
	"github.com/gridstitch/gridstitch/pkg/pipeline"
)

// mosaicOpts holds the command-line flags for the mosaic command.
// Flag values layer over gridstitch.toml, which layers over built-in
// defaults; only flags the user actually set override the file.
type mosaicOpts struct {
	path        string // tile directory
	output      string // output image path
	pattern     string // filename convention: grid or sequential
	cols        int    // column count for sequential naming
	label       string // channel label to assemble
	offsetDX    int    // configured horizontal displacement
	offsetDY    int    // configured vertical displacement
	samplePairs int    // tile pairs sampled per axis during estimation
	background  string // canvas background hex color
	gapColor    string // gap placeholder hex color
	refresh     bool   // ignore cached offset estimates
	noCache     bool   // disable the cache entirely
	derivative  bool   // write a reduced JPEG preview
	points      bool   // write tile center coordinates
	annotate    bool   // label gap rectangles with their grid position
	quality     int    // JPEG quality for lossy output
}

// newMosaicCmd creates the mosaic command, the main entry point of the
// tool: catalog the tiles, resolve the inter-tile offset, lay out the
// canvas, and paint the mosaic.
func newMosaicCmd() *cobra.Command {
	opts := mosaicOpts{path: "."}

	cmd := &cobra.Command{
		Use:   "mosaic",
		Short: "Assemble the tiles in a directory into a mosaic image",
		Long: `Assemble the tiles in a directory into a single mosaic image.

Tile positions are read from filenames. The displacement between adjacent
tiles is taken from gridstitch.toml when configured, and measured by
cross-correlating overlapping tile edges otherwise. Tiles excluded with
the select command are rendered as uniform gaps.

Examples:
  gridstitch mosaic                                 # current directory
  gridstitch mosaic --path /data/slide-42           # explicit directory
  gridstitch mosaic --create-derivative             # plus JPEG preview
  gridstitch mosaic --offset-dx 412 --offset-dy 398 # skip estimation`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMosaic(cmd, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.path, "path", "p", opts.path, "tile directory")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output image (default <path>/mosaic.jpg)")
	cmd.Flags().StringVar(&opts.pattern, "pattern", "", "filename convention: grid or sequential")
	cmd.Flags().IntVar(&opts.cols, "cols", 0, "column count (required for sequential naming)")
	cmd.Flags().StringVar(&opts.label, "label", "", "channel label to assemble")
	cmd.Flags().IntVar(&opts.offsetDX, "offset-dx", 0, "horizontal tile displacement in pixels")
	cmd.Flags().IntVar(&opts.offsetDY, "offset-dy", 0, "vertical tile displacement in pixels")
	cmd.Flags().IntVar(&opts.samplePairs, "sample-pairs", 0, "tile pairs sampled per axis during estimation")
	cmd.Flags().StringVar(&opts.background, "background", "", "canvas background color, e.g. #000000")
	cmd.Flags().StringVar(&opts.gapColor, "gap-color", "", "gap placeholder color, e.g. #282828")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached offset estimates")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.derivative, "create-derivative", false, "also write a reduced JPEG preview")
	cmd.Flags().BoolVar(&opts.points, "points", false, "write tile center coordinates next to the output")
	cmd.Flags().BoolVar(&opts.annotate, "annotate-gaps", false, "label gap rectangles with their grid position")
	cmd.Flags().IntVar(&opts.quality, "quality", 0, "JPEG quality (1-100)")

	return cmd
}

func runMosaic(cmd *cobra.Command, o *mosaicOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := config.Load(o.path)
	if err != nil {
		return err
	}
	opts := cfg.PipelineOptions(o.path)
	opts.Logger = logger
	applyMosaicFlags(cmd, o, &opts)

	store, keyer, err := newCommandCache(ctx, cfg, o.path, o.noCache)
	if err != nil {
		return err
	}
	defer store.Close()

	runner := pipeline.NewRunner(store, keyer, logger)
	sp := newSpinnerWithContext(ctx, "assembling mosaic")
	sp.Start()
	result, err := runner.Execute(ctx, opts)
	sp.Stop()
	if err != nil {
		if sp.Cancelled() {
			return ctx.Err()
		}
		return err
	}

	printSuccess("Mosaic assembled (%dx%d)", result.Layout.Width, result.Layout.Height)
	printStats(result.Report.TilesDrawn, result.Report.Gaps, result.CacheInfo.OffsetHit)
	printKeyValue("Offset", result.Offset.String())
	printFile(result.Report.OutputPath)
	if result.Report.DerivativePath != "" {
		printFile(result.Report.DerivativePath)
	}
	if result.PointsPath != "" {
		printFile(result.PointsPath)
	}
	for _, pos := range result.Report.Skipped {
		printWarning("Tile %s was unreadable and rendered as a gap", pos)
	}
	if result.Stats.GapCount > 0 || result.Stats.ExcludedCount > 0 {
		printNewline()
		printNextStep("Review or exclude tiles", fmt.Sprintf("%s select --path %s", appName, o.path))
	}
	return nil
}

// applyMosaicFlags overrides file-derived options with flags the user set.
func applyMosaicFlags(cmd *cobra.Command, o *mosaicOpts, opts *pipeline.Options) {
	f := cmd.Flags()
	if f.Changed("output") {
		opts.Output = o.output
	}
	if f.Changed("pattern") {
		opts.Pattern = o.pattern
	}
	if f.Changed("cols") {
		opts.Cols = o.cols
	}
	if f.Changed("label") {
		opts.Label = o.label
	}
	if f.Changed("offset-dx") {
		opts.OffsetDX = o.offsetDX
	}
	if f.Changed("offset-dy") {
		opts.OffsetDY = o.offsetDY
	}
	if f.Changed("sample-pairs") {
		opts.SamplePairs = o.samplePairs
	}
	if f.Changed("background") {
		opts.Background = o.background
	}
	if f.Changed("gap-color") {
		opts.GapColor = o.gapColor
	}
	if f.Changed("quality") {
		opts.JPEGQuality = o.quality
	}
	if o.refresh {
		opts.Refresh = true
	}
	if o.derivative {
		opts.Derivative = true
	}
	if o.points {
		opts.Points = true
	}
	if o.annotate {
		opts.AnnotateGaps = true
	}
}

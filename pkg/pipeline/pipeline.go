// Package pipeline provides the core mosaic assembly pipeline for gridstitch.
//
// This package implements the complete catalog → offset → layout → compose
// pipeline that can be used by the CLI, the preview server, and tests. By
// centralizing this logic, we ensure consistent behavior across all entry
// points and avoid code duplication.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Catalog: Discover tile images and parse grid positions from filenames
//  2. Offset: Estimate the inter-tile displacement (configured or measured)
//  3. Layout: Place every grid cell on a shared canvas
//  4. Compose: Paint tiles and gaps into the output image
//
// Exclusions recorded by the select workflow are loaded between the catalog
// and layout stages. Offset estimates are cached keyed on the catalog
// listing, so repeated runs over an unchanged tile set skip the
// cross-correlation work.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Path:   "/data/slide-42",
//	    Output: "/data/slide-42/mosaic.jpg",
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Report.OutputPath)
package pipeline

import (
	"fmt"
	"image/color"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gridstitch/gridstitch/pkg/compose"
	"github.com/gridstitch/gridstitch/pkg/layout"
	"github.com/gridstitch/gridstitch/pkg/offset"
	"github.com/gridstitch/gridstitch/pkg/tile"
)

// Naming pattern identifiers for Options.Pattern.
const (
	PatternGrid       = "grid"
	PatternSequential = "sequential"
)

// DefaultOutputName is the mosaic filename used when Options.Output is
// empty; it is written into the tile directory.
const DefaultOutputName = "mosaic.jpg"

// ValidOutputFormats is the set of supported output extensions.
var ValidOutputFormats = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
}

// Options contains all configuration for the mosaic pipeline.
// This struct supports TOML/JSON serialization for config files and the
// preview server.
type Options struct {
	// Catalog options
	Path    string `json:"path"`
	Pattern string `json:"pattern,omitempty"` // "grid" or "sequential"
	Cols    int    `json:"cols,omitempty"`    // required for sequential naming
	Label   string `json:"label,omitempty"`   // channel label, e.g. an element map

	// Offset options. A configured DX/DY pair bypasses estimation.
	OffsetDX    int  `json:"offset_dx,omitempty"`
	OffsetDY    int  `json:"offset_dy,omitempty"`
	SamplePairs int  `json:"sample_pairs,omitempty"`
	Refresh     bool `json:"refresh,omitempty"` // ignore cached estimates

	// Output options
	Output           string `json:"output,omitempty"`
	Background       string `json:"background,omitempty"` // hex color, e.g. "#000000"
	GapColor         string `json:"gap_color,omitempty"`  // hex color for placeholder rectangles
	Derivative       bool   `json:"derivative,omitempty"`
	DerivativeMaxDim int    `json:"derivative_max_dim,omitempty"`
	JPEGQuality      int    `json:"jpeg_quality,omitempty"`
	AnnotateGaps     bool   `json:"annotate_gaps,omitempty"`
	Points           bool   `json:"points,omitempty"` // write tile center coordinates

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`

	// background and gapColor hold the parsed colors after validation.
	background color.Color
	gapColor   color.Color
}

// ValidateAndSetDefaults checks required fields and fills in defaults.
// It must be called before the options are used; Runner.Execute calls it.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Path == "" {
		return fmt.Errorf("tile directory path is required")
	}
	if o.Pattern == "" {
		o.Pattern = PatternGrid
	}
	switch o.Pattern {
	case PatternGrid:
	case PatternSequential:
		if o.Cols <= 0 {
			return fmt.Errorf("sequential naming requires the column count")
		}
	default:
		return fmt.Errorf("unknown naming pattern %q", o.Pattern)
	}
	if o.OffsetDX < 0 || o.OffsetDY < 0 {
		return fmt.Errorf("offsets must be non-negative")
	}
	if (o.OffsetDX > 0) != (o.OffsetDY > 0) {
		return fmt.Errorf("configure both offset axes or neither")
	}
	if o.Output == "" {
		o.Output = filepath.Join(o.Path, DefaultOutputName)
	}
	if ext := strings.ToLower(filepath.Ext(o.Output)); !ValidOutputFormats[ext] {
		return fmt.Errorf("unsupported output format %q", ext)
	}
	if o.Background != "" {
		c, err := compose.ParseColor(o.Background)
		if err != nil {
			return fmt.Errorf("background: %w", err)
		}
		o.background = c
	}
	if o.GapColor != "" {
		c, err := compose.ParseColor(o.GapColor)
		if err != nil {
			return fmt.Errorf("gap color: %w", err)
		}
		o.gapColor = c
	}
	o.validated = true
	return nil
}

// parser returns the filename parser for the configured naming pattern.
func (o *Options) parser() tile.Parser {
	if o.Pattern == PatternSequential {
		return tile.SequentialParser{Cols: o.Cols}
	}
	return tile.GridParser{}
}

// PointsPath returns the path of the tile centers file, derived from the
// output path.
func (o *Options) PointsPath() string {
	ext := filepath.Ext(o.Output)
	return strings.TrimSuffix(o.Output, ext) + "_points.txt"
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Catalog is the discovered tile set.
	Catalog *tile.Catalog

	// Offset is the displacement used for layout.
	Offset offset.Offset

	// Layout is the resolved canvas geometry.
	Layout *layout.Layout

	// Report summarizes the composition stage.
	Report *compose.Report

	// PointsPath is the tile centers file, when requested.
	PointsPath string

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	TileCount     int
	ExcludedCount int
	GapCount      int

	CatalogTime time.Duration
	OffsetTime  time.Duration
	LayoutTime  time.Duration
	ComposeTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	// OffsetHit reports whether the offset estimate came from cache.
	OffsetHit bool

	// DimsHit reports whether the tile dimension probe came from cache.
	DimsHit bool
}

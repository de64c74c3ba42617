// Package compose paints a resolved canvas layout into the final mosaic
// image and writes it to disk, optionally alongside a smaller derivative
// encode.
//
// Tile pixel data is loaded lazily, one tile at a time, so peak memory is
// bounded by one tile plus the output canvas. A single unreadable tile is
// downgraded to a gap and reported in the run's warning summary instead of
// aborting the whole mosaic.
package compose

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fogleman/gg"

	"github.com/gridstitch/gridstitch/pkg/layout"
	"github.com/gridstitch/gridstitch/pkg/tile"
)

// DefaultMaxCanvasBytes caps the canvas allocation at 4 GiB unless
// configured otherwise.
const DefaultMaxCanvasBytes = int64(4) << 30

// Loader loads a tile image from disk. Overridable for tests.
type Loader func(path string) (image.Image, error)

// Options configures composition.
type Options struct {
	// Background fills canvas regions outside any placement.
	Background color.Color

	// GapColor fills placeholder rectangles so missing/excluded tiles read
	// as deliberate blanks rather than specimen features.
	GapColor color.Color

	// AnnotateGaps draws the grid coordinate into each gap rectangle.
	AnnotateGaps bool

	// Derivative additionally writes a bounded-size JPEG preview next to
	// the output image.
	Derivative bool

	// DerivativeMaxDim bounds the derivative's longest side, in pixels.
	DerivativeMaxDim int

	// JPEGQuality applies to JPEG output and the derivative encode.
	JPEGQuality int

	// MaxCanvasBytes is the memory precondition checked before the canvas
	// is allocated.
	MaxCanvasBytes int64

	Loader Loader
	Logger *log.Logger
}

func (o *Options) setDefaults() {
	if o.Background == nil {
		o.Background = color.Black
	}
	if o.GapColor == nil {
		o.GapColor = color.RGBA{40, 40, 40, 255}
	}
	if o.DerivativeMaxDim <= 0 {
		o.DerivativeMaxDim = 2048
	}
	if o.JPEGQuality <= 0 {
		o.JPEGQuality = 92
	}
	if o.MaxCanvasBytes <= 0 {
		o.MaxCanvasBytes = DefaultMaxCanvasBytes
	}
	if o.Loader == nil {
		o.Loader = tile.LoadImage
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
}

// Report summarizes a composition run.
type Report struct {
	OutputPath     string
	DerivativePath string
	Width          int
	Height         int
	TilesDrawn     int
	Gaps           int
	Skipped        []tile.Position // tiles downgraded to gaps because their pixels were unreadable
	Elapsed        time.Duration
}

// Compose paints every placement of l onto a fresh canvas and writes the
// result to outPath (format chosen by extension: .png, .jpg, .tif).
//
// The memory precondition is checked before allocation and fails with
// *ComposeError. Unreadable tiles are rendered as gaps and listed in
// Report.Skipped; all other failures are fatal.
func Compose(ctx context.Context, l *layout.Layout, outPath string, opts Options) (*Report, error) {
	opts.setDefaults()
	start := time.Now()

	need := int64(l.Width) * int64(l.Height) * 4
	if need > opts.MaxCanvasBytes {
		return nil, &ComposeError{
			Reason: fmt.Sprintf("canvas %dx%d needs %d bytes, budget is %d",
				l.Width, l.Height, need, opts.MaxCanvasBytes),
		}
	}

	canvas := image.NewRGBA(image.Rect(0, 0, l.Width, l.Height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)

	report := &Report{OutputPath: outPath, Width: l.Width, Height: l.Height}

	// Gaps first so adjacent tiles may overlap placeholder edges; the
	// visible blank is then exactly the uncovered region.
	for _, p := range l.Placements {
		if p.Gap() {
			fillRect(canvas, p.Rect, opts.GapColor)
			report.Gaps++
		}
	}

	for _, p := range l.Placements {
		if p.Gap() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := opts.Loader(p.Tile.Path)
		if err != nil {
			opts.Logger.Warn("tile unreadable, rendering as gap",
				"position", p.Position, "path", p.Tile.Path, "err", err)
			fillRect(canvas, p.Rect, opts.GapColor)
			report.Skipped = append(report.Skipped, p.Position)
			report.Gaps++
			continue
		}
		dst := image.Rect(p.Rect.X, p.Rect.Y, p.Rect.X+p.Rect.W, p.Rect.Y+p.Rect.H)
		draw.Draw(canvas, dst, img, img.Bounds().Min, draw.Src)
		report.TilesDrawn++
	}

	if opts.AnnotateGaps {
		annotateGaps(canvas, l, report)
	}

	if err := encode(outPath, canvas, opts.JPEGQuality); err != nil {
		return nil, err
	}

	if opts.Derivative {
		path, err := writeDerivative(outPath, canvas, opts)
		if err != nil {
			return nil, err
		}
		report.DerivativePath = path
	}

	report.Elapsed = time.Since(start)
	if len(report.Skipped) > 0 {
		opts.Logger.Warn("mosaic composed with unreadable tiles rendered as gaps",
			"skipped", report.Skipped)
	}
	return report, nil
}

// fillRect paints the rectangle with a uniform color, clipped to canvas.
func fillRect(canvas *image.RGBA, r layout.Rect, c color.Color) {
	dst := image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
	draw.Draw(canvas, dst, image.NewUniform(c), image.Point{}, draw.Src)
}

// annotateGaps writes the grid coordinate into each gap rectangle so a
// reviewer can tell which positions are absent. Uses gg's built-in face;
// output stays deterministic.
func annotateGaps(canvas *image.RGBA, l *layout.Layout, report *Report) {
	skipped := make(map[tile.Position]bool, len(report.Skipped))
	for _, pos := range report.Skipped {
		skipped[pos] = true
	}
	dc := gg.NewContextForRGBA(canvas)
	dc.SetColor(color.RGBA{128, 128, 128, 255})
	for _, p := range l.Placements {
		if !p.Gap() && !skipped[p.Position] {
			continue
		}
		cx, cy := p.Rect.Center()
		dc.DrawStringAnchored(p.Position.String(), cx, cy, 0.5, 0.5)
	}
}

// Package offset determines the pixel displacement between spatially
// adjacent tiles.
//
// The displacement can come from configuration (a manual override always
// wins) or be estimated by comparing the overlapping strips of adjacent
// tile pairs. The comparison metric is pluggable via Strategy; the shipped
// implementation is normalized cross-correlation (see CrossCorrelation).
// Estimates from several pairs are aggregated with the median so a single
// corrupt tile cannot skew the result.
package offset

import (
	"fmt"
	"image"

	"github.com/charmbracelet/log"
	"github.com/montanaflynn/stats"

	"github.com/gridstitch/gridstitch/pkg/tile"
)

// Axis selects the adjacency direction for displacement estimation.
type Axis int

const (
	// Horizontal compares a tile with its right neighbor.
	Horizontal Axis = iota
	// Vertical compares a tile with its neighbor below.
	Vertical
)

func (a Axis) String() string {
	if a == Horizontal {
		return "horizontal"
	}
	return "vertical"
}

// Offset is the displacement in pixels between the origins of adjacent
// tiles: DX for horizontal neighbors, DY for vertical ones. For physically
// sensible tile sets both lie in (0, tile dimension].
type Offset struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

func (o Offset) String() string {
	return fmt.Sprintf("(%d,%d)", o.DX, o.DY)
}

// DefaultSamplePairs is the number of adjacent pairs sampled per axis.
const DefaultSamplePairs = 5

// Loader loads tile pixel data on demand. Estimation only touches the
// sampled pairs, so peak memory stays at two tiles.
type Loader func(path string) (image.Image, error)

// Config controls estimation.
type Config struct {
	// DX, DY set both displacements explicitly. When both are positive the
	// estimator is bypassed entirely and the values are used verbatim.
	DX int
	DY int

	// SamplePairs caps the number of adjacent pairs examined per axis.
	SamplePairs int

	// Strategy is the overlap-similarity metric. Defaults to
	// CrossCorrelation{}.
	Strategy Strategy

	Logger *log.Logger
}

func (c *Config) setDefaults() {
	if c.SamplePairs <= 0 {
		c.SamplePairs = DefaultSamplePairs
	}
	if c.Strategy == nil {
		c.Strategy = CrossCorrelation{}
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
}

// Manual reports whether the config carries a full explicit offset.
func (c Config) Manual() bool { return c.DX > 0 && c.DY > 0 }

// pair is one adjacent tile pair along an axis.
type pair struct {
	a, b *tile.Tile
}

// Estimate resolves the grid offset for catalog. An explicit configured
// offset is returned verbatim. Otherwise adjacent pairs are sampled per
// axis and the per-pair displacements aggregated with the median.
//
// Estimate fails with *OffsetError when an axis spanning more than one
// tile has fewer than two adjacent pairs, or when the estimated
// displacement falls outside the tile's own dimensions (which signals a
// bad grid assumption rather than a usable estimate).
func Estimate(catalog *tile.Catalog, load Loader, cfg Config) (Offset, error) {
	cfg.setDefaults()

	if cfg.Manual() {
		cfg.Logger.Debug("using configured offset", "dx", cfg.DX, "dy", cfg.DY)
		return Offset{DX: cfg.DX, DY: cfg.DY}, nil
	}
	if load == nil {
		load = tile.LoadImage
	}

	first := catalog.Tiles()[0]
	tileW, tileH, err := tile.ReadDimensions(first.Path)
	if err != nil {
		return Offset{}, &OffsetError{Reason: fmt.Sprintf("representative tile %s: %v", first.Path, err)}
	}

	minRow, minCol, maxRow, maxCol := catalog.Bounds()

	dx := tileW // single-column grids abut; DX never spaces anything
	if maxCol > minCol {
		dx, err = estimateAxis(catalog, load, cfg, Horizontal)
		if err != nil {
			return Offset{}, err
		}
		if dx <= 0 || dx > tileW {
			return Offset{}, &OffsetError{
				Reason: fmt.Sprintf("estimated horizontal displacement %d outside (0,%d]", dx, tileW),
			}
		}
	}

	dy := tileH
	if maxRow > minRow {
		dy, err = estimateAxis(catalog, load, cfg, Vertical)
		if err != nil {
			return Offset{}, err
		}
		if dy <= 0 || dy > tileH {
			return Offset{}, &OffsetError{
				Reason: fmt.Sprintf("estimated vertical displacement %d outside (0,%d]", dy, tileH),
			}
		}
	}

	off := Offset{DX: dx, DY: dy}
	cfg.Logger.Info("estimated tile offset", "dx", off.DX, "dy", off.DY)
	return off, nil
}

// estimateAxis samples adjacent pairs along axis and returns the median
// displacement.
func estimateAxis(catalog *tile.Catalog, load Loader, cfg Config, axis Axis) (int, error) {
	pairs := adjacentPairs(catalog, axis)
	if len(pairs) < 2 {
		return 0, &OffsetError{
			Reason: fmt.Sprintf("%d %s adjacent pair(s) available, need at least 2", len(pairs), axis),
		}
	}

	// Spread the samples across the grid instead of clustering at the
	// origin, where acquisition artifacts are most common.
	step := 1
	if len(pairs) > cfg.SamplePairs {
		step = len(pairs) / cfg.SamplePairs
	}

	var displacements []float64
	for i := 0; i < len(pairs) && len(displacements) < cfg.SamplePairs; i += step {
		p := pairs[i]
		imgA, err := load(p.a.Path)
		if err != nil {
			cfg.Logger.Warn("skipping pair, unreadable tile", "tile", p.a.Path, "err", err)
			continue
		}
		imgB, err := load(p.b.Path)
		if err != nil {
			cfg.Logger.Warn("skipping pair, unreadable tile", "tile", p.b.Path, "err", err)
			continue
		}
		d, score, err := cfg.Strategy.Displacement(imgA, imgB, axis)
		if err != nil {
			cfg.Logger.Warn("skipping pair", "a", p.a.Position, "b", p.b.Position, "err", err)
			continue
		}
		cfg.Logger.Debug("pair displacement",
			"axis", axis, "a", p.a.Position, "b", p.b.Position, "d", d, "score", score)
		displacements = append(displacements, float64(d))
	}

	if len(displacements) < 2 {
		return 0, &OffsetError{
			Reason: fmt.Sprintf("only %d usable %s pair(s) after sampling, need at least 2", len(displacements), axis),
		}
	}

	med, err := stats.Median(displacements)
	if err != nil {
		return 0, &OffsetError{Reason: fmt.Sprintf("aggregate %s displacements: %v", axis, err)}
	}
	return int(med + 0.5), nil
}

// adjacentPairs lists the pairs of catalog tiles that are grid neighbors
// along axis, in row-major order of the first member.
func adjacentPairs(catalog *tile.Catalog, axis Axis) []pair {
	var pairs []pair
	for _, t := range catalog.Tiles() {
		next := t.Position
		if axis == Horizontal {
			next.Col++
		} else {
			next.Row++
		}
		if n, ok := catalog.At(next); ok {
			pairs = append(pairs, pair{a: t, b: n})
		}
	}
	return pairs
}

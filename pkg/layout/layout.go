// Package layout computes the canvas geometry of a mosaic: the destination
// rectangle of every included tile, the placeholder rectangles left by
// missing or excluded tiles, and the overall canvas dimensions.
//
// A Layout is pure derived output. It is only ever constructed from a
// fully-resolved catalog + offset + exclusion triple and is never mutated
// afterwards, so composing from the same layout twice yields byte-identical
// results.
package layout

import (
	"fmt"

	"github.com/gridstitch/gridstitch/pkg/offset"
	"github.com/gridstitch/gridstitch/pkg/tile"
)

// Rect is a destination rectangle on the output canvas, in pixels.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Center returns the rectangle's midpoint in canvas coordinates.
func (r Rect) Center() (cx, cy float64) {
	return float64(r.X) + float64(r.W)/2, float64(r.Y) + float64(r.H)/2
}

// Placement binds a grid position to its canvas rectangle. Tile is nil for
// gap placements (missing or excluded positions inside the grid bounds).
type Placement struct {
	Position tile.Position
	Rect     Rect
	Tile     *tile.Tile
}

// Gap reports whether this placement is a placeholder rectangle.
func (p Placement) Gap() bool { return p.Tile == nil }

// ExclusionSet answers whether a position is excluded from composition.
// *exclusion.Store satisfies it; tests can use PositionSet.
type ExclusionSet interface {
	Excluded(pos tile.Position) bool
}

// PositionSet is a map-backed ExclusionSet.
type PositionSet map[tile.Position]bool

func (s PositionSet) Excluded(pos tile.Position) bool { return s[pos] }

// Layout is the computed canvas geometry.
type Layout struct {
	Width      int
	Height     int
	TileWidth  int
	TileHeight int
	Offset     offset.Offset

	// Placements covers every position within the included-tile bounds in
	// row-major order: included tiles and gaps alike.
	Placements []Placement

	byPos map[tile.Position]int
}

// At returns the placement for pos, if pos lies within the layout bounds.
func (l *Layout) At(pos tile.Position) (Placement, bool) {
	i, ok := l.byPos[pos]
	if !ok {
		return Placement{}, false
	}
	return l.Placements[i], true
}

// Included returns the non-gap placements in row-major order.
func (l *Layout) Included() []Placement {
	var out []Placement
	for _, p := range l.Placements {
		if !p.Gap() {
			out = append(out, p)
		}
	}
	return out
}

// Gaps returns the placeholder placements in row-major order.
func (l *Layout) Gaps() []Placement {
	var out []Placement
	for _, p := range l.Placements {
		if p.Gap() {
			out = append(out, p)
		}
	}
	return out
}

// ReadUniformDimensions reads the pixel dimensions of every catalog tile
// from its image header and verifies they agree. A disagreeing or
// unreadable header fails with *GridError naming the offending tile.
func ReadUniformDimensions(catalog *tile.Catalog) (tileW, tileH int, err error) {
	tiles := catalog.Tiles()
	tileW, tileH, err = tile.ReadDimensions(tiles[0].Path)
	if err != nil {
		return 0, 0, &GridError{Path: tiles[0].Path, Reason: err.Error()}
	}
	for _, t := range tiles[1:] {
		w, h, err := tile.ReadDimensions(t.Path)
		if err != nil {
			return 0, 0, &GridError{Path: t.Path, Reason: err.Error()}
		}
		if w != tileW || h != tileH {
			return 0, 0, &GridError{
				Path:   t.Path,
				Reason: fmt.Sprintf("tile is %dx%d, grid expects %dx%d", w, h, tileW, tileH),
			}
		}
	}
	return tileW, tileH, nil
}

// Assemble computes the canvas layout for catalog under off, omitting
// positions excluded by excl (which may be nil).
//
// The bounding row/column range is taken over included tiles only, so
// excluding an edge tile shrinks the canvas while excluding an interior
// tile leaves a gap. Tile dimensions are read from image headers and must
// be uniform; a disagreeing tile fails the assembly with *GridError.
func Assemble(catalog *tile.Catalog, off offset.Offset, excl ExclusionSet) (*Layout, error) {
	tileW, tileH, err := ReadUniformDimensions(catalog)
	if err != nil {
		return nil, err
	}
	return AssembleWithDimensions(catalog, off, excl, tileW, tileH)
}

// AssembleWithDimensions is Assemble with the uniform tile dimensions
// already known, skipping the per-tile header reads. Callers holding
// cached dimensions (see pipeline.Runner) use this directly.
func AssembleWithDimensions(catalog *tile.Catalog, off offset.Offset, excl ExclusionSet, tileW, tileH int) (*Layout, error) {
	if off.DX <= 0 || off.DY <= 0 {
		return nil, &GridError{Reason: fmt.Sprintf("non-positive offset %s", off)}
	}
	if tileW <= 0 || tileH <= 0 {
		return nil, &GridError{Reason: fmt.Sprintf("non-positive tile dimensions %dx%d", tileW, tileH)}
	}

	var included []*tile.Tile
	for _, t := range catalog.Tiles() {
		if excl != nil && excl.Excluded(t.Position) {
			continue
		}
		included = append(included, t)
	}
	if len(included) == 0 {
		return nil, &GridError{Reason: "every tile is excluded, nothing to lay out"}
	}

	if off.DX > tileW || off.DY > tileH {
		return nil, &GridError{
			Reason: fmt.Sprintf("offset %s exceeds tile dimensions %dx%d", off, tileW, tileH),
		}
	}

	minRow, minCol := included[0].Position.Row, included[0].Position.Col
	maxRow, maxCol := minRow, minCol
	for _, t := range included[1:] {
		p := t.Position
		minRow = min(minRow, p.Row)
		maxRow = max(maxRow, p.Row)
		minCol = min(minCol, p.Col)
		maxCol = max(maxCol, p.Col)
	}

	l := &Layout{
		Width:      (maxCol-minCol)*off.DX + tileW,
		Height:     (maxRow-minRow)*off.DY + tileH,
		TileWidth:  tileW,
		TileHeight: tileH,
		Offset:     off,
		byPos:      make(map[tile.Position]int),
	}

	for r := minRow; r <= maxRow; r++ {
		for c := minCol; c <= maxCol; c++ {
			pos := tile.Position{Row: r, Col: c}
			p := Placement{
				Position: pos,
				Rect: Rect{
					X: (c - minCol) * off.DX,
					Y: (r - minRow) * off.DY,
					W: tileW,
					H: tileH,
				},
			}
			if t, ok := catalog.At(pos); ok && (excl == nil || !excl.Excluded(pos)) {
				p.Tile = t
			}
			l.byPos[pos] = len(l.Placements)
			l.Placements = append(l.Placements, p)
		}
	}
	return l, nil
}

// Package tile discovers tile images in an acquisition directory and builds
// an ordered catalog keyed by grid position.
//
// Tile filenames encode a (row, column) position in the acquisition grid.
// The exact convention varies by instrument, so parsing is pluggable via the
// Parser interface; see GridParser and SequentialParser for the two
// conventions shipped with gridstitch.
//
// A Catalog is built once per run from directory contents and is immutable
// afterwards. Iteration order is row-major (row ascending, then column
// ascending) so downstream stages are deterministic.
package tile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

// Position identifies a cell in the logical acquisition grid.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// Less orders positions row-major.
func (p Position) Less(q Position) bool {
	if p.Row != q.Row {
		return p.Row < q.Row
	}
	return p.Col < q.Col
}

// Tile is one source image occupying a single grid cell.
type Tile struct {
	Position Position
	Path     string
	Label    string // optional channel/element-map tag, e.g. "Si"
}

// Catalog is an ordered, immutable mapping from Position to Tile for a
// single label. Rows and columns need not be contiguous; interior gaps are
// handled downstream as missing tiles.
type Catalog struct {
	dir   string
	label string
	tiles []*Tile
	byPos map[Position]*Tile
}

// Option configures Build.
type Option func(*buildConfig)

type buildConfig struct {
	label  string
	logger *log.Logger
}

// WithLabel restricts the catalog to tiles carrying the given channel label.
// The default is the unlabeled channel ("").
func WithLabel(label string) Option {
	return func(c *buildConfig) { c.label = label }
}

// WithLogger sets the logger used to report skipped files.
func WithLogger(l *log.Logger) Option {
	return func(c *buildConfig) { c.logger = l }
}

// Build scans dir non-recursively, parses each filename with parser, and
// returns the resulting catalog. Subdirectories (including the exclusion
// marker directory) and dotfiles are ignored. Files whose names do not
// match the convention are logged and skipped; files matching a different
// label are skipped silently.
//
// Build fails with *CatalogError when no tiles match or when two files
// claim the same position for the same label.
func Build(dir string, parser Parser, opts ...Option) (*Catalog, error) {
	cfg := buildConfig{logger: log.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &CatalogError{Dir: dir, Reason: fmt.Sprintf("read directory: %v", err)}
	}

	c := &Catalog{
		dir:   dir,
		label: cfg.label,
		byPos: make(map[Position]*Tile),
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		pos, label, ok := parser.Parse(name)
		if !ok {
			cfg.logger.Warn("skipping file with unparsable name", "file", name)
			continue
		}
		if label != cfg.label {
			continue
		}
		if prev, dup := c.byPos[pos]; dup {
			return nil, &CatalogError{
				Dir: dir,
				Reason: fmt.Sprintf("position %s claimed by both %s and %s",
					pos, filepath.Base(prev.Path), name),
			}
		}
		t := &Tile{Position: pos, Path: filepath.Join(dir, name), Label: label}
		c.byPos[pos] = t
		c.tiles = append(c.tiles, t)
	}

	if len(c.tiles) == 0 {
		return nil, &CatalogError{Dir: dir, Reason: "no tile images match the naming convention"}
	}

	sort.Slice(c.tiles, func(i, j int) bool {
		return c.tiles[i].Position.Less(c.tiles[j].Position)
	})
	return c, nil
}

// Dir returns the directory the catalog was built from.
func (c *Catalog) Dir() string { return c.dir }

// Label returns the channel label the catalog was built for.
func (c *Catalog) Label() string { return c.label }

// Len returns the number of tiles.
func (c *Catalog) Len() int { return len(c.tiles) }

// Tiles returns all tiles in row-major order. The slice must not be mutated.
func (c *Catalog) Tiles() []*Tile { return c.tiles }

// At looks up the tile at pos.
func (c *Catalog) At(pos Position) (*Tile, bool) {
	t, ok := c.byPos[pos]
	return t, ok
}

// Bounds returns the inclusive min/max row and column over all tiles.
func (c *Catalog) Bounds() (minRow, minCol, maxRow, maxCol int) {
	first := true
	for _, t := range c.tiles {
		p := t.Position
		if first {
			minRow, maxRow, minCol, maxCol = p.Row, p.Row, p.Col, p.Col
			first = false
			continue
		}
		minRow = min(minRow, p.Row)
		maxRow = max(maxRow, p.Row)
		minCol = min(minCol, p.Col)
		maxCol = max(maxCol, p.Col)
	}
	return minRow, minCol, maxRow, maxCol
}

// Listing returns a deterministic textual fingerprint of the catalog:
// one "row col filename" line per tile in row-major order. It is used as
// cache key material for derived results such as offset estimates.
func (c *Catalog) Listing() string {
	var b strings.Builder
	for _, t := range c.tiles {
		fmt.Fprintf(&b, "%d %d %s\n", t.Position.Row, t.Position.Col, filepath.Base(t.Path))
	}
	return b.String()
}

// ListLabels scans dir and returns the distinct channel labels present,
// sorted, with the unlabeled channel first when it exists.
func ListLabels(dir string, parser Parser) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &CatalogError{Dir: dir, Reason: fmt.Sprintf("read directory: %v", err)}
	}
	seen := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if _, label, ok := parser.Parse(entry.Name()); ok {
			seen[label] = true
		}
	}
	labels := make([]string, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels, nil
}

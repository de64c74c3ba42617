package tile

import (
	"regexp"
	"strconv"
)

// Parser converts a tile filename into a grid position and optional channel
// label. Implementations return ok=false for files that do not follow their
// convention; such files are skipped by Build.
type Parser interface {
	Parse(filename string) (pos Position, label string, ok bool)
}

// gridPattern matches the SEM stage convention "name_Grid[@row col].ext"
// with an optional trailing element-map label, e.g.
//
//	specimen_Grid[@0 1].tif
//	specimen_Grid[@2 0]_Si.tif
var gridPattern = regexp.MustCompile(`_Grid\[@(\d+) (\d+)\](?:_([A-Za-z0-9]+))?\.(?i:tiff?|png|jpe?g|bmp)$`)

// GridParser parses the "_Grid[@row col]" naming convention emitted by SEM
// acquisition software.
type GridParser struct{}

func (GridParser) Parse(filename string) (Position, string, bool) {
	m := gridPattern.FindStringSubmatch(filename)
	if m == nil {
		return Position{}, "", false
	}
	row, err := strconv.Atoi(m[1])
	if err != nil {
		return Position{}, "", false
	}
	col, err := strconv.Atoi(m[2])
	if err != nil {
		return Position{}, "", false
	}
	return Position{Row: row, Col: col}, m[3], true
}

// seqPattern matches a trailing 1-based tile index, e.g. "abc-1408-17.jpg".
var seqPattern = regexp.MustCompile(`-(\d+)\.(?i:tiff?|png|jpe?g|bmp)$`)

// SequentialParser parses filenames carrying a sequential 1-based tile
// index and maps the index onto a grid row-major using a known column
// count. Cols must be positive.
type SequentialParser struct {
	Cols int
}

func (p SequentialParser) Parse(filename string) (Position, string, bool) {
	if p.Cols <= 0 {
		return Position{}, "", false
	}
	m := seqPattern.FindStringSubmatch(filename)
	if m == nil {
		return Position{}, "", false
	}
	idx, err := strconv.Atoi(m[1])
	if err != nil || idx < 1 {
		return Position{}, "", false
	}
	idx-- // to 0-based
	return Position{Row: idx / p.Cols, Col: idx % p.Cols}, "", true
}

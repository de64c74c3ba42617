// Package pkg provides the core libraries for Gridstitch mosaic assembly.
//
// # Overview
//
// Gridstitch assembles grids of tiled captures (microscope stage scans,
// scanned map sheets, aerial surveys) into a single mosaic image. Tile
// positions are read from filenames, the displacement between adjacent
// tiles is measured from the images themselves, and excluded tiles are
// rendered as uniform gaps. The pkg directory is organized by pipeline
// stage:
//
//  1. [tile] - Filename parsing and tile cataloging
//  2. [offset] - Inter-tile displacement estimation (cross-correlation)
//  3. [exclusion] - Durable, reversible tile exclusion
//  4. [layout] - Canvas sizing and tile placement
//  5. [compose] - Mosaic painting and encoding
//  6. [points] - Tile center coordinate export
//  7. [pipeline] - Orchestration (catalog → offset → layout → compose)
//  8. [cache] - Offset estimate caching (file and Redis backends)
//  9. [config] - gridstitch.toml loading and defaults
//
// # Architecture
//
// The typical data flow through Gridstitch:
//
//	Tile directory
//	         ↓
//	    [tile] package (parse filenames, catalog positions)
//	         ↓
//	    [offset] package (estimate dx/dy by cross-correlation)
//	         ↓
//	    [layout] package (place tiles and gaps on the canvas)
//	         ↓
//	    [compose] package (paint, annotate, encode)
//	         ↓
//	    JPEG/PNG/TIFF output
//
// # Quick Start
//
// Assemble a mosaic from a directory of tiles:
//
//	import (
//	    "context"
//	    "github.com/gridstitch/gridstitch/pkg/cache"
//	    "github.com/gridstitch/gridstitch/pkg/pipeline"
//	)
//
//	opts := pipeline.Options{Path: "/data/slide-42"}
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
//	result, err := runner.Execute(context.Background(), opts)
//
// The [pipeline] package is used by the CLI and the preview server alike,
// ensuring consistent behavior across all entry points.
//
// [tile]: https://pkg.go.dev/github.com/gridstitch/gridstitch/pkg/tile
// [offset]: https://pkg.go.dev/github.com/gridstitch/gridstitch/pkg/offset
// [exclusion]: https://pkg.go.dev/github.com/gridstitch/gridstitch/pkg/exclusion
// [layout]: https://pkg.go.dev/github.com/gridstitch/gridstitch/pkg/layout
// [compose]: https://pkg.go.dev/github.com/gridstitch/gridstitch/pkg/compose
// [points]: https://pkg.go.dev/github.com/gridstitch/gridstitch/pkg/points
// [pipeline]: https://pkg.go.dev/github.com/gridstitch/gridstitch/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/gridstitch/gridstitch/pkg/cache
// [config]: https://pkg.go.dev/github.com/gridstitch/gridstitch/pkg/config
package pkg

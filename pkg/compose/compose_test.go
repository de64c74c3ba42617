package compose

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gridstitch/gridstitch/pkg/layout"
	"github.com/gridstitch/gridstitch/pkg/offset"
	"github.com/gridstitch/gridstitch/pkg/tile"
)

// tileColor gives every grid position a distinct solid color so painted
// regions can be identified in the output.
func tileColor(r, c int) color.RGBA {
	return color.RGBA{uint8(50 + r*100), uint8(50 + c*100), 200, 255}
}

func writeColorPNG(t *testing.T, path string, w, h int, fill color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, fill)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

// build2x2 assembles the 2×2 grid of 100×100 tiles at offset 90.
func build2x2(t *testing.T, excl layout.ExclusionSet) *layout.Layout {
	t.Helper()
	dir := t.TempDir()
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			path := filepath.Join(dir, fmt.Sprintf("s_Grid[@%d %d].png", r, c))
			writeColorPNG(t, path, 100, 100, tileColor(r, c))
		}
	}
	cat, err := tile.Build(dir, tile.GridParser{})
	if err != nil {
		t.Fatal(err)
	}
	l, err := layout.Assemble(cat, offset.Offset{DX: 90, DY: 90}, excl)
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func decodePNG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	return img
}

func pixel(img image.Image, x, y int) color.RGBA {
	r, g, b, a := img.At(x, y).RGBA()
	return color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
}

func TestComposePaintsAllTiles(t *testing.T) {
	l := build2x2(t, nil)
	out := filepath.Join(t.TempDir(), "mosaic.png")

	report, err := Compose(context.Background(), l, out, Options{})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if report.TilesDrawn != 4 || report.Gaps != 0 {
		t.Errorf("drawn=%d gaps=%d, want 4/0", report.TilesDrawn, report.Gaps)
	}

	img := decodePNG(t, out)
	if b := img.Bounds(); b.Dx() != 190 || b.Dy() != 190 {
		t.Fatalf("output = %dx%d, want 190x190", b.Dx(), b.Dy())
	}
	// Interior samples away from any overlap region.
	if got := pixel(img, 40, 40); got != tileColor(0, 0) {
		t.Errorf("pixel in (0,0) tile = %v, want %v", got, tileColor(0, 0))
	}
	if got := pixel(img, 150, 150); got != tileColor(1, 1) {
		t.Errorf("pixel in (1,1) tile = %v, want %v", got, tileColor(1, 1))
	}
}

func TestComposeExcludedTileLeavesGapColor(t *testing.T) {
	l := build2x2(t, layout.PositionSet{{Row: 0, Col: 1}: true})
	out := filepath.Join(t.TempDir(), "mosaic.png")

	gap := color.RGBA{40, 40, 40, 255}
	report, err := Compose(context.Background(), l, out, Options{GapColor: gap})
	if err != nil {
		t.Fatal(err)
	}
	if report.TilesDrawn != 3 || report.Gaps != 1 {
		t.Errorf("drawn=%d gaps=%d, want 3/1", report.TilesDrawn, report.Gaps)
	}

	img := decodePNG(t, out)
	// The gap rectangle spans x 90..190, y 0..100 but neighbors overlap its
	// fringes; (150,40) is in the region no included tile covers.
	if got := pixel(img, 150, 40); got != gap {
		t.Errorf("uncovered gap pixel = %v, want %v", got, gap)
	}
	// Tiles are painted after gaps, so (0,0) still covers x<100.
	if got := pixel(img, 95, 40); got != tileColor(0, 0) {
		t.Errorf("overlap pixel = %v, want tile (0,0) color %v", got, tileColor(0, 0))
	}
}

func TestComposeUnreadableTileBecomesGap(t *testing.T) {
	l := build2x2(t, nil)
	out := filepath.Join(t.TempDir(), "mosaic.png")

	bad := tile.Position{Row: 0, Col: 1}
	badPath := ""
	if p, ok := l.At(bad); ok {
		badPath = p.Tile.Path
	}
	loader := func(path string) (image.Image, error) {
		if path == badPath {
			return nil, errors.New("truncated file")
		}
		return tile.LoadImage(path)
	}

	report, err := Compose(context.Background(), l, out, Options{Loader: loader})
	if err != nil {
		t.Fatalf("one unreadable tile should not fail the mosaic: %v", err)
	}
	if report.TilesDrawn != 3 {
		t.Errorf("drawn = %d, want 3", report.TilesDrawn)
	}
	if len(report.Skipped) != 1 || report.Skipped[0] != bad {
		t.Errorf("skipped = %v, want [%v]", report.Skipped, bad)
	}

	img := decodePNG(t, out)
	if got := pixel(img, 150, 40); got != (color.RGBA{40, 40, 40, 255}) {
		t.Errorf("skipped tile region = %v, want gap color", got)
	}
}

func TestComposeMemoryBudget(t *testing.T) {
	l := build2x2(t, nil)
	out := filepath.Join(t.TempDir(), "mosaic.png")

	_, err := Compose(context.Background(), l, out, Options{MaxCanvasBytes: 1024})
	if err == nil {
		t.Fatal("canvas over budget should fail before allocation")
	}
	var cerr *ComposeError
	if !errors.As(err, &cerr) {
		t.Fatalf("error type = %T, want *ComposeError", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("no output should be written on precondition failure")
	}
}

func TestComposeUnsupportedFormat(t *testing.T) {
	l := build2x2(t, nil)
	out := filepath.Join(t.TempDir(), "mosaic.gif")

	var cerr *ComposeError
	if _, err := Compose(context.Background(), l, out, Options{}); !errors.As(err, &cerr) {
		t.Fatalf("unsupported extension should yield *ComposeError, got %v", err)
	}
}

func TestComposeDeterministic(t *testing.T) {
	l := build2x2(t, layout.PositionSet{{Row: 1, Col: 0}: true})
	dir := t.TempDir()

	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	opts := Options{AnnotateGaps: true}
	if _, err := Compose(context.Background(), l, a, opts); err != nil {
		t.Fatal(err)
	}
	if _, err := Compose(context.Background(), l, b, opts); err != nil {
		t.Fatal(err)
	}

	da, err := os.ReadFile(a)
	if err != nil {
		t.Fatal(err)
	}
	db, err := os.ReadFile(b)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(da, db) {
		t.Error("identical inputs should produce byte-identical mosaics")
	}
}

func TestComposeDerivative(t *testing.T) {
	l := build2x2(t, nil)
	out := filepath.Join(t.TempDir(), "mosaic.png")

	report, err := Compose(context.Background(), l, out, Options{
		Derivative:       true,
		DerivativeMaxDim: 64,
	})
	if err != nil {
		t.Fatal(err)
	}
	if report.DerivativePath == "" {
		t.Fatal("report should carry the derivative path")
	}
	if !strings.HasSuffix(report.DerivativePath, "_preview.jpg") {
		t.Errorf("derivative path = %q, want *_preview.jpg", report.DerivativePath)
	}

	f, err := os.Open(report.DerivativePath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode derivative: %v", err)
	}
	if cfg.Width > 64 || cfg.Height > 64 {
		t.Errorf("derivative = %dx%d, want both sides <= 64", cfg.Width, cfg.Height)
	}
}

func TestComposeCancelled(t *testing.T) {
	l := build2x2(t, nil)
	out := filepath.Join(t.TempDir(), "mosaic.png")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Compose(ctx, l, out, Options{}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

package points

import (
	"bytes"
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

func build2x2Layout(t *testing.T, excl layout.ExclusionSet) *layout.Layout {
	t.Helper()
	dir := t.TempDir()
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			path := filepath.Join(dir, fmt.Sprintf("s_Grid[@%d %d].png", r, c))
			img := image.NewRGBA(image.Rect(0, 0, 100, 100))
			for y := 0; y < 100; y++ {
				for x := 0; x < 100; x++ {
					img.Set(x, y, color.White)
				}
			}
			f, err := os.Create(path)
			if err != nil {
				t.Fatal(err)
			}
			if err := png.Encode(f, img); err != nil {
				t.Fatal(err)
			}
			f.Close()
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

func TestWriteRecordsCenters(t *testing.T) {
	// The 2×2/offset-90 grid with (0,1) excluded: exactly three records,
	// each at its rectangle's midpoint.
	l := build2x2Layout(t, layout.PositionSet{{Row: 0, Col: 1}: true})

	var buf bytes.Buffer
	if err := Write(&buf, l); err != nil {
		t.Fatalf("Write: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 { // header + 3 records
		t.Fatalf("lines = %d, want 4:\n%s", len(lines), buf.String())
	}
	want := []string{
		"row\tcol\tcenter_x\tcenter_y",
		"0\t0\t50.0\t50.0",
		"1\t0\t50.0\t140.0",
		"1\t1\t140.0\t140.0",
	}
	for i, line := range lines {
		if line != want[i] {
			t.Errorf("line %d = %q, want %q", i, line, want[i])
		}
	}
}

func TestWriteDeterministic(t *testing.T) {
	l := build2x2Layout(t, nil)

	var a, b bytes.Buffer
	if err := Write(&a, l); err != nil {
		t.Fatal(err)
	}
	if err := Write(&b, l); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("repeated writes should be byte-identical")
	}
}

func TestWriteFile(t *testing.T) {
	l := build2x2Layout(t, nil)
	path := filepath.Join(t.TempDir(), "points.txt")

	if err := WriteFile(path, l); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "row\tcol\t") {
		t.Errorf("unexpected header: %q", string(data))
	}
	if got := strings.Count(string(data), "\n"); got != 5 { // header + 4 tiles
		t.Errorf("line count = %d, want 5", got)
	}
}

package layout

import (
	"context"
	"strings"
	"testing"

	"github.com/gridstitch/gridstitch/pkg/offset"
)

func TestToDOTNodesAndEdges(t *testing.T) {
	cat := grid2x2(t)
	l, err := Assemble(cat, offset.Offset{DX: 90, DY: 90}, nil)
	if err != nil {
		t.Fatal(err)
	}

	dot := l.ToDOT()
	if !strings.HasPrefix(dot, "graph mosaic {") {
		t.Errorf("DOT should open an undirected graph, got %q", firstLine(dot))
	}
	for _, node := range []string{"t0_0", "t0_1", "t1_0", "t1_1"} {
		if !strings.Contains(dot, node+" [label=") {
			t.Errorf("DOT missing node %s", node)
		}
	}

	// 2x2 grid: two horizontal and two vertical adjacencies.
	edges := []string{
		"t0_0 -- t0_1",
		"t1_0 -- t1_1",
		"t0_0 -- t1_0",
		"t0_1 -- t1_1",
	}
	for _, e := range edges {
		if !strings.Contains(dot, e) {
			t.Errorf("DOT missing edge %s", e)
		}
	}
	if got := strings.Count(dot, " -- "); got != len(edges) {
		t.Errorf("edge count = %d, want %d", got, len(edges))
	}
}

func TestToDOTGapIsDashed(t *testing.T) {
	cat := grid2x2(t)
	l, err := Assemble(cat, offset.Offset{DX: 90, DY: 90}, PositionSet{{Row: 0, Col: 1}: true})
	if err != nil {
		t.Fatal(err)
	}

	dot := l.ToDOT()
	gapLine := lineContaining(dot, "t0_1 [")
	if gapLine == "" {
		t.Fatal("gap position should still be a node")
	}
	if !strings.Contains(gapLine, "dashed") {
		t.Errorf("gap node should be dashed, got %q", gapLine)
	}
	tileLine := lineContaining(dot, "t0_0 [")
	if strings.Contains(tileLine, "dashed") {
		t.Errorf("tile node should not be dashed, got %q", tileLine)
	}

	// Gaps stay connected so the grid structure remains visible.
	if !strings.Contains(dot, "t0_0 -- t0_1") {
		t.Error("edge into the gap should remain")
	}
}

func TestRenderSVG(t *testing.T) {
	cat := grid2x2(t)
	l, err := Assemble(cat, offset.Offset{DX: 90, DY: 90}, nil)
	if err != nil {
		t.Fatal(err)
	}

	svg, err := l.RenderSVG(context.Background())
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("output should be an SVG document")
	}
	for _, label := range []string{"(0,0)", "(1,1)"} {
		if !strings.Contains(string(svg), label) {
			t.Errorf("SVG missing node label %s", label)
		}
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func lineContaining(s, substr string) string {
	for _, line := range strings.Split(s, "\n") {
		if strings.Contains(line, substr) {
			return line
		}
	}
	return ""
}

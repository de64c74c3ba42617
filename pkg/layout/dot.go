package layout

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	"github.com/gridstitch/gridstitch/pkg/tile"
)

// ToDOT returns a Graphviz DOT representation of the layout's grid
// adjacency, useful for debugging sparse or damaged acquisitions.
//
// Node representation:
//   - tiles: solid boxes labeled with their grid position
//   - gaps (missing or excluded): dashed gray boxes
//
// Edges connect horizontal and vertical neighbors. The output can be
// rendered with Graphviz tools (dot, neato) or programmatically with
// RenderSVG.
func (l *Layout) ToDOT() string {
	var buf bytes.Buffer
	buf.WriteString("graph mosaic {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [fontname=\"SF Mono, Menlo, monospace\", fontsize=12, shape=box, style=filled, fillcolor=white];\n\n")

	for _, p := range l.Placements {
		id := dotNodeID(p.Position)
		if p.Gap() {
			fmt.Fprintf(&buf, "  %s [label=%q, style=\"filled,dashed\", fillcolor=gray90];\n",
				id, p.Position.String())
		} else {
			fmt.Fprintf(&buf, "  %s [label=%q];\n", id, p.Position.String())
		}
	}

	buf.WriteString("\n")
	for _, p := range l.Placements {
		right := tile.Position{Row: p.Position.Row, Col: p.Position.Col + 1}
		if _, ok := l.At(right); ok {
			fmt.Fprintf(&buf, "  %s -- %s;\n", dotNodeID(p.Position), dotNodeID(right))
		}
		down := tile.Position{Row: p.Position.Row + 1, Col: p.Position.Col}
		if _, ok := l.At(down); ok {
			fmt.Fprintf(&buf, "  %s -- %s;\n", dotNodeID(p.Position), dotNodeID(down))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func dotNodeID(p tile.Position) string {
	return fmt.Sprintf("t%d_%d", p.Row, p.Col)
}

// RenderSVG renders the grid adjacency as an SVG image via Graphviz.
//
// All errors are wrapped with context using fmt.Errorf with %w.
func (l *Layout) RenderSVG(ctx context.Context) ([]byte, error) {
	dot := l.ToDOT()

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render SVG: %w", err)
	}
	return buf.Bytes(), nil
}

// Package points emits the canvas-space center coordinates of every
// included tile, one tab-separated record per tile, for downstream
// instrument targeting (e.g. re-locating analysis spots on the specimen).
package points

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/gridstitch/gridstitch/pkg/layout"
)

// Write emits one record per included tile in layout order (row-major):
//
//	row <TAB> col <TAB> center_x <TAB> center_y
//
// preceded by a single header line. Output is deterministic for a given
// layout.
func Write(w io.Writer, l *layout.Layout) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, "row\tcol\tcenter_x\tcenter_y"); err != nil {
		return err
	}
	for _, p := range l.Included() {
		cx, cy := p.Rect.Center()
		if _, err := fmt.Fprintf(bw, "%d\t%d\t%.1f\t%.1f\n",
			p.Position.Row, p.Position.Col, cx, cy); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes the points records to path.
func WriteFile(path string, l *layout.Layout) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create points file: %w", err)
	}
	if err := Write(f, l); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

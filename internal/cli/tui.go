package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gridstitch/gridstitch/pkg/exclusion"
	"github.com/gridstitch/gridstitch/pkg/tile"
)

// Grid cell styles
var (
	cellIncludedStyle = lipgloss.NewStyle().Foreground(colorGreen)
	cellExcludedStyle = lipgloss.NewStyle().Foreground(colorRed)
	cellAbsentStyle   = lipgloss.NewStyle().Foreground(colorDim)
	cellCursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Reverse(true)
)

// Grid cell glyphs.
const (
	glyphIncluded = "■"
	glyphExcluded = "░"
	glyphAbsent   = "·"
)

// selectModel is the bubbletea model for the interactive tile selector.
//
// The grid spans the union of tiles present in the directory and tiles
// currently excluded (whose files live under skipped/). Toggling persists
// through the exclusion store before the view updates; a failed toggle
// leaves the grid unchanged and reports the error in the status line.
type selectModel struct {
	store   *exclusion.Store
	present map[tile.Position]bool

	minRow, maxRow int
	minCol, maxCol int

	cursor  tile.Position
	status  string
	isError bool
	toggles int
}

// newSelectModel builds the selector over catalog and store. A nil catalog
// is allowed when every tile is excluded.
func newSelectModel(catalog *tile.Catalog, store *exclusion.Store) selectModel {
	m := selectModel{
		store:   store,
		present: make(map[tile.Position]bool),
	}

	first := true
	grow := func(p tile.Position) {
		if first {
			m.minRow, m.maxRow, m.minCol, m.maxCol = p.Row, p.Row, p.Col, p.Col
			m.cursor = p
			first = false
			return
		}
		m.minRow = min(m.minRow, p.Row)
		m.maxRow = max(m.maxRow, p.Row)
		m.minCol = min(m.minCol, p.Col)
		m.maxCol = max(m.maxCol, p.Col)
	}

	if catalog != nil {
		for _, t := range catalog.Tiles() {
			m.present[t.Position] = true
			grow(t.Position)
		}
	}
	for _, p := range store.Positions() {
		grow(p)
	}
	return m
}

func (m selectModel) Init() tea.Cmd {
	return nil
}

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor.Row > m.minRow {
			m.cursor.Row--
		}
	case "down", "j":
		if m.cursor.Row < m.maxRow {
			m.cursor.Row++
		}
	case "left", "h":
		if m.cursor.Col > m.minCol {
			m.cursor.Col--
		}
	case "right", "l":
		if m.cursor.Col < m.maxCol {
			m.cursor.Col++
		}
	case " ", "enter":
		return m.toggle(), nil
	}
	return m, nil
}

// toggle flips the tile under the cursor through the store.
func (m selectModel) toggle() selectModel {
	pos := m.cursor
	if !m.present[pos] && !m.store.Excluded(pos) {
		m.status = fmt.Sprintf("no tile at %s", pos)
		m.isError = true
		return m
	}

	excluded, err := m.store.Toggle(pos)
	if err != nil {
		m.status = fmt.Sprintf("toggle %s: %v", pos, err)
		m.isError = true
		return m
	}
	m.toggles++
	m.isError = false
	if excluded {
		m.status = fmt.Sprintf("excluded %s", pos)
	} else {
		m.status = fmt.Sprintf("restored %s", pos)
	}
	return m
}

func (m selectModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Tiles"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("↑/↓/←/→ move  ␣ toggle  q quit"))
	b.WriteString("\n\n")

	for r := m.minRow; r <= m.maxRow; r++ {
		b.WriteString(StyleDim.Render(fmt.Sprintf("%3d ", r)))
		for c := m.minCol; c <= m.maxCol; c++ {
			pos := tile.Position{Row: r, Col: c}
			b.WriteString(m.renderCell(pos))
			b.WriteString(" ")
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(StyleDim.Render(fmt.Sprintf("%d excluded", m.store.Len())))
	if m.status != "" {
		b.WriteString("  ")
		if m.isError {
			b.WriteString(StyleWarning.Render(m.status))
		} else {
			b.WriteString(StyleValue.Render(m.status))
		}
	}
	b.WriteString("\n")
	return b.String()
}

func (m selectModel) renderCell(pos tile.Position) string {
	glyph := glyphAbsent
	style := cellAbsentStyle
	switch {
	case m.store.Excluded(pos):
		glyph = glyphExcluded
		style = cellExcludedStyle
	case m.present[pos]:
		glyph = glyphIncluded
		style = cellIncludedStyle
	}
	if pos == m.cursor {
		return cellCursorStyle.Render(glyph)
	}
	return style.Render(glyph)
}

package engine

import (
	"fmt"
	"strings"
)

// Board glyphs
const (
	GlyphPlayer    = 'P'
	GlyphBox       = 'B'
	GlyphGoal      = 'G'
	GlyphBoxOnGoal = '*'
	GlyphWall      = '-'
	GlyphFloor     = ' '
)

// CellGlyph returns the glyph shown for a single cell
func (e *GameEngine) CellGlyph(p Position) rune {
	st := e.current
	switch {
	case !st.grid.IsOccupiable(p.Row, p.Col):
		return GlyphWall
	case p == st.player:
		return GlyphPlayer
	case st.goalSet.Has(p) && st.boxSet.Has(p):
		return GlyphBoxOnGoal
	case st.goalSet.Has(p):
		return GlyphGoal
	case st.boxSet.Has(p):
		return GlyphBox
	default:
		return GlyphFloor
	}
}

// Board returns one glyph string per row, without any frame
func (e *GameEngine) Board() []string {
	rows := make([]string, 0, e.Rows())
	for r := 0; r < e.Rows(); r++ {
		var line strings.Builder
		for c := 0; c < e.Columns(); c++ {
			line.WriteRune(e.CellGlyph(Position{Row: r, Col: c}))
		}
		rows = append(rows, line.String())
	}
	return rows
}

// String renders the framed text view of the game
func (e *GameEngine) String() string {
	width := e.Columns()*2 + 3
	border := "+" + strings.Repeat("-", width-2) + "+"

	var b strings.Builder
	b.WriteString(border + "\n")
	fmt.Fprintf(&b, " LEVEL: %d\n", e.level)
	b.WriteString(titledBorder(" MAP ", width) + "\n")

	for _, row := range e.Board() {
		b.WriteString("| ")
		for _, glyph := range row {
			b.WriteRune(glyph)
			b.WriteByte(' ')
		}
		b.WriteString("|\n")
	}

	b.WriteString(border + "\n")
	fmt.Fprintf(&b, " MOVES: %d\n", e.current.moves)
	b.WriteString(border)
	return b.String()
}

// titledBorder centres title inside a border line of the given width
func titledBorder(title string, width int) string {
	inner := width - 2
	if len(title) >= inner {
		return "+" + strings.Repeat("-", inner) + "+"
	}
	left := (inner - len(title)) / 2
	right := inner - len(title) - left
	return "+" + strings.Repeat("-", left) + title + strings.Repeat("-", right) + "+"
}

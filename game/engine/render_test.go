package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderLevel() *LevelData {
	return &LevelData{
		Name:       "render",
		Rows:       3,
		Columns:    5,
		Occupiable: [][]bool{{false, false, false, false, false}, {false, true, true, true, false}, {false, false, false, false, false}},
		Goals:      []Position{pos(1, 3), pos(1, 2)},
		Boxes:      []Position{pos(1, 2), pos(1, 1)},
		Player:     pos(1, 3),
	}
}

func TestBoard(t *testing.T) {
	e, _ := newTestEngine(t, renderLevel())

	assert.Equal(t, []string{
		"-----",
		"-B*P-",
		"-----",
	}, e.Board())
}

func TestCellGlyph(t *testing.T) {
	e, _ := newTestEngine(t, openLevel([]Position{pos(3, 3), pos(0, 4)}, []Position{pos(3, 3), pos(2, 2)}, pos(1, 1)))

	assert.Equal(t, GlyphPlayer, e.CellGlyph(pos(1, 1)))
	assert.Equal(t, GlyphBoxOnGoal, e.CellGlyph(pos(3, 3)))
	assert.Equal(t, GlyphBox, e.CellGlyph(pos(2, 2)))
	assert.Equal(t, GlyphGoal, e.CellGlyph(pos(0, 4)))
	assert.Equal(t, GlyphFloor, e.CellGlyph(pos(4, 0)))
	assert.Equal(t, GlyphWall, e.CellGlyph(pos(5, 0)))
}

func TestString(t *testing.T) {
	e, _ := newTestEngine(t, renderLevel())

	out := e.String()
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 9)

	assert.Equal(t, "+-----------+", lines[0])
	assert.Equal(t, " LEVEL: 1", lines[1])
	assert.Equal(t, "+--- MAP ---+", lines[2])
	assert.Equal(t, "| - - - - - |", lines[3])
	assert.Equal(t, "| - B * P - |", lines[4])
	assert.Equal(t, "| - - - - - |", lines[5])
	assert.Equal(t, "+-----------+", lines[6])
	assert.Equal(t, " MOVES: 0", lines[7])
	assert.Equal(t, "+-----------+", lines[8])
}

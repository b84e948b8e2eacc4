package engine

import "fmt"

// GridMap is an immutable, validated snapshot of one level's layout
type GridMap struct {
	rows       int
	columns    int
	occupiable [][]bool
	goals      []Position
	boxes      []Position
	player     Position
}

// ValidateMap reports whether the given layout satisfies every map invariant
func ValidateMap(rows, columns int, occupiable [][]bool, goals, boxes []Position, player Position) bool {
	return CheckMap(rows, columns, occupiable, goals, boxes, player) == nil
}

// CheckMap validates a layout and describes the first invariant it violates
func CheckMap(rows, columns int, occupiable [][]bool, goals, boxes []Position, player Position) error {
	// Grid shape
	if rows <= MinDimension || columns <= MinDimension {
		return fmt.Errorf("%w: map must be larger than %dx%d, got %dx%d",
			ErrInvalidConfiguration, MinDimension, MinDimension, rows, columns)
	}
	if len(occupiable) != rows {
		return fmt.Errorf("%w: occupiable grid has %d rows, expected %d", ErrInvalidConfiguration, len(occupiable), rows)
	}
	for i, row := range occupiable {
		if len(row) != columns {
			return fmt.Errorf("%w: occupiable row %d has %d columns, expected %d",
				ErrInvalidConfiguration, i, len(row), columns)
		}
	}

	free := func(p Position) bool {
		return p.Row >= 0 && p.Row < rows && p.Col >= 0 && p.Col < columns && occupiable[p.Row][p.Col]
	}

	// Goals
	if len(goals) == 0 {
		return fmt.Errorf("%w: at least one goal is required", ErrInvalidConfiguration)
	}
	seenGoals := make(map[Position]bool, len(goals))
	for i, g := range goals {
		if !free(g) {
			return fmt.Errorf("%w: goal %d at %s is not an occupiable cell", ErrInvalidConfiguration, i, g)
		}
		if seenGoals[g] {
			return fmt.Errorf("%w: duplicate goal at %s", ErrInvalidConfiguration, g)
		}
		seenGoals[g] = true
	}

	// Boxes
	if len(boxes) == 0 {
		return fmt.Errorf("%w: at least one box is required", ErrInvalidConfiguration)
	}
	seenBoxes := make(map[Position]bool, len(boxes))
	for i, b := range boxes {
		if !free(b) {
			return fmt.Errorf("%w: box %d at %s is not an occupiable cell", ErrInvalidConfiguration, i, b)
		}
		if seenBoxes[b] {
			return fmt.Errorf("%w: duplicate box at %s", ErrInvalidConfiguration, b)
		}
		if b == player {
			return fmt.Errorf("%w: box %d shares the player cell %s", ErrInvalidConfiguration, i, b)
		}
		seenBoxes[b] = true
	}

	// Player
	if !free(player) {
		return fmt.Errorf("%w: player start %s is not an occupiable cell", ErrInvalidConfiguration, player)
	}

	if len(goals) != len(boxes) {
		return fmt.Errorf("%w: %d goals but %d boxes", ErrInvalidConfiguration, len(goals), len(boxes))
	}

	return nil
}

// NewGridMap validates the layout and returns a map that owns copies of every input
func NewGridMap(rows, columns int, occupiable [][]bool, goals, boxes []Position, player Position) (*GridMap, error) {
	if err := CheckMap(rows, columns, occupiable, goals, boxes, player); err != nil {
		return nil, err
	}

	return &GridMap{
		rows:       rows,
		columns:    columns,
		occupiable: copyGrid(occupiable),
		goals:      copyPositions(goals),
		boxes:      copyPositions(boxes),
		player:     player,
	}, nil
}

// NewGridMapFromLevel builds a GridMap from provider output
func NewGridMapFromLevel(data *LevelData) (*GridMap, error) {
	if data == nil {
		return nil, fmt.Errorf("%w: level data is nil", ErrInvalidConfiguration)
	}
	return NewGridMap(data.Rows, data.Columns, data.Occupiable, data.Goals, data.Boxes, data.Player)
}

// Rows returns the number of rows
func (m *GridMap) Rows() int {
	return m.rows
}

// Columns returns the number of columns
func (m *GridMap) Columns() int {
	return m.columns
}

// InBounds reports whether p lies inside the grid
func (m *GridMap) InBounds(p Position) bool {
	return p.Row >= 0 && p.Row < m.rows && p.Col >= 0 && p.Col < m.columns
}

// IsOccupiable reports whether the cell may hold the player or a box.
// Cells outside the grid are never occupiable.
func (m *GridMap) IsOccupiable(row, col int) bool {
	if !m.InBounds(Position{Row: row, Col: col}) {
		return false
	}
	return m.occupiable[row][col]
}

// InitialPlayer returns the player's start position
func (m *GridMap) InitialPlayer() Position {
	return m.player
}

// InitialBoxes returns a copy of the initial box positions
func (m *GridMap) InitialBoxes() []Position {
	return copyPositions(m.boxes)
}

// InitialGoals returns a copy of the goal positions
func (m *GridMap) InitialGoals() []Position {
	return copyPositions(m.goals)
}

// Occupiable returns a copy of the occupiable grid
func (m *GridMap) Occupiable() [][]bool {
	return copyGrid(m.occupiable)
}

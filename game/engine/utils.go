package engine

import "github.com/zyedidia/generic/mapset"

// copyPositions returns an independent copy of ps
func copyPositions(ps []Position) []Position {
	if ps == nil {
		return nil
	}
	out := make([]Position, len(ps))
	copy(out, ps)
	return out
}

// copyGrid deep-copies a 2D boolean grid
func copyGrid(grid [][]bool) [][]bool {
	out := make([][]bool, len(grid))
	for i, row := range grid {
		out[i] = make([]bool, len(row))
		copy(out[i], row)
	}
	return out
}

// positionSet builds a membership set from a slice of positions
func positionSet(ps []Position) mapset.Set[Position] {
	set := mapset.New[Position]()
	for _, p := range ps {
		set.Put(p)
	}
	return set
}

// CountBoxesOnGoals counts boxes that currently sit on a goal cell
func CountBoxesOnGoals(boxes, goals []Position) int {
	goalSet := positionSet(goals)
	count := 0
	for _, b := range boxes {
		if goalSet.Has(b) {
			count++
		}
	}
	return count
}

// ManhattanDistance calculates the Manhattan distance between two positions
func ManhattanDistance(from, to Position) int {
	dr := from.Row - to.Row
	if dr < 0 {
		dr = -dr
	}
	dc := from.Col - to.Col
	if dc < 0 {
		dc = -dc
	}
	return dr + dc
}

// ReachableCells returns every occupiable cell the player can walk to from start
// without pushing any box. Boxes are treated as obstacles.
func ReachableCells(m *GridMap, start Position, boxes []Position) []Position {
	if !m.IsOccupiable(start.Row, start.Col) {
		return nil
	}
	blocked := positionSet(boxes)
	visited := mapset.New[Position]()
	visited.Put(start)
	queue := []Position{start}
	var out []Position

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		out = append(out, current)

		for _, d := range AllDirections() {
			n := current.Step(d, 1)
			if !m.IsOccupiable(n.Row, n.Col) || blocked.Has(n) || visited.Has(n) {
				continue
			}
			visited.Put(n)
			queue = append(queue, n)
		}
	}
	return out
}

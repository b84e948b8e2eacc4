package solver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/zyedidia/generic/mapset"

	"github.com/wricardo/sokoban-game/game/engine"
)

var (
	ErrNoSolution  = errors.New("level has no solution")
	ErrSearchLimit = errors.New("search limit reached")
)

// DefaultLimit caps the number of distinct states explored by Solve
const DefaultLimit = 500000

type node struct {
	player engine.Position
	boxes  []engine.Position
	parent *node
	dir    engine.Direction
	depth  int
}

// Solve searches breadth-first for the shortest move sequence that puts every
// box on a goal. limit bounds the explored states; zero means DefaultLimit.
// Pushes into a non-goal corner are pruned.
func Solve(ctx context.Context, m *engine.GridMap, limit int) ([]engine.Direction, error) {
	return SolveFrom(ctx, m, m.InitialPlayer(), m.InitialBoxes(), limit)
}

// SolveFrom is Solve starting from an arbitrary player and box placement on m
func SolveFrom(ctx context.Context, m *engine.GridMap, player engine.Position, boxes []engine.Position, limit int) ([]engine.Direction, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	goals := mapset.New[engine.Position]()
	for _, g := range m.InitialGoals() {
		goals.Put(g)
	}
	if len(boxes) != goals.Size() {
		return nil, fmt.Errorf("%w: %d boxes for %d goals", engine.ErrInvalidConfiguration, len(boxes), goals.Size())
	}

	start := &node{player: player, boxes: sortedCopy(boxes)}
	if solved(start.boxes, goals) {
		return []engine.Direction{}, nil
	}

	visited := mapset.New[string]()
	visited.Put(key(start))
	queue := []*node{start}

	for expanded := 0; len(queue) > 0; expanded++ {
		if expanded%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		current := queue[0]
		queue = queue[1:]

		for _, dir := range engine.AllDirections() {
			next, ok := step(m, goals, current, dir)
			if !ok {
				continue
			}
			k := key(next)
			if visited.Has(k) {
				continue
			}
			if solved(next.boxes, goals) {
				return path(next), nil
			}
			if visited.Size() >= limit {
				return nil, fmt.Errorf("%w: %d states", ErrSearchLimit, limit)
			}
			visited.Put(k)
			queue = append(queue, next)
		}
	}
	return nil, ErrNoSolution
}

// step applies one move to n and returns the resulting node
func step(m *engine.GridMap, goals mapset.Set[engine.Position], n *node, dir engine.Direction) (*node, bool) {
	target := n.player.Step(dir, 1)
	if !m.IsOccupiable(target.Row, target.Col) {
		return nil, false
	}

	idx := indexOf(n.boxes, target)
	if idx < 0 {
		return &node{player: target, boxes: n.boxes, parent: n, dir: dir, depth: n.depth + 1}, true
	}

	beyond := n.player.Step(dir, 2)
	if !m.IsOccupiable(beyond.Row, beyond.Col) || indexOf(n.boxes, beyond) >= 0 {
		return nil, false
	}
	if !goals.Has(beyond) && IsDeadCorner(m, beyond) {
		return nil, false
	}

	boxes := make([]engine.Position, len(n.boxes))
	copy(boxes, n.boxes)
	boxes[idx] = beyond
	sortPositions(boxes)

	return &node{player: target, boxes: boxes, parent: n, dir: dir, depth: n.depth + 1}, true
}

// IsDeadCorner reports whether p is blocked both vertically and horizontally
func IsDeadCorner(m *engine.GridMap, p engine.Position) bool {
	blocked := func(d engine.Direction) bool {
		n := p.Step(d, 1)
		return !m.IsOccupiable(n.Row, n.Col)
	}
	return (blocked(engine.Up) || blocked(engine.Down)) && (blocked(engine.Left) || blocked(engine.Right))
}

func solved(boxes []engine.Position, goals mapset.Set[engine.Position]) bool {
	for _, b := range boxes {
		if !goals.Has(b) {
			return false
		}
	}
	return true
}

func path(n *node) []engine.Direction {
	moves := make([]engine.Direction, n.depth)
	for ; n.parent != nil; n = n.parent {
		moves[n.depth-1] = n.dir
	}
	return moves
}

func key(n *node) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d,%d", n.player.Row, n.player.Col)
	for _, p := range n.boxes {
		fmt.Fprintf(&b, "|%d,%d", p.Row, p.Col)
	}
	return b.String()
}

func indexOf(ps []engine.Position, p engine.Position) int {
	for i, q := range ps {
		if q == p {
			return i
		}
	}
	return -1
}

func sortedCopy(ps []engine.Position) []engine.Position {
	out := make([]engine.Position, len(ps))
	copy(out, ps)
	sortPositions(out)
	return out
}

func sortPositions(ps []engine.Position) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].Row != ps[j].Row {
			return ps[i].Row < ps[j].Row
		}
		return ps[i].Col < ps[j].Col
	})
}

// LevelFromState rebuilds level data from a game state snapshot so a game in
// progress can be solved from where it stands
func LevelFromState(state *engine.GameState) (*engine.LevelData, error) {
	if state == nil {
		return nil, fmt.Errorf("%w: state is nil", engine.ErrInvalidConfiguration)
	}
	if len(state.Board) != state.Rows {
		return nil, fmt.Errorf("%w: board has %d rows, expected %d", engine.ErrInvalidConfiguration, len(state.Board), state.Rows)
	}

	occupiable := make([][]bool, state.Rows)
	for r, line := range state.Board {
		glyphs := []rune(line)
		if len(glyphs) != state.Columns {
			return nil, fmt.Errorf("%w: board row %d has %d columns, expected %d",
				engine.ErrInvalidConfiguration, r, len(glyphs), state.Columns)
		}
		occupiable[r] = make([]bool, state.Columns)
		for c, g := range glyphs {
			occupiable[r][c] = g != engine.GlyphWall
		}
	}

	return &engine.LevelData{
		Name:       state.LevelName,
		Rows:       state.Rows,
		Columns:    state.Columns,
		Occupiable: occupiable,
		Goals:      state.Goals,
		Boxes:      state.Boxes,
		Player:     state.Player,
	}, nil
}

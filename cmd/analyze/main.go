// Command analyze prints quick, human-readable heuristics about the level packs
// in a level directory. For every level it summarizes dimensions, box and goal
// counts, how much of the floor the player can walk to at the start, corner
// cells a box can never leave, a lower bound on the pushes needed, and the
// length of the shortest solution.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/wricardo/sokoban-game/game/engine"
	"github.com/wricardo/sokoban-game/game/levels"
	"github.com/wricardo/sokoban-game/game/solver"
)

// LevelAnalysis holds the heuristics computed for a single level.
type LevelAnalysis struct {
	Name           string
	Rows, Columns  int
	Boxes, Goals   int
	BoxesOnGoals   int
	FloorCells     int
	ReachableCells int
	// DeadCorners are non-goal floor cells enclosed on two perpendicular sides
	DeadCorners []engine.Position
	// StuckBoxes are boxes that start in a dead corner
	StuckBoxes []engine.Position
	// PushLowerBound sums each box's Manhattan distance to its nearest goal
	PushLowerBound int
	// SolutionMoves is the length of the shortest solution, -1 when none was
	// found within the search limit
	SolutionMoves int
	SolveErr      error
}

// solveLimit keeps the analysis quick on large levels
const solveLimit = 200000

func main() {
	dir := "levels"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	if err := analyzeDir(os.Stdout, dir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func analyzeDir(out io.Writer, dir string) error {
	manager, err := levels.NewManager(dir)
	if err != nil {
		return err
	}

	infos, err := manager.ListPacks()
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Fprintf(out, "No packs found in %s\n", dir)
		return nil
	}

	for _, info := range infos {
		pack, err := manager.LoadPack(info.PackID)
		if err != nil {
			fmt.Fprintf(out, "\n=== %s ===\nError loading pack: %v\n", info.Filename, err)
			continue
		}
		fmt.Fprintf(out, "\n=== Analyzing %s (%s) ===\n", info.Filename, pack.Name)
		for n := 1; n <= pack.LevelCount(); n++ {
			data, err := pack.Level(n)
			if err != nil {
				fmt.Fprintf(out, "Level %d: %v\n", n, err)
				continue
			}
			a, err := analyzeLevel(data)
			if err != nil {
				fmt.Fprintf(out, "Level %d: %v\n", n, err)
				continue
			}
			printAnalysis(out, n, a)
		}
	}
	return nil
}

func analyzeLevel(data *engine.LevelData) (*LevelAnalysis, error) {
	m, err := engine.NewGridMapFromLevel(data)
	if err != nil {
		return nil, err
	}

	boxes := m.InitialBoxes()
	goals := m.InitialGoals()
	isGoal := make(map[engine.Position]bool, len(goals))
	for _, g := range goals {
		isGoal[g] = true
	}

	a := &LevelAnalysis{
		Name:           data.Name,
		Rows:           m.Rows(),
		Columns:        m.Columns(),
		Boxes:          len(boxes),
		Goals:          len(goals),
		BoxesOnGoals:   engine.CountBoxesOnGoals(boxes, goals),
		ReachableCells: len(engine.ReachableCells(m, m.InitialPlayer(), boxes)),
	}

	dead := make(map[engine.Position]bool)
	for row := 0; row < m.Rows(); row++ {
		for col := 0; col < m.Columns(); col++ {
			if !m.IsOccupiable(row, col) {
				continue
			}
			a.FloorCells++
			p := engine.Position{Row: row, Col: col}
			if !isGoal[p] && solver.IsDeadCorner(m, p) {
				dead[p] = true
				a.DeadCorners = append(a.DeadCorners, p)
			}
		}
	}

	for _, b := range boxes {
		if dead[b] {
			a.StuckBoxes = append(a.StuckBoxes, b)
		}
		nearest := -1
		for _, g := range goals {
			if d := engine.ManhattanDistance(b, g); nearest < 0 || d < nearest {
				nearest = d
			}
		}
		a.PushLowerBound += nearest
	}

	a.SolutionMoves = -1
	if moves, err := solver.Solve(context.Background(), m, solveLimit); err != nil {
		a.SolveErr = err
	} else {
		a.SolutionMoves = len(moves)
	}

	return a, nil
}

func printAnalysis(out io.Writer, n int, a *LevelAnalysis) {
	fmt.Fprintf(out, "Level %d: %s\n", n, a.Name)
	fmt.Fprintf(out, "  Grid: %d x %d\n", a.Rows, a.Columns)
	fmt.Fprintf(out, "  Boxes: %d, Goals: %d, Boxes on goals: %d\n", a.Boxes, a.Goals, a.BoxesOnGoals)
	fmt.Fprintf(out, "  Reachable floor: %d/%d\n", a.ReachableCells, a.FloorCells)
	fmt.Fprintf(out, "  Dead corners: %d\n", len(a.DeadCorners))
	fmt.Fprintf(out, "  Push lower bound: %d\n", a.PushLowerBound)
	switch {
	case a.SolveErr == nil:
		fmt.Fprintf(out, "  Shortest solution: %d moves\n", a.SolutionMoves)
	case errors.Is(a.SolveErr, solver.ErrSearchLimit):
		fmt.Fprintf(out, "  Shortest solution: not found within %d states\n", solveLimit)
	default:
		fmt.Fprintf(out, "  ⚠️  CRITICAL: %v\n", a.SolveErr)
	}

	if len(a.StuckBoxes) > 0 {
		fmt.Fprintf(out, "  ⚠️  CRITICAL: %d boxes start in a dead corner!\n", len(a.StuckBoxes))
		for _, b := range a.StuckBoxes {
			fmt.Fprintf(out, "     Stuck box: %s\n", b)
		}
	} else {
		fmt.Fprintf(out, "  ✅ No box starts in a dead corner\n")
	}
}

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/sokoban-game/game/engine"
	"github.com/wricardo/sokoban-game/game/levels"
	"github.com/wricardo/sokoban-game/game/solver"
)

func parseLevel(t *testing.T, layout ...string) *engine.LevelData {
	t.Helper()
	data, err := levels.ParseLayout("test", layout)
	if err != nil {
		t.Fatalf("Failed to parse layout: %v", err)
	}
	return data
}

func TestAnalyzeLevel_MinimalPack(t *testing.T) {
	data, err := levels.MinimalPack().Level(1)
	if err != nil {
		t.Fatalf("Failed to load level: %v", err)
	}

	a, err := analyzeLevel(data)
	if err != nil {
		t.Fatalf("analyzeLevel failed: %v", err)
	}

	if a.Rows != 5 || a.Columns != 5 {
		t.Errorf("Expected 5x5 grid, got %dx%d", a.Rows, a.Columns)
	}
	if a.Boxes != 1 || a.Goals != 1 || a.BoxesOnGoals != 0 {
		t.Errorf("Unexpected counts: boxes=%d goals=%d on=%d", a.Boxes, a.Goals, a.BoxesOnGoals)
	}
	if a.FloorCells != 9 {
		t.Errorf("Expected 9 floor cells, got %d", a.FloorCells)
	}
	// The box blocks its own cell
	if a.ReachableCells != 8 {
		t.Errorf("Expected 8 reachable cells, got %d", a.ReachableCells)
	}
	if len(a.DeadCorners) != 4 {
		t.Errorf("Expected 4 dead corners, got %v", a.DeadCorners)
	}
	if len(a.StuckBoxes) != 0 {
		t.Errorf("Expected no stuck boxes, got %v", a.StuckBoxes)
	}
	if a.PushLowerBound != 1 {
		t.Errorf("Expected push lower bound 1, got %d", a.PushLowerBound)
	}
	if a.SolutionMoves != 1 || a.SolveErr != nil {
		t.Errorf("Expected a 1 move solution, got %d (%v)", a.SolutionMoves, a.SolveErr)
	}
}

func TestAnalyzeLevel_StuckBox(t *testing.T) {
	a, err := analyzeLevel(parseLevel(t,
		"#####",
		"#$@.#",
		"#####",
	))
	if err != nil {
		t.Fatalf("analyzeLevel failed: %v", err)
	}

	stuck := engine.Position{Row: 1, Col: 1}
	if len(a.StuckBoxes) != 1 || a.StuckBoxes[0] != stuck {
		t.Errorf("Expected stuck box at %s, got %v", stuck, a.StuckBoxes)
	}
	if len(a.DeadCorners) != 1 {
		t.Errorf("Expected goal corner to be excluded, got %v", a.DeadCorners)
	}
	if a.ReachableCells != 2 {
		t.Errorf("Expected 2 reachable cells, got %d", a.ReachableCells)
	}
	if a.PushLowerBound != 2 {
		t.Errorf("Expected push lower bound 2, got %d", a.PushLowerBound)
	}
	if !errors.Is(a.SolveErr, solver.ErrNoSolution) || a.SolutionMoves != -1 {
		t.Errorf("Expected no solution, got %d (%v)", a.SolutionMoves, a.SolveErr)
	}
}

func TestAnalyzeDir(t *testing.T) {
	dir := t.TempDir()
	pack := `{"name": "Stuck", "levels": [{"name": "Cornered", "layout": ["#####", "#$@.#", "#####"]}]}`
	if err := os.WriteFile(filepath.Join(dir, "stuck.json"), []byte(pack), 0644); err != nil {
		t.Fatalf("Failed to write pack: %v", err)
	}

	var out bytes.Buffer
	if err := analyzeDir(&out, dir); err != nil {
		t.Fatalf("analyzeDir failed: %v", err)
	}

	text := out.String()
	for _, want := range []string{"=== Analyzing stuck.json (Stuck) ===", "Level 1: Cornered", "Stuck box: (1,1)", "level has no solution"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in output:\n%s", want, text)
		}
	}
}

func TestAnalyzeDir_Empty(t *testing.T) {
	var out bytes.Buffer
	if err := analyzeDir(&out, t.TempDir()); err != nil {
		t.Fatalf("analyzeDir failed: %v", err)
	}
	if !strings.Contains(out.String(), "No packs found") {
		t.Errorf("Unexpected output: %s", out.String())
	}
}

func TestAnalyzeDir_Missing(t *testing.T) {
	var out bytes.Buffer
	if err := analyzeDir(&out, filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Expected error for missing directory")
	}
}

func TestAnalyzeShippedPacks(t *testing.T) {
	var out bytes.Buffer
	if err := analyzeDir(&out, filepath.Join("..", "..", "levels")); err != nil {
		t.Fatalf("analyzeDir failed: %v", err)
	}
	if !strings.Contains(out.String(), "Shortest solution: 33 moves") {
		t.Errorf("Expected Corner store solution length in output:\n%s", out.String())
	}
	if strings.Contains(out.String(), "CRITICAL") {
		t.Errorf("Shipped levels should not start with stuck boxes:\n%s", out.String())
	}
}

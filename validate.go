package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/sokoban-game/game/engine"
	"github.com/wricardo/sokoban-game/game/levels"
)

// ValidationResult captures the outcome of validating a single pack file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// validatePackFile decodes a pack file and checks every level. Decoding covers
// the schema and map invariants; the connectivity check runs on top of that.
func validatePackFile(path string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(path),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	pack, err := levels.DecodePack(path, data)
	if err != nil {
		result.fail("%v", err)
		return result
	}

	for n := 1; n <= pack.LevelCount(); n++ {
		level, err := pack.Level(n)
		if err != nil {
			result.fail("Level %d: %v", n, err)
			continue
		}
		conn := validateConnectivity(level)
		for _, msg := range conn.Errors {
			result.Errors = append(result.Errors, fmt.Sprintf("Level %d (%s): %s", n, level.Name, msg))
		}
		if !conn.Valid {
			result.Valid = false
		}
	}

	if result.Valid {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ %s: %d levels", pack.Name, pack.LevelCount()))
	}
	return result
}

// validateConnectivity ensures every box and goal lies in the floor region the
// player starts in. Boxes are ignored while flooding since they can be pushed.
func validateConnectivity(level *engine.LevelData) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	m, err := engine.NewGridMapFromLevel(level)
	if err != nil {
		result.fail("%v", err)
		return result
	}

	region := make(map[engine.Position]bool)
	for _, p := range engine.ReachableCells(m, m.InitialPlayer(), nil) {
		region[p] = true
	}

	unreachable := 0
	for _, b := range m.InitialBoxes() {
		if !region[b] {
			unreachable++
			result.fail("Unreachable: box at %s", b)
		}
	}
	for _, g := range m.InitialGoals() {
		if !region[g] {
			unreachable++
			result.fail("Unreachable: goal at %s", g)
		}
	}

	if unreachable == 0 && engine.CountBoxesOnGoals(m.InitialBoxes(), m.InitialGoals()) == len(m.InitialGoals()) {
		result.Errors = append(result.Errors, "Warning: level starts solved")
	}
	return result
}

// packFiles lists every pack file in dir, sorted by name
func packFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && levels.IsPackFile(entry.Name()) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// validateFiles prints a report for each file and returns how many were invalid
func validateFiles(out io.Writer, files []string) int {
	invalid := 0
	for _, file := range files {
		result := validatePackFile(file)
		status := "OK"
		if !result.Valid {
			status = "INVALID"
			invalid++
		}
		fmt.Fprintf(out, "%s: %s\n", result.File, status)
		for _, msg := range result.Errors {
			fmt.Fprintf(out, "  %s\n", msg)
		}
	}
	fmt.Fprintf(out, "\n%d/%d pack files valid\n", len(files)-invalid, len(files))
	return invalid
}

func validateAction(ctx context.Context, cmd *cli.Command) error {
	files := cmd.Args().Slice()
	if len(files) == 0 {
		var err error
		files, err = packFiles(cmd.String("level-dir"))
		if err != nil {
			return cli.Exit(fmt.Sprintf("Failed to list level directory: %v", err), 1)
		}
	}
	if len(files) == 0 {
		return cli.Exit("No pack files found", 1)
	}

	if invalid := validateFiles(os.Stdout, files); invalid > 0 {
		return cli.Exit(fmt.Sprintf("%d pack files invalid", invalid), 1)
	}
	return nil
}

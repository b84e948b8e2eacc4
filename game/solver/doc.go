// Package solver finds move sequences that complete Sokoban levels.
//
// Solve runs a breadth-first search over player and box placements, so the
// first solution found has the fewest moves. Pushes into non-goal corners are
// pruned and the number of explored states is capped.
//
// Usage:
//
//	m, err := engine.NewGridMapFromLevel(data)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	moves, err := solver.Solve(ctx, m, 0)
//	if errors.Is(err, solver.ErrSearchLimit) {
//		// too large to solve exhaustively
//	}
//
// LevelFromState rebuilds level data from a GameState snapshot so a game in
// progress can be solved from its current placement.
package solver

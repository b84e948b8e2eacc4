// Package engine provides the rules core of the Sokoban box-pushing puzzle.
//
// The engine package implements:
//   - Map validation (GridMap) and immutable level layouts
//   - Single-step player movement with the box push rule
//   - Level completion and termination checks
//   - Level transitions and restarts driven by a LevelProvider
//   - A framed text rendering of the current state
//
// Core Types:
//
// GridMap is an immutable, validated snapshot of one level. GameEngine holds
// the mutable state of a game (player, boxes, move count, level) and
// implements the Engine interface. GameState is the serializable snapshot
// handed to presentation layers.
//
// Usage:
//
//	pack, err := levels.ParsePack(data)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	game, err := engine.NewEngine(pack)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := game.Move(engine.Down)
//	if game.LevelCompleted() && !game.IsTerminated() {
//		err = game.LoadNextLevel()
//	}
//
// Game Rules:
//
// The player walks on occupiable cells. Walking into a box pushes it one cell
// further in the same direction when that cell is occupiable and holds no
// other box; otherwise nothing moves. A level is completed when every goal
// holds exactly one box. Completing the last level terminates the game.
//
// Rejected moves are not errors: they only update the last direction.
// Calling Move on a completed level, or LoadNextLevel before completion,
// returns ErrInvalidOperation. Invalid layouts are reported as
// ErrInvalidConfiguration.
//
// A GameEngine is not safe for concurrent use; callers that share one
// across goroutines must serialize access.
package engine

// Package service provides the business logic layer for the Sokoban game server.
//
// The service package implements:
//   - Multi-session game management
//   - Level pack selection and storage
//   - Single and bulk move processing with per-step traces
//   - Level restarts and transitions
//   - Move history pagination
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// PackManager loads, lists and stores level packs.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. Each session owns its own engine instance. Engines are not
// safe for concurrent use, so every service method holds the service lock for
// the whole engine call.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	packMgr, err := levels.NewManager("levels")
//	if err != nil {
//		log.Fatal(err)
//	}
//	gameService := service.NewGameService(sessionMgr, packMgr)
//
//	// Create a new session on the classic pack
//	sessionInfo, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Execute moves
//	result, err := gameService.BulkMove(ctx, sessionInfo.ID, []string{"up", "up", "left"}, false)
//
// Bulk Moves:
//
// A bulk move executes at most engine.MaxBulkMoves moves and stops at the first
// blocked move, at an unknown direction, or as soon as the level is completed.
// The stop is reported as a machine-friendly code: blocked_boundary,
// blocked_wall, blocked_box, level_completed or invalid_direction.
package service

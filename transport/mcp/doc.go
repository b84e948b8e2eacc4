// Package mcp exposes the Sokoban game to AI agents over the Model Context Protocol.
//
// Client registers its tools on a mark3labs/mcp-go server and answers every
// call by forwarding it to the REST API, so an MCP agent and a browser on the
// same session see the same game and WebSocket clients are notified of
// agent moves.
//
// Tools:
//   - create_session, list_sessions, get_session
//   - game_state, describe_cell
//   - move, bulk_move, restart_level, next_level
//   - move_history, list_packs, game_instructions
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//
//	// stdio
//	server.ServeStdio(client.GetMCPServer())
//
//	// or answer JSON-RPC posted to /mcp
//	resp := client.GetMCPServer().HandleMessage(ctx, body)
package mcp

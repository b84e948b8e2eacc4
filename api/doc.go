// Package api provides the HTTP REST API for the Sokoban server.
//
// Endpoints:
//
// Sessions:
//   - POST   /api/sessions              create a session, body {"pack_id": "classic"} (optional)
//   - GET    /api/sessions              list sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET    /api/sessions/unified      several sessions at once (?sessionIds=a,b or ?packId=classic)
//   - GET    /api/sessions/{id}         session info with game state
//   - DELETE /api/sessions/{id}         delete a session
//
// Game operations:
//   - GET  /api/sessions/{id}/state      JSON game state
//   - GET  /api/sessions/{id}/render     framed text board (text/plain)
//   - POST /api/sessions/{id}/move       {"direction": "up", "restart": false}
//   - POST /api/sessions/{id}/bulk-move  {"moves": ["up","left"], "restart": false}
//   - POST /api/sessions/{id}/restart    restart the current level
//   - POST /api/sessions/{id}/next-level advance after completing a level
//   - GET  /api/sessions/{id}/history    paginated move history (?page&limit&order)
//
// Level packs:
//   - GET  /api/packs          list packs in the level directory
//   - POST /api/packs          save a pack, body is a pack document plus optional "pack_id"
//   - GET  /api/packs/{name}   load one pack
//
// Other:
//   - GET /api/health
//   - GET /ws?session=<id>     WebSocket upgrade, see package websocket
//
// Errors are JSON objects {"error": "..."} with the status chosen from the
// wrapped sentinel: unknown session or pack is 404, a bad direction or body
// is 400, moving on a completed level or advancing too early is 409, and an
// unplayable pack is 422.
//
// Move responses carry a step record:
//
//	{"idx":1,"dir":"down","from":{"row":1,"col":2},"to":{"row":2,"col":2},
//	 "outcome":"pushed","box_from":{"row":2,"col":2},"box_to":{"row":3,"col":2},"success":true}
//
// Bulk move responses add requested_moves, moves_executed, stop_reason_code
// (blocked_boundary, blocked_wall, blocked_box, level_completed,
// invalid_direction), stopped_on_move, the per-step trace and possible_moves.
//
// Every mutating call pushes the new state to WebSocket clients of the session.
package api

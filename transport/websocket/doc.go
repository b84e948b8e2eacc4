// Package websocket pushes live Sokoban game state to browser and bot clients.
//
// A single Hub owns every connection. Clients attach to one session through
// the /ws?session=<id> endpoint and receive a JSON Message whenever that
// session's state changes:
//
//	{"session_id":"ab12","event":"state_update","game_state":{...}}
//
// The first message on a new connection carries the "connected" event and
// the state at the time of connecting. Incoming client frames are read only
// to keep the connection alive; all moves go through the REST API.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	// after a move
//	hub.BroadcastToSession(sessionID, state)
//
// Concurrency:
//
// Registration, unregistration and fan-out all run on the Run goroutine.
// BroadcastToSession never blocks; when the queue is full the update is
// dropped and logged. Clients that cannot keep up are disconnected.
package websocket

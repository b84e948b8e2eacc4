// Package session keeps the live Sokoban games played through the server.
//
// Manager stores one service.Session per ID. Each session owns its own
// engine.GameEngine and the level pack it was started from, plus creation
// and last access timestamps used for expiry.
//
// Session Identifiers:
//
// IDs are matched case-insensitively. When the caller does not supply one,
// the manager generates a random 4-character hex ID and retries on
// collision while holding the write lock, so two concurrent creations can
// never receive the same ID.
//
// Usage:
//
//	manager := session.NewManager()
//
//	sess, err := manager.Create("", pack)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sess.ID)
//
//	// Drop sessions idle for a day
//	removed := manager.CleanupExpiredSessions(24 * time.Hour)
//
// Sessions live in memory only and are lost when the process exits.
package session

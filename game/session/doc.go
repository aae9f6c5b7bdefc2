// Package session provides session management for Tiletris.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Runner lifecycle: every stored session has a started runner, and
//     removing a session stops it
//   - File persistence of the complete game, pending resolutions included
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// A session (service.Session) owns a runner.Runner, which in turn owns the
// game engine. Nothing outside the runner touches the engine.
//
// Session Identifiers:
//
// Generated IDs are 4 hex characters from crypto/rand. Callers may also pick
// their own ID. Lookups ignore case and persisted files are named by the
// lowercase ID.
//
// Hooks:
//
// SetHooks installs a factory that builds runner hooks per session. It is
// applied to live sessions, to sessions created later, and to sessions
// loaded from persistence.
//
// Usage:
//
//	persistence, _ := session.NewFilePersistence("sessions", configManager)
//	manager := session.NewManagerWithPersistence(persistence)
//	defer manager.Close()
//
//	sess, err := manager.Create("", config, service.WithConfigID("classic"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	changed, state, err := sess.Runner.Exec(engine.CommandDrop)
package session

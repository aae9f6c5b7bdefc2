// Package websocket provides WebSocket transport for Tiletris.
//
// Architecture:
//
// A central Hub manages all WebSocket connections. Each client connection
// runs a read pump and a write pump goroutine. Broadcasts are queued on a
// buffered channel and never block the caller, which matters because they
// are issued from session runner goroutines.
//
// Message Protocol:
//
// Outgoing messages are JSON documents, one per frame:
//   - {"event":"state_update","session_id":"ab12","game_state":{...}}
//   - {"event":"resolution","session_id":"ab12","data":{...}}
//   - {"event":"game_over","session_id":"ab12","data":{"score":12,...}}
//   - {"event":"error","session_id":"ab12","data":"..."}
//
// Incoming frames carry a command: {"command":"left"}. Any name or alias the
// engine accepts works.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//
//	hub.ServeWS(w, r, sessionID, func(id, cmd string) error {
//		_, err := gameService.Command(ctx, id, cmd)
//		return err
//	})
package websocket

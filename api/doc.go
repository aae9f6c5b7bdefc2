// Package api provides HTTP REST API handlers for Tiletris.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a session {config_id, player_id}
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get a session
//   - DELETE /api/sessions/{id} - Delete a session
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current game state
//   - GET /api/sessions/{id}/placements - Where the falling piece can settle
//   - POST /api/sessions/{id}/command - {"command": "left|right|down|rotate|drop|tick"}
//   - POST /api/sessions/{id}/commands - {"commands": [...], "reset": false}
//   - POST /api/sessions/{id}/reset
//   - POST /api/sessions/{id}/pause and /resume - Stop and restart automatic descent
//
// Scores:
//   - POST /api/sessions/{id}/score - {"username": "ada"}, finished games only
//   - GET /api/rankings?limit=N
//   - GET /api/players/{uid}
//
// Configuration and Tiles:
//   - GET /api/configs, POST /api/configs (?config_id=name), GET /api/configs/{name}
//   - GET /api/catalog?config=name
//   - GET /api/tiles/{kind}
//
// Other:
//   - GET /ws?session={id} - WebSocket updates, see package websocket
//   - GET /health
//
// Error Handling:
//
// Errors are returned as JSON with the HTTP status:
//
//	{
//	  "error": "error message",
//	  "code": 404
//	}
//
// Unknown commands, missing usernames, zero scores and invalid configs are
// 400. Submissions that are not a personal best, or that come before the game
// settled, are 409. Anything not found is 404.
//
// Bulk Commands (POST /api/sessions/{id}/commands)
//
// Commands run in order and stop at the first unknown command, the first
// command with no effect, or the end of the game. The response carries
// requested_commands, commands_executed, stop_reason_code
// (blocked|unknown_command|game_over), stopped_on_command (1-based),
// truncated and limit, start/end score, placements and per-command steps.
package api

// Package mcp exposes Tiletris to AI agents over the Model Context Protocol.
//
// The Client is a thin proxy: every tool call becomes a request to the REST
// API (see package api) and the JSON response is rendered as text an agent
// can read.
//
// MCP Tools:
//   - create_session, list_sessions, get_session
//   - game_state: Board drawing plus the rotated edges of every settled tile
//   - command: One command, with an intent explanation
//   - bulk_commands: Up to 50 commands, stopping at the first with no effect
//   - placement_options: Legal landing spots with the commands to reach them
//   - reset_game
//   - submit_score, rankings
//   - list_configs, describe_tile, game_instructions
//
// Transport Modes:
//
// The server runs either over stdio or behind the HTTP /mcp endpoint that
// main wires up.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp

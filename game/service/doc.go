// Package service provides the business logic layer for Tiletris.
//
// The service package implements:
//   - Multi-session game management
//   - Command parsing, single and bulk
//   - Score recording, submission and rankings
//   - Tile catalog descriptions
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, persistence and hooks.
// ConfigManager manages game configuration loading and validation.
// Notifier pushes state updates and events to connected clients.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the session runners. Every engine call goes through its session's runner, so
// commands, ticks and delayed resolutions never race. The service installs
// runner hooks on every session; they log, broadcast and record finished games
// but never call back into the runner.
//
// Usage:
//
//	hub := websocket.NewHub()
//	gameService := service.NewGameService(sessionMgr, configMgr,
//		service.WithNotifier(hub),
//		service.WithScores(scores.NewService(store)))
//
//	info, err := gameService.CreateSession(ctx, "classic", "player-1")
//	if err != nil {
//		log.Fatal(err)
//	}
//	result, err := gameService.BulkCommands(ctx, info.ID, []string{"rotate", "left", "drop"}, false)
package service

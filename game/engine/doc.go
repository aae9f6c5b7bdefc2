// Package engine provides the core game logic for Tiletris, a falling-tile
// puzzle with edge matching.
//
// The engine package implements the game mechanics including:
//   - The tile catalog with weighted random draws and edge rotation
//   - Board geometry, gravity and placement validation
//   - City completion through the feature graph and surrounded monasteries
//   - The falling piece state machine with deferred cascade resolution
//   - Configuration loading (JSON or YAML) and validation
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. Board holds settled tiles, PlacementValidator
// decides legality, and CascadeResolver runs completion, removal and gravity
// after each placement. GameState is a read-only snapshot; SavedGame carries
// everything needed to continue a game later.
//
// Usage:
//
//	config, err := engine.LoadConfigByName("classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine.RotateClockwise()
//	gameEngine.Drop()
//	state := gameEngine.GetState()
//
// Timing:
//
// Without a Scheduler every resolution runs synchronously right after its
// placement. With one, a placement that completes something waits
// resolve_delay_ms before its resolution applies, while the next piece keeps
// falling on the unresolved board. Resolutions always apply in placement
// order, and a reset discards any that are still pending.
//
// Game Rules:
//
// A tile may only settle where each of its edges agrees with the facing edge
// of every settled neighbor. A city whose open edges are all matched is
// removed and scores twice its size (tiles plus shields). A monastery whose
// eight neighbors are all occupied clears its 3x3 block for 9 points. The
// game ends when a piece cannot settle or a new piece cannot appear.
package engine

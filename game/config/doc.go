// Package config provides configuration management for Tiletris.
//
// The config package handles:
//   - Loading game configurations from JSON or YAML files
//   - Default configuration management
//   - Configuration discovery and listing
//   - Saving configurations back to disk
//
// Configuration Format:
//
// Game configurations live in the configs directory. The file name without
// its extension is the config ID used to create sessions. Each configuration
// defines the board size, the spawn column, descent and resolution timing,
// tile weight overrides, scoring rules and player messages. See
// engine.GameConfig for the full field list.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Load a specific configuration
//	gameConfig, err := manager.LoadConfig("monastery")
//
//	// Get default configuration
//	defaultConfig := manager.GetDefault()
//
//	// List available configurations
//	configs, err := manager.ListConfigs()
//
// When the directory holds no usable configuration the manager falls back to
// engine.DefaultGameConfig.
package config

package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wricardo/mcp-training/tiletris/game/feature"
	"gopkg.in/yaml.v3"
)

// ScoringRules sets the points awarded by a cascade. A feature kind with a
// zero multiplier never gets features instantiated.
type ScoringRules struct {
	CityMultiplier int `json:"city_multiplier" yaml:"city_multiplier"`
	SpecialBonus   int `json:"special_bonus" yaml:"special_bonus"`
	RoadMultiplier int `json:"road_multiplier,omitempty" yaml:"road_multiplier,omitempty"`
}

// Multiplier returns the points per size unit of a completed region of kind
func (r ScoringRules) Multiplier(kind feature.Kind) int {
	switch kind {
	case feature.City:
		return r.CityMultiplier
	case feature.Road:
		return r.RoadMultiplier
	}
	return 0
}

// Kinds lists the feature kinds that score, cities first
func (r ScoringRules) Kinds() []feature.Kind {
	var kinds []feature.Kind
	if r.CityMultiplier > 0 {
		kinds = append(kinds, feature.City)
	}
	if r.RoadMultiplier > 0 {
		kinds = append(kinds, feature.Road)
	}
	return kinds
}

// GameMessages are the player-facing texts of a configuration
type GameMessages struct {
	Welcome          string `json:"welcome" yaml:"welcome"`
	CityCompleted    string `json:"city_completed" yaml:"city_completed"`
	SpecialCompleted string `json:"special_completed" yaml:"special_completed"`
	GameOver         string `json:"game_over" yaml:"game_over"`
}

// GameConfig represents a game configuration loaded from JSON or YAML
type GameConfig struct {
	Name           string           `json:"name" yaml:"name"`
	Description    string           `json:"description" yaml:"description"`
	BoardWidth     int              `json:"board_width" yaml:"board_width"`
	BoardHeight    int              `json:"board_height" yaml:"board_height"`
	SpawnColumn    *int             `json:"spawn_column,omitempty" yaml:"spawn_column,omitempty"`
	TickIntervalMs int              `json:"tick_interval_ms" yaml:"tick_interval_ms"`
	ResolveDelayMs int              `json:"resolve_delay_ms" yaml:"resolve_delay_ms"`
	Seed           uint64           `json:"seed,omitempty" yaml:"seed,omitempty"`
	TileWeights    map[TileKind]int `json:"tile_weights,omitempty" yaml:"tile_weights,omitempty"`
	Scoring        ScoringRules     `json:"scoring" yaml:"scoring"`
	Messages       GameMessages     `json:"messages" yaml:"messages"`
}

// DefaultGameConfig returns the classic 8x8 ruleset
func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		Name:           "classic",
		Description:    "Classic 8x8 board, cities score twice their size, surrounded monasteries score 9",
		BoardWidth:     DefaultBoardSize,
		BoardHeight:    DefaultBoardSize,
		TickIntervalMs: DefaultTickInterval,
		ResolveDelayMs: DefaultResolveDelay,
		Scoring: ScoringRules{
			CityMultiplier: DefaultCityMultiplier,
			SpecialBonus:   DefaultSpecialBonus,
		},
		Messages: GameMessages{
			Welcome:          "Match city edges to complete cities. Surround a monastery to clear it.",
			CityCompleted:    "City completed! +%d",
			SpecialCompleted: "Monastery surrounded! +%d",
			GameOver:         "Game over! Final score: %d",
		},
	}
}

// Spawn returns the column new pieces appear in
func (c *GameConfig) Spawn() int {
	if c.SpawnColumn != nil {
		return *c.SpawnColumn
	}
	return c.BoardWidth / 2
}

// TickInterval is the automatic descent period
func (c *GameConfig) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

// ResolveDelay is the wait between a placement that completes something and
// its resolution
func (c *GameConfig) ResolveDelay() time.Duration {
	return time.Duration(c.ResolveDelayMs) * time.Millisecond
}

// Catalog returns the default catalog with this configuration's weight
// overrides applied
func (c *GameConfig) Catalog() (*Catalog, error) {
	catalog, err := DefaultCatalog().WithWeights(c.TileWeights)
	if err != nil {
		return nil, err
	}
	if catalog.TotalWeight() <= 0 {
		return nil, fmt.Errorf("tile_weights leave no drawable tile")
	}
	return catalog, nil
}

// ValidateGameConfig validates a game configuration for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	if config.BoardWidth < MinBoardSize || config.BoardWidth > MaxBoardSize {
		return fmt.Errorf("config validation: board_width must be between %d and %d, got %d", MinBoardSize, MaxBoardSize, config.BoardWidth)
	}
	if config.BoardHeight < MinBoardSize || config.BoardHeight > MaxBoardSize {
		return fmt.Errorf("config validation: board_height must be between %d and %d, got %d", MinBoardSize, MaxBoardSize, config.BoardHeight)
	}
	if config.SpawnColumn != nil && (*config.SpawnColumn < 0 || *config.SpawnColumn >= config.BoardWidth) {
		return fmt.Errorf("config validation: spawn_column must be between 0 and %d, got %d", config.BoardWidth-1, *config.SpawnColumn)
	}

	if config.TickIntervalMs < MinTickInterval {
		return fmt.Errorf("config validation: tick_interval_ms must be at least %d, got %d", MinTickInterval, config.TickIntervalMs)
	}
	if config.ResolveDelayMs < 0 || config.ResolveDelayMs > MaxResolveDelay {
		return fmt.Errorf("config validation: resolve_delay_ms must be between 0 and %d, got %d", MaxResolveDelay, config.ResolveDelayMs)
	}

	if config.Scoring.CityMultiplier < 0 || config.Scoring.SpecialBonus < 0 || config.Scoring.RoadMultiplier < 0 {
		return fmt.Errorf("config validation: scoring values must not be negative")
	}
	if config.Scoring.CityMultiplier == 0 && config.Scoring.SpecialBonus == 0 && config.Scoring.RoadMultiplier == 0 {
		return fmt.Errorf("config validation: scoring awards no points")
	}

	for kind, w := range config.TileWeights {
		if w < 0 {
			return fmt.Errorf("config validation: tile_weights[%s] must not be negative, got %d", kind, w)
		}
	}
	if _, err := config.Catalog(); err != nil {
		return fmt.Errorf("config validation: %v", err)
	}

	if config.Messages.Welcome == "" {
		return fmt.Errorf("config validation: messages.welcome is required")
	}
	if config.Messages.GameOver == "" {
		return fmt.Errorf("config validation: messages.game_over is required")
	}
	if !strings.Contains(config.Messages.GameOver, "%d") {
		return fmt.Errorf("config validation: messages.game_over must contain %%d for the final score")
	}
	if config.Messages.CityCompleted != "" && !strings.Contains(config.Messages.CityCompleted, "%d") {
		return fmt.Errorf("config validation: messages.city_completed must contain %%d for points")
	}
	if config.Messages.SpecialCompleted != "" && !strings.Contains(config.Messages.SpecialCompleted, "%d") {
		return fmt.Errorf("config validation: messages.special_completed must contain %%d for points")
	}

	return nil
}

// ParseGameConfig decodes data as JSON, or YAML when format is "yaml" or
// "yml", and validates the result
func ParseGameConfig(data []byte, format string) (*GameConfig, error) {
	var config GameConfig
	switch strings.TrimPrefix(strings.ToLower(format), ".") {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	case "json", "":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadGameConfig loads a game configuration from a JSON or YAML file
func LoadGameConfig(filename string) (*GameConfig, error) {
	configPath := resolveConfigPath(filename)
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	return ParseGameConfig(data, filepath.Ext(configPath))
}

// resolveConfigPath maps "configs/..." onto CONFIG_DIR when it is set
func resolveConfigPath(filename string) string {
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		if strings.HasPrefix(filename, "configs/") {
			return filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}
	return filename
}

// ConfigExtensions are the file extensions recognised as game configurations
var ConfigExtensions = []string{".json", ".yaml", ".yml"}

// IsConfigFile reports whether name has a configuration extension
func IsConfigFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range ConfigExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// LoadConfigByName loads a game configuration by name from the configs directory
func LoadConfigByName(configName string) (*GameConfig, error) {
	candidates := []string{configName}
	if !IsConfigFile(configName) {
		candidates = candidates[:0]
		for _, ext := range ConfigExtensions {
			candidates = append(candidates, configName+ext)
		}
	}

	for _, candidate := range candidates {
		configPath := filepath.Join("configs", candidate)
		if _, err := os.Stat(resolveConfigPath(configPath)); os.IsNotExist(err) {
			continue
		}
		config, err := LoadGameConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config '%s': %v", candidate, err)
		}
		return config, nil
	}

	return nil, fmt.Errorf("config file '%s' not found", configName)
}

package service

import (
	"time"

	"github.com/wricardo/mcp-training/tiletris/game/engine"
	"github.com/wricardo/mcp-training/tiletris/game/scores"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	PlayerID       string             `json:"player_id,omitempty"`
	Paused         bool               `json:"paused"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// CommandResult contains the result of a single command
type CommandResult struct {
	Success   bool              `json:"success"`
	Command   engine.Command    `json:"command"`
	GameState *engine.GameState `json:"game_state"`
	Message   string            `json:"message"`
	Events    []GameEvent       `json:"events,omitempty"`
}

// BulkCommandResult contains the result of several commands applied in one go
type BulkCommandResult struct {
	CommandsExecuted  int               `json:"commands_executed"`
	RequestedCommands int               `json:"requested_commands"`
	Success           bool              `json:"success"`
	GameState         *engine.GameState `json:"game_state"`
	Events            []GameEvent       `json:"events"`
	StoppedReason     string            `json:"stopped_reason,omitempty"`
	StopReasonCode    string            `json:"stop_reason_code,omitempty"` // blocked|unknown_command|game_over
	StoppedOnCommand  int               `json:"stopped_on_command,omitempty"`
	Truncated         bool              `json:"truncated,omitempty"`
	Limit             int               `json:"limit,omitempty"`

	StartScore int `json:"start_score"`
	EndScore   int `json:"end_score"`
	ScoreDelta int `json:"score_delta"`
	Placements int `json:"placements"`

	Steps []StepInfo `json:"steps,omitempty"`

	GameOver bool   `json:"game_over"`
	Message  string `json:"message,omitempty"`
}

// StepInfo is a compact record for each command of a bulk call
type StepInfo struct {
	Idx     int            `json:"idx"`
	Command engine.Command `json:"command"`
	Success bool           `json:"success"`
	Piece   *engine.Piece  `json:"piece,omitempty"`
	Placed  bool           `json:"placed,omitempty"`
	Score   int            `json:"score"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type       string           `json:"type"` // "placed", "score", "game_over", "reset"
	Message    string           `json:"message"`
	Timestamp  time.Time        `json:"timestamp"`
	Position   *engine.Position `json:"position,omitempty"`
	ScoreDelta int              `json:"score_delta,omitempty"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	BoardWidth  int    `json:"board_width"`
	BoardHeight int    `json:"board_height"`
}

// TileInfo describes one tile kind of a catalog
type TileInfo struct {
	Kind         engine.TileKind `json:"kind"`
	Weight       int             `json:"weight"`
	Probability  float64         `json:"probability"`
	Edges        string          `json:"edges"`
	Rotations    []string        `json:"rotations"`
	Bonus        bool            `json:"bonus"`
	Surroundable bool            `json:"surroundable"`
}

// PlayerInfo is a profile together with its recorded games
type PlayerInfo struct {
	Profile *scores.Profile      `json:"profile"`
	Games   []*scores.GameRecord `json:"games"`
}

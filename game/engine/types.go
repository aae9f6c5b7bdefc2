package engine

import (
	"fmt"
	"time"

	"github.com/wricardo/mcp-training/tiletris/game/feature"
)

// Side indexes the four edge slots of a tile
type Side int

const (
	North Side = iota
	East
	South
	West
)

// Sides lists the edge slots in slot order
var Sides = [4]Side{North, East, South, West}

// Opposite returns the side facing s across a shared border
func (s Side) Opposite() Side {
	return (s + 2) % 4
}

func (s Side) String() string {
	switch s {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	}
	return fmt.Sprintf("side(%d)", int(s))
}

// Rotation is a clockwise rotation in degrees
type Rotation int

const (
	Rotate0   Rotation = 0
	Rotate90  Rotation = 90
	Rotate180 Rotation = 180
	Rotate270 Rotation = 270
)

// Valid reports whether r is one of the four legal rotations
func (r Rotation) Valid() bool {
	return r == Rotate0 || r == Rotate90 || r == Rotate180 || r == Rotate270
}

// Steps returns the number of quarter turns r represents
func (r Rotation) Steps() int {
	if !r.Valid() {
		panic(fmt.Sprintf("engine: illegal rotation %d", int(r)))
	}
	return int(r) / 90
}

// Next returns r turned a further 90 degrees clockwise
func (r Rotation) Next() Rotation {
	return Rotation((r.Steps() + 1) % 4 * 90)
}

// TileKind names an entry of the tile catalog
type TileKind string

// Edge is one edge slot of a tile. An empty Kind means the slot carries no
// feature.
type Edge struct {
	Kind  feature.Kind `json:"kind,omitempty" yaml:"kind,omitempty"`
	Index int          `json:"index,omitempty" yaml:"index,omitempty"`
}

// IsEmpty reports whether the slot carries no feature
func (e Edge) IsEmpty() bool {
	return e.Kind == ""
}

// Edges holds the four edge slots of a tile, indexed by Side
type Edges [4]Edge

// TileDefinition describes one catalog entry in unrotated orientation
type TileDefinition struct {
	Kind         TileKind `json:"kind"`
	Edges        Edges    `json:"edges"`
	Weight       int      `json:"weight"`
	Bonus        bool     `json:"bonus,omitempty"`
	Surroundable bool     `json:"surroundable,omitempty"`
}

// Position represents x,y coordinates. Row 0 is the top of the board.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Piece is the falling tile
type Piece struct {
	Kind     TileKind `json:"kind"`
	Position Position `json:"position"`
	Rotation Rotation `json:"rotation"`
}

// Cells returns the board positions the piece covers
func (p Piece) Cells() []Position {
	return []Position{p.Position}
}

// At returns a copy of the piece moved to pos
func (p Piece) At(pos Position) Piece {
	p.Position = pos
	return p
}

// BoardCell is a settled tile
type BoardCell struct {
	Kind     TileKind `json:"kind"`
	Rotation Rotation `json:"rotation"`
	TileID   int      `json:"tile_id"`
}

// Phase is the controller state
type Phase string

const (
	PhaseFalling   Phase = "falling"
	PhaseResolving Phase = "resolving"
	PhaseGameOver  Phase = "game_over"
)

// Command is an input accepted by the controller
type Command string

const (
	CommandLeft   Command = "left"
	CommandRight  Command = "right"
	CommandDown   Command = "down"
	CommandRotate Command = "rotate"
	CommandTick   Command = "tick"
	CommandDrop   Command = "drop"
)

// Commands lists every command name Apply accepts
var Commands = []Command{CommandLeft, CommandRight, CommandDown, CommandRotate, CommandTick, CommandDrop}

const (
	// Validation constants
	DefaultBoardSize      = 8
	MinBoardSize          = 4
	MaxBoardSize          = 32
	DefaultTickInterval   = 1000
	MinTickInterval       = 50
	DefaultResolveDelay   = 1500
	MaxResolveDelay       = 60000
	DefaultCityMultiplier = 2
	DefaultSpecialBonus   = 9
	MaxBulkCommands       = 50
	WebSocketBufferSize   = 256
)

// Stats are per-game counters
type Stats struct {
	Placements        int        `json:"placements"`
	CitiesCompleted   int        `json:"cities_completed"`
	RoadsCompleted    int        `json:"roads_completed"`
	SpecialsCompleted int        `json:"specials_completed"`
	LargestCity       int        `json:"largest_city"`
	StartedAt         time.Time  `json:"started_at"`
	EndedAt           *time.Time `json:"ended_at,omitempty"`
}

// GameState is a read-only snapshot of a game. The falling piece is kept
// apart from the board and is never part of the settled grid.
type GameState struct {
	Width              int            `json:"width"`
	Height             int            `json:"height"`
	Board              [][]*BoardCell `json:"board"`
	Piece              *Piece         `json:"piece,omitempty"`
	NextKind           TileKind       `json:"next_kind,omitempty"`
	Score              int            `json:"score"`
	Phase              Phase          `json:"phase"`
	GameOver           bool           `json:"game_over"`
	Removing           []int          `json:"removing"`
	PendingResolutions int            `json:"pending_resolutions"`
	Message            string         `json:"message"`
	ConfigName         string         `json:"config_name"`
	Stats              Stats          `json:"stats"`
}

// Settled reports whether the game is over with no resolution left to apply,
// so the score is final.
func (s *GameState) Settled() bool {
	return s.GameOver && s.PendingResolutions == 0
}

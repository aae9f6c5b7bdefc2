package engine

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/wricardo/mcp-training/tiletris/game/feature"
)

var (
	// ErrUnknownCommand is returned by Apply and ParseCommand for an unrecognised command
	ErrUnknownCommand = errors.New("unknown command")
	// ErrGameOver is returned when a command reaches a finished game
	ErrGameOver = errors.New("game is over")
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	Reset() *GameState
	IsGameOver() bool
	GetScore() int

	// Input commands
	MoveLeft() bool
	MoveRight() bool
	MoveDown() bool
	RotateClockwise() bool
	Tick() bool
	Drop() bool
	Apply(cmd Command) (bool, error)

	// Deferred resolution
	ResolveNext() *Resolution
	ResolveScheduled(generation uint64) bool

	// Configuration
	GetConfig() *GameConfig
	Catalog() *Catalog
}

// Scheduler defers cascade resolutions. An implementation must call
// ResolveScheduled with the given generation after delay, on the goroutine
// that owns the engine.
type Scheduler interface {
	ScheduleResolution(generation uint64, delay time.Duration)
}

// EventType names an engine event
type EventType string

const (
	EventPlaced   EventType = "placed"
	EventResolved EventType = "resolved"
	EventSpawned  EventType = "spawned"
	EventGameOver EventType = "game_over"
	EventReset    EventType = "reset"
)

// Event is delivered to observers after the engine mutated
type Event struct {
	Type       EventType   `json:"type"`
	TileID     int         `json:"tile_id,omitempty"`
	Piece      *Piece      `json:"piece,omitempty"`
	Resolution *Resolution `json:"resolution,omitempty"`
	Score      int         `json:"score"`
}

// Observer receives engine events
type Observer interface {
	OnEngineEvent(e Event)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(e Event)

// OnEngineEvent calls f(e)
func (f ObserverFunc) OnEngineEvent(e Event) { f(e) }

// Clock tells the time for statistics
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Option configures a GameEngine
type Option func(*GameEngine)

// WithScheduler defers resolutions through s. Without a scheduler every
// resolution runs synchronously right after its placement.
func WithScheduler(s Scheduler) Option {
	return func(e *GameEngine) { e.scheduler = s }
}

// WithObserver registers an observer
func WithObserver(o Observer) Option {
	return func(e *GameEngine) { e.observers = append(e.observers, o) }
}

// WithSeed fixes the random seed, overriding the configuration seed
func WithSeed(seed uint64) Option {
	return func(e *GameEngine) { e.seed = seed }
}

// WithClock replaces the wall clock
func WithClock(c Clock) Option {
	return func(e *GameEngine) { e.clock = c }
}

// GameEngine implements the Engine interface. It is not safe for concurrent
// use; one goroutine owns it.
type GameEngine struct {
	config    *GameConfig
	catalog   *Catalog
	board     *Board
	graph     *feature.Graph
	index     *feature.Index
	resolver  *CascadeResolver
	validator *PlacementValidator
	pcg       *rand.PCG
	rng       *rand.Rand
	seed      uint64
	clock     Clock
	scheduler Scheduler
	observers []Observer

	piece      *Piece
	next       TileKind
	score      int
	nextTileID int
	pending    []int
	generation uint64
	gameOver   bool
	removing   []int
	message    string
	stats      Stats
}

// NewEngine creates a new game engine with the provided configuration
func NewEngine(config *GameConfig, opts ...Option) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}
	catalog, err := config.Catalog()
	if err != nil {
		return nil, err
	}

	e := &GameEngine{
		config:  config,
		catalog: catalog,
		clock:   systemClock{},
		seed:    config.Seed,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.seed == 0 {
		e.seed = rand.Uint64()
	}
	e.pcg = rand.NewPCG(e.seed, e.seed^0x9e3779b97f4a7c15)
	e.rng = rand.New(e.pcg)

	e.start()
	return e, nil
}

// NewEngineWithDefaults creates a new game engine with the classic configuration
func NewEngineWithDefaults(opts ...Option) *GameEngine {
	e, err := NewEngine(DefaultGameConfig(), opts...)
	if err != nil {
		panic(err)
	}
	return e
}

func (e *GameEngine) start() {
	e.board = NewBoard(e.config.BoardWidth, e.config.BoardHeight)
	e.graph = feature.NewGraph()
	e.index = feature.NewIndex()
	e.bind()

	e.piece = nil
	e.next = ""
	e.score = 0
	e.nextTileID = 1
	e.pending = nil
	e.gameOver = false
	e.removing = nil
	e.message = e.config.Messages.Welcome
	e.stats = Stats{StartedAt: e.clock.Now()}

	e.spawn()
}

func (e *GameEngine) bind() {
	e.resolver = NewCascadeResolver(e.board, e.catalog, e.graph, e.index, e.config.Scoring)
	e.validator = NewPlacementValidator(e.board, e.catalog)
}

// SetScheduler replaces the scheduler. Resolutions already scheduled keep
// their old target.
func (e *GameEngine) SetScheduler(s Scheduler) {
	e.scheduler = s
}

// AddObserver registers an observer
func (e *GameEngine) AddObserver(o Observer) {
	e.observers = append(e.observers, o)
}

func (e *GameEngine) notify(ev Event) {
	ev.Score = e.score
	for _, o := range e.observers {
		o.OnEngineEvent(ev)
	}
}

// GetState returns a snapshot of the current game
func (e *GameEngine) GetState() *GameState {
	state := &GameState{
		Width:              e.board.Width(),
		Height:             e.board.Height(),
		Board:              e.board.Rows(),
		NextKind:           e.next,
		Score:              e.score,
		Phase:              e.Phase(),
		GameOver:           e.gameOver,
		Removing:           append([]int{}, e.removing...),
		PendingResolutions: len(e.pending),
		Message:            e.message,
		ConfigName:         e.config.Name,
		Stats:              e.stats,
	}
	if e.piece != nil {
		p := *e.piece
		state.Piece = &p
	}
	return state
}

// Phase returns the controller state
func (e *GameEngine) Phase() Phase {
	switch {
	case e.gameOver:
		return PhaseGameOver
	case len(e.pending) > 0:
		return PhaseResolving
	default:
		return PhaseFalling
	}
}

// Reset starts a new game. Pending resolutions are dropped and any scheduled
// callback for them is ignored.
func (e *GameEngine) Reset() *GameState {
	e.generation++
	e.start()
	e.notify(Event{Type: EventReset})
	return e.GetState()
}

// IsGameOver returns whether the game is over
func (e *GameEngine) IsGameOver() bool {
	return e.gameOver
}

// GetScore returns the current score
func (e *GameEngine) GetScore() int {
	return e.score
}

// GetConfig returns the current game configuration
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// Catalog returns the tile catalog in use
func (e *GameEngine) Catalog() *Catalog {
	return e.catalog
}

// Board returns a copy of the settled board
func (e *GameEngine) Board() *Board {
	return e.board.Clone()
}

// Generation identifies the current game; it changes on every reset
func (e *GameEngine) Generation() uint64 {
	return e.generation
}

// Seed returns the seed the random source started from
func (e *GameEngine) Seed() uint64 {
	return e.seed
}

func (e *GameEngine) active() bool {
	return !e.gameOver && e.piece != nil
}

// MoveLeft shifts the piece one column left when the target is free
func (e *GameEngine) MoveLeft() bool {
	return e.shift(-1)
}

// MoveRight shifts the piece one column right when the target is free
func (e *GameEngine) MoveRight() bool {
	return e.shift(1)
}

func (e *GameEngine) shift(dx int) bool {
	if !e.active() {
		return false
	}
	target := Position{X: e.piece.Position.X + dx, Y: e.piece.Position.Y}
	if !e.validator.IsWithinBoundsAndFree(*e.piece, target) {
		return false
	}
	e.piece.Position = target
	return true
}

// RotateClockwise turns the piece 90 degrees when it stays free. Edge
// conflicts are only checked when the piece settles.
func (e *GameEngine) RotateClockwise() bool {
	if !e.active() {
		return false
	}
	candidate := *e.piece
	candidate.Rotation = candidate.Rotation.Next()
	if !e.validator.IsWithinBoundsAndFree(candidate, candidate.Position) {
		return false
	}
	e.piece = &candidate
	return true
}

// MoveDown advances the piece one row, or settles it when it cannot advance
func (e *GameEngine) MoveDown() bool {
	return e.descend()
}

// Tick is the automatic descent step
func (e *GameEngine) Tick() bool {
	return e.descend()
}

// Drop moves the piece down until it settles
func (e *GameEngine) Drop() bool {
	if !e.active() {
		return false
	}
	placed := e.stats.Placements
	for e.active() && e.stats.Placements == placed {
		e.descend()
	}
	return true
}

func (e *GameEngine) descend() bool {
	if !e.active() {
		return false
	}
	below := Position{X: e.piece.Position.X, Y: e.piece.Position.Y + 1}
	if e.validator.IsWithinBoundsAndFree(*e.piece, below) {
		e.piece.Position = below
		return true
	}
	e.lock()
	return true
}

// lock settles the piece where it is. A piece that cannot settle there ends
// the game without touching the board.
func (e *GameEngine) lock() {
	p := *e.piece
	if p.Position.Y < 0 || !e.validator.CanPlace(p, p.Position) {
		e.endGame()
		return
	}

	tileID := e.nextTileID
	e.nextTileID++
	e.board.Place(p.Position.X, p.Position.Y, BoardCell{Kind: p.Kind, Rotation: p.Rotation, TileID: tileID})
	e.resolver.InstantiateFeatures(tileID, p.Kind)
	e.resolver.MergeNeighbors(p.Position)
	e.stats.Placements++

	e.removing = e.resolver.PreviewRemovals()
	e.pending = append(e.pending, tileID)
	e.piece = nil
	e.notify(Event{Type: EventPlaced, TileID: tileID, Piece: &p})

	if e.scheduler == nil {
		e.resolveNext()
		return
	}
	var delay time.Duration
	if len(e.removing) > 0 {
		delay = e.config.ResolveDelay()
	}
	e.scheduler.ScheduleResolution(e.generation, delay)
	e.spawn()
}

// spawn draws the next piece at the spawn column, row 0. When the spawn cell
// is blocked and a resolution is still pending the spawn waits for it;
// otherwise the game ends.
func (e *GameEngine) spawn() {
	if e.gameOver || e.piece != nil {
		return
	}
	if e.next == "" {
		e.next = e.catalog.Sample(e.rng)
	}
	p := Piece{Kind: e.next, Position: Position{X: e.config.Spawn(), Y: 0}, Rotation: Rotate0}
	if !e.validator.CanPlace(p, p.Position) {
		if len(e.pending) > 0 {
			// a queued resolution may still clear the spawn cell; the last
			// one to run calls spawn again and ends the game if it is blocked
			return
		}
		e.endGame()
		return
	}
	e.piece = &p
	e.next = e.catalog.Sample(e.rng)
	e.notify(Event{Type: EventSpawned, Piece: &p})
}

func (e *GameEngine) endGame() {
	if e.gameOver {
		return
	}
	e.gameOver = true
	now := e.clock.Now()
	e.stats.EndedAt = &now
	e.message = fmt.Sprintf(e.config.Messages.GameOver, e.score)
	e.notify(Event{Type: EventGameOver})
}

// ResolveScheduled runs the oldest pending resolution if generation is still
// current. It reports whether a resolution ran.
func (e *GameEngine) ResolveScheduled(generation uint64) bool {
	if generation != e.generation {
		return false
	}
	return e.resolveNext() != nil
}

// ResolveNext runs the oldest pending resolution against the live board, or
// returns nil when none is pending
func (e *GameEngine) ResolveNext() *Resolution {
	return e.resolveNext()
}

func (e *GameEngine) resolveNext() *Resolution {
	if len(e.pending) == 0 {
		return nil
	}
	e.pending = e.pending[1:]

	res := e.resolver.Resolve()
	e.score += res.ScoreDelta
	e.record(res)
	e.removing = e.resolver.PreviewRemovals()

	e.notify(Event{Type: EventResolved, Resolution: &res})
	e.spawn()
	return &res
}

func (e *GameEngine) record(res Resolution) {
	featurePoints, specialPoints := 0, 0
	for _, cf := range res.Features {
		featurePoints += cf.Points
		switch cf.Kind {
		case feature.City:
			e.stats.CitiesCompleted++
			if cf.Size > e.stats.LargestCity {
				e.stats.LargestCity = cf.Size
			}
		case feature.Road:
			e.stats.RoadsCompleted++
		}
	}
	for _, sc := range res.Specials {
		specialPoints += sc.Points
	}
	e.stats.SpecialsCompleted += len(res.Specials)

	switch {
	case e.gameOver:
		e.message = fmt.Sprintf(e.config.Messages.GameOver, e.score)
	case len(res.Specials) > 0 && e.config.Messages.SpecialCompleted != "":
		e.message = fmt.Sprintf(e.config.Messages.SpecialCompleted, specialPoints)
	case len(res.Features) > 0 && e.config.Messages.CityCompleted != "":
		e.message = fmt.Sprintf(e.config.Messages.CityCompleted, featurePoints)
	}
}

// Apply runs a command by name
func (e *GameEngine) Apply(cmd Command) (bool, error) {
	switch cmd {
	case CommandLeft:
		return e.MoveLeft(), nil
	case CommandRight:
		return e.MoveRight(), nil
	case CommandDown:
		return e.MoveDown(), nil
	case CommandRotate:
		return e.RotateClockwise(), nil
	case CommandTick:
		return e.Tick(), nil
	case CommandDrop:
		return e.Drop(), nil
	}
	return false, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
}

var commandAliases = map[string]Command{
	"left":            CommandLeft,
	"moveleft":        CommandLeft,
	"l":               CommandLeft,
	"right":           CommandRight,
	"moveright":       CommandRight,
	"r":               CommandRight,
	"down":            CommandDown,
	"movedown":        CommandDown,
	"d":               CommandDown,
	"rotate":          CommandRotate,
	"rotateclockwise": CommandRotate,
	"cw":              CommandRotate,
	"tick":            CommandTick,
	"drop":            CommandDrop,
	"harddrop":        CommandDrop,
}

// ParseCommand maps a command name, case-insensitively and ignoring
// separators, to a Command
func ParseCommand(s string) (Command, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("_", "", "-", "", " ", "").Replace(key)
	if cmd, ok := commandAliases[key]; ok {
		return cmd, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCommand, s)
}

package engine

import (
	"fmt"

	"github.com/wricardo/mcp-training/tiletris/game/feature"
)

// SavedGame is everything needed to continue a game later, including the
// feature bookkeeping and the random source position
type SavedGame struct {
	ConfigName   string                `json:"config_name"`
	Generation   uint64                `json:"generation"`
	Seed         uint64                `json:"seed"`
	Board        [][]*BoardCell        `json:"board"`
	Piece        *Piece                `json:"piece,omitempty"`
	NextKind     TileKind              `json:"next_kind,omitempty"`
	Score        int                   `json:"score"`
	NextTileID   int                   `json:"next_tile_id"`
	Pending      []int                 `json:"pending,omitempty"`
	GameOver     bool                  `json:"game_over"`
	Removing     []int                 `json:"removing,omitempty"`
	Message      string                `json:"message"`
	Stats        Stats                 `json:"stats"`
	Features     feature.GraphSnapshot `json:"features"`
	FeatureIndex feature.IndexSnapshot `json:"feature_index"`
	RNG          []byte                `json:"rng"`
}

// Export captures the game
func (e *GameEngine) Export() (*SavedGame, error) {
	rng, err := e.pcg.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("export random state: %w", err)
	}
	saved := &SavedGame{
		ConfigName:   e.config.Name,
		Generation:   e.generation,
		Seed:         e.seed,
		Board:        e.board.Rows(),
		NextKind:     e.next,
		Score:        e.score,
		NextTileID:   e.nextTileID,
		Pending:      append([]int(nil), e.pending...),
		GameOver:     e.gameOver,
		Removing:     append([]int(nil), e.removing...),
		Message:      e.message,
		Stats:        e.stats,
		Features:     e.graph.Snapshot(),
		FeatureIndex: e.index.Snapshot(e.nextTileID - 1),
		RNG:          rng,
	}
	if e.piece != nil {
		p := *e.piece
		saved.Piece = &p
	}
	return saved, nil
}

// Restore replaces the game with a saved one. Pending resolutions are
// scheduled again, or run at once without a scheduler.
func (e *GameEngine) Restore(saved *SavedGame) error {
	if saved == nil {
		return fmt.Errorf("saved game cannot be nil")
	}
	board, err := BoardFromRows(saved.Board)
	if err != nil {
		return fmt.Errorf("restore board: %w", err)
	}
	if board.Width() != e.config.BoardWidth || board.Height() != e.config.BoardHeight {
		return fmt.Errorf("restore board: size %dx%d does not match config %dx%d",
			board.Width(), board.Height(), e.config.BoardWidth, e.config.BoardHeight)
	}
	var bad error
	board.Each(func(pos Position, c BoardCell) {
		if _, ok := e.catalog.Definition(c.Kind); !ok && bad == nil {
			bad = fmt.Errorf("restore board: unknown tile kind %q at (%d,%d)", c.Kind, pos.X, pos.Y)
		}
	})
	if bad != nil {
		return bad
	}
	if saved.Piece != nil {
		if _, ok := e.catalog.Definition(saved.Piece.Kind); !ok || !saved.Piece.Rotation.Valid() {
			return fmt.Errorf("restore piece: invalid piece %+v", *saved.Piece)
		}
	}
	graph := feature.NewGraph()
	if err := graph.Restore(saved.Features); err != nil {
		return fmt.Errorf("restore features: %w", err)
	}
	index := feature.NewIndex()
	index.Restore(saved.FeatureIndex)
	if len(saved.RNG) > 0 {
		if err := e.pcg.UnmarshalBinary(saved.RNG); err != nil {
			return fmt.Errorf("restore random state: %w", err)
		}
	}

	e.generation = saved.Generation + 1
	e.seed = saved.Seed
	e.board = board
	e.graph = graph
	e.index = index
	e.bind()
	e.piece = nil
	if saved.Piece != nil {
		p := *saved.Piece
		e.piece = &p
	}
	e.next = saved.NextKind
	e.score = saved.Score
	e.nextTileID = saved.NextTileID
	if e.nextTileID < 1 {
		e.nextTileID = 1
	}
	e.pending = nil
	e.gameOver = saved.GameOver
	e.removing = append([]int(nil), saved.Removing...)
	e.message = saved.Message
	e.stats = saved.Stats

	for _, tileID := range saved.Pending {
		e.pending = append(e.pending, tileID)
		if e.scheduler != nil {
			var delay = e.config.ResolveDelay()
			if len(e.removing) == 0 {
				delay = 0
			}
			e.scheduler.ScheduleResolution(e.generation, delay)
		}
	}
	if e.scheduler == nil {
		for e.resolveNext() != nil {
		}
	}
	e.spawn()
	return nil
}

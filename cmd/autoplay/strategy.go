package main

import (
	"github.com/wricardo/mcp-training/tiletris/game/engine"
	"github.com/wricardo/mcp-training/tiletris/game/feature"
)

// Strategy ranks the placement options of the falling piece. An option
// earns points for every edge it matches and loses points for every city
// edge it leaves facing an empty in-board cell.
type Strategy struct {
	catalog      *engine.Catalog
	MatchWeight  int
	OpenCityCost int
}

func NewStrategy() *Strategy {
	return &Strategy{
		catalog:      engine.DefaultCatalog(),
		MatchWeight:  10,
		OpenCityCost: 4,
	}
}

var sideOffsets = [4]engine.Position{
	engine.North: {X: 0, Y: -1},
	engine.East:  {X: 1, Y: 0},
	engine.South: {X: 0, Y: 1},
	engine.West:  {X: -1, Y: 0},
}

// OpenCityEdges counts the city edges of kind at rotation r, placed at pos,
// that face an empty cell inside the board
func (s *Strategy) OpenCityEdges(state *engine.GameState, kind engine.TileKind, r engine.Rotation, pos engine.Position) int {
	edges := s.catalog.RotatedEdges(kind, r)
	open := 0
	for _, side := range engine.Sides {
		if edges[side].Kind != feature.City {
			continue
		}
		n := engine.Position{X: pos.X + sideOffsets[side].X, Y: pos.Y + sideOffsets[side].Y}
		if n.X < 0 || n.Y < 0 || n.Y >= len(state.Board) || n.X >= len(state.Board[n.Y]) {
			continue
		}
		if state.Board[n.Y][n.X] == nil {
			open++
		}
	}
	return open
}

// Score rates one option; higher is better
func (s *Strategy) Score(state *engine.GameState, opt engine.PlacementOption) int {
	if state.Piece == nil {
		return 0
	}
	return opt.Matches*s.MatchWeight -
		s.OpenCityEdges(state, state.Piece.Kind, opt.Rotation, opt.Position)*s.OpenCityCost +
		opt.Position.Y
}

// Choose returns the best option. Options arrive best-first by matches, so
// the earliest wins a tie. It reports false when there is none.
func (s *Strategy) Choose(state *engine.GameState, options []engine.PlacementOption) (engine.PlacementOption, bool) {
	if len(options) == 0 {
		return engine.PlacementOption{}, false
	}
	best, bestScore := options[0], s.Score(state, options[0])
	for _, opt := range options[1:] {
		if score := s.Score(state, opt); score > bestScore {
			best, bestScore = opt, score
		}
	}
	return best, true
}

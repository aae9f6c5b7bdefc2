package engine

import "sort"

// ColumnHeights returns, per column, how many rows are stacked from the floor
// up to the highest settled tile
func ColumnHeights(b *Board) []int {
	heights := make([]int, b.Width())
	for x := 0; x < b.Width(); x++ {
		for y := 0; y < b.Height(); y++ {
			if b.Occupied(x, y) {
				heights[x] = b.Height() - y
				break
			}
		}
	}
	return heights
}

// LandingPosition returns where a single tile dropped in column x from row
// fromY comes to rest, and false when the starting cell is taken
func LandingPosition(b *Board, x, fromY int) (Position, bool) {
	if x < 0 || x >= b.Width() || fromY >= b.Height() {
		return Position{}, false
	}
	if fromY >= 0 && b.Occupied(x, fromY) {
		return Position{}, false
	}
	y := fromY
	for y+1 < b.Height() && (y+1 < 0 || !b.Occupied(x, y+1)) {
		y++
	}
	return Position{X: x, Y: y}, true
}

// MatchingEdges counts the settled neighbors whose facing edge carries the
// same feature kind as the piece at pos
func MatchingEdges(b *Board, c *Catalog, piece Piece, pos Position) int {
	edges := c.RotatedEdges(piece.Kind, piece.Rotation)
	n := 0
	for _, side := range Sides {
		if edges[side].IsEmpty() {
			continue
		}
		np, ok := b.NeighborPosition(pos.X, pos.Y, side)
		if !ok {
			continue
		}
		neighbor := b.CellAt(np.X, np.Y)
		if neighbor == nil {
			continue
		}
		if c.RotatedEdges(neighbor.Kind, neighbor.Rotation)[side.Opposite()].Kind == edges[side].Kind {
			n++
		}
	}
	return n
}

// PlacementOption is a reachable resting place for the current piece
type PlacementOption struct {
	Rotation Rotation  `json:"rotation"`
	Position Position  `json:"position"`
	Matches  int       `json:"matches"`
	Commands []Command `json:"commands"`
}

// PlacementOptions lists every column and rotation the current piece can be
// steered to and legally settle in, best first: more matching edges, then
// lower rows.
func (e *GameEngine) PlacementOptions() []PlacementOption {
	if !e.active() {
		return nil
	}
	var options []PlacementOption
	start := *e.piece
	for turns := 0; turns < 4; turns++ {
		rotated := start
		for i := 0; i < turns; i++ {
			rotated.Rotation = rotated.Rotation.Next()
		}
		for x := 0; x < e.board.Width(); x++ {
			if !e.laneFree(start.Position.Y, start.Position.X, x) {
				continue
			}
			landing, ok := LandingPosition(e.board, x, start.Position.Y)
			if !ok || !e.validator.CanPlace(rotated, landing) {
				continue
			}
			options = append(options, PlacementOption{
				Rotation: rotated.Rotation,
				Position: landing,
				Matches:  MatchingEdges(e.board, e.catalog, rotated, landing),
				Commands: steer(turns, x-start.Position.X),
			})
		}
	}
	sort.SliceStable(options, func(i, j int) bool {
		if options[i].Matches != options[j].Matches {
			return options[i].Matches > options[j].Matches
		}
		return options[i].Position.Y > options[j].Position.Y
	})
	return options
}

// laneFree reports whether row y is free between columns from and to
func (e *GameEngine) laneFree(y, from, to int) bool {
	if y < 0 {
		return true
	}
	lo, hi := from, to
	if lo > hi {
		lo, hi = hi, lo
	}
	for x := lo; x <= hi; x++ {
		if e.board.Occupied(x, y) {
			return false
		}
	}
	return true
}

func steer(turns, dx int) []Command {
	cmds := make([]Command, 0, turns+abs(dx)+1)
	for i := 0; i < turns; i++ {
		cmds = append(cmds, CommandRotate)
	}
	step := CommandRight
	if dx < 0 {
		step = CommandLeft
	}
	for i := 0; i < abs(dx); i++ {
		cmds = append(cmds, step)
	}
	return append(cmds, CommandDrop)
}

// abs returns the absolute value of x
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

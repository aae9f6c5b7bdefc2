package engine

// PlacementValidator decides where a piece may move and where it may settle
type PlacementValidator struct {
	board   *Board
	catalog *Catalog
}

// NewPlacementValidator binds a validator to a board and catalog
func NewPlacementValidator(board *Board, catalog *Catalog) *PlacementValidator {
	return &PlacementValidator{board: board, catalog: catalog}
}

// IsWithinBoundsAndFree checks that every cell of the piece at pos lies in a
// board column, not below the floor, and not on a settled tile. Rows above
// the top edge are allowed.
func (v *PlacementValidator) IsWithinBoundsAndFree(piece Piece, pos Position) bool {
	for _, cell := range piece.At(pos).Cells() {
		if cell.X < 0 || cell.X >= v.board.Width() || cell.Y >= v.board.Height() {
			return false
		}
		if cell.Y >= 0 && v.board.Occupied(cell.X, cell.Y) {
			return false
		}
	}
	return true
}

// HasEdgeConflict reports whether any rotated edge of the piece at pos
// disagrees with the facing edge of a settled neighbor.
func (v *PlacementValidator) HasEdgeConflict(piece Piece, pos Position) bool {
	edges := v.catalog.RotatedEdges(piece.Kind, piece.Rotation)
	for _, cell := range piece.At(pos).Cells() {
		if !v.board.InBounds(cell.X, cell.Y) {
			continue
		}
		for _, side := range Sides {
			np, ok := v.board.NeighborPosition(cell.X, cell.Y, side)
			if !ok {
				continue
			}
			neighbor := v.board.CellAt(np.X, np.Y)
			if neighbor == nil {
				continue
			}
			facing := v.catalog.RotatedEdges(neighbor.Kind, neighbor.Rotation)[side.Opposite()]
			if EdgesConflict(edges[side], facing) {
				return true
			}
		}
	}
	return false
}

// CanPlace is IsWithinBoundsAndFree without an edge conflict
func (v *PlacementValidator) CanPlace(piece Piece, pos Position) bool {
	return v.IsWithinBoundsAndFree(piece, pos) && !v.HasEdgeConflict(piece, pos)
}

// EdgesConflict reports whether two facing edges disagree: one carries a
// feature and the other does not, or both carry features of different kinds.
// Local feature indexes never matter.
func EdgesConflict(a, b Edge) bool {
	if a.IsEmpty() != b.IsEmpty() {
		return true
	}
	return !a.IsEmpty() && a.Kind != b.Kind
}

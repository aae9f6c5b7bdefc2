package engine

import "fmt"

// Board is a fixed-size grid of optional settled tiles. Row 0 is the top.
type Board struct {
	width  int
	height int
	cells  [][]*BoardCell
}

// NewBoard creates an empty board
func NewBoard(width, height int) *Board {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("engine: invalid board size %dx%d", width, height))
	}
	cells := make([][]*BoardCell, height)
	for y := range cells {
		cells[y] = make([]*BoardCell, width)
	}
	return &Board{width: width, height: height, cells: cells}
}

// Width returns the number of columns
func (b *Board) Width() int { return b.width }

// Height returns the number of rows
func (b *Board) Height() int { return b.height }

// InBounds reports whether x,y lies on the board
func (b *Board) InBounds(x, y int) bool {
	return x >= 0 && x < b.width && y >= 0 && y < b.height
}

func (b *Board) mustBeInBounds(x, y int) {
	if !b.InBounds(x, y) {
		panic(fmt.Sprintf("engine: position (%d,%d) outside %dx%d board", x, y, b.width, b.height))
	}
}

// CellAt returns the settled tile at x,y, or nil for an empty cell
func (b *Board) CellAt(x, y int) *BoardCell {
	b.mustBeInBounds(x, y)
	if c := b.cells[y][x]; c != nil {
		cp := *c
		return &cp
	}
	return nil
}

// Occupied reports whether x,y holds a settled tile
func (b *Board) Occupied(x, y int) bool {
	b.mustBeInBounds(x, y)
	return b.cells[y][x] != nil
}

// Place settles cell at x,y. The target must be empty.
func (b *Board) Place(x, y int, cell BoardCell) {
	b.mustBeInBounds(x, y)
	if !cell.Rotation.Valid() {
		panic(fmt.Sprintf("engine: illegal rotation %d for tile %d", cell.Rotation, cell.TileID))
	}
	if b.cells[y][x] != nil {
		panic(fmt.Sprintf("engine: position (%d,%d) already holds tile %d", x, y, b.cells[y][x].TileID))
	}
	b.cells[y][x] = &cell
}

// Remove clears x,y and returns what was there
func (b *Board) Remove(x, y int) *BoardCell {
	b.mustBeInBounds(x, y)
	c := b.cells[y][x]
	b.cells[y][x] = nil
	return c
}

// NeighborPosition returns the position adjacent to x,y across side, and
// false when it falls off the board.
func (b *Board) NeighborPosition(x, y int, side Side) (Position, bool) {
	p := Position{X: x, Y: y}
	switch side {
	case North:
		p.Y--
	case East:
		p.X++
	case South:
		p.Y++
	case West:
		p.X--
	default:
		panic(fmt.Sprintf("engine: unknown side %d", int(side)))
	}
	return p, b.InBounds(p.X, p.Y)
}

// ApplyGravity compacts every column downward keeping the top-to-bottom
// order of its tiles. It reports whether anything moved.
func (b *Board) ApplyGravity() bool {
	moved := false
	for x := 0; x < b.width; x++ {
		write := b.height - 1
		for y := b.height - 1; y >= 0; y-- {
			c := b.cells[y][x]
			if c == nil {
				continue
			}
			if y != write {
				b.cells[write][x] = c
				b.cells[y][x] = nil
				moved = true
			}
			write--
		}
	}
	return moved
}

// RemoveTiles clears every cell whose tile id is in ids and returns the
// cleared positions in row-major order.
func (b *Board) RemoveTiles(ids map[int]bool) []Position {
	var removed []Position
	b.Each(func(pos Position, c BoardCell) {
		if ids[c.TileID] {
			b.cells[pos.Y][pos.X] = nil
			removed = append(removed, pos)
		}
	})
	return removed
}

// Find returns the position of tileID
func (b *Board) Find(tileID int) (Position, bool) {
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			if c := b.cells[y][x]; c != nil && c.TileID == tileID {
				return Position{X: x, Y: y}, true
			}
		}
	}
	return Position{}, false
}

// Each visits every settled tile in row-major order
func (b *Board) Each(fn func(pos Position, cell BoardCell)) {
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			if c := b.cells[y][x]; c != nil {
				fn(Position{X: x, Y: y}, *c)
			}
		}
	}
}

// Count returns the number of settled tiles
func (b *Board) Count() int {
	n := 0
	b.Each(func(Position, BoardCell) { n++ })
	return n
}

// Clone returns a deep copy
func (b *Board) Clone() *Board {
	out := NewBoard(b.width, b.height)
	b.Each(func(pos Position, c BoardCell) {
		out.cells[pos.Y][pos.X] = &c
	})
	return out
}

// Rows returns a copy of the grid, row by row
func (b *Board) Rows() [][]*BoardCell {
	return b.Clone().cells
}

// Equal reports whether both boards hold the same tiles at the same places
func (b *Board) Equal(o *Board) bool {
	if b.width != o.width || b.height != o.height {
		return false
	}
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			l, r := b.cells[y][x], o.cells[y][x]
			if (l == nil) != (r == nil) {
				return false
			}
			if l != nil && *l != *r {
				return false
			}
		}
	}
	return true
}

// BoardFromRows rebuilds a board from a grid produced by Rows
func BoardFromRows(rows [][]*BoardCell) (*Board, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("board: empty grid")
	}
	b := NewBoard(len(rows[0]), len(rows))
	for y, row := range rows {
		if len(row) != b.width {
			return nil, fmt.Errorf("board: row %d has %d cells, want %d", y, len(row), b.width)
		}
		for x, c := range row {
			if c == nil {
				continue
			}
			if !c.Rotation.Valid() {
				return nil, fmt.Errorf("board: illegal rotation %d at (%d,%d)", c.Rotation, x, y)
			}
			cp := *c
			b.cells[y][x] = &cp
		}
	}
	return b, nil
}

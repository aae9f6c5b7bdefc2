package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsWithinBoundsAndFree(t *testing.T) {
	b := NewBoard(8, 8)
	b.Place(3, 7, cell(1))
	v := NewPlacementValidator(b, DefaultCatalog())
	p := Piece{Kind: CityCap}

	tests := []struct {
		name string
		pos  Position
		want bool
	}{
		{"empty cell", Position{0, 0}, true},
		{"above the top edge", Position{2, -1}, true},
		{"above the top edge out of columns", Position{8, -1}, false},
		{"left of the board", Position{-1, 3}, false},
		{"right of the board", Position{8, 3}, false},
		{"below the floor", Position{0, 8}, false},
		{"occupied", Position{3, 7}, false},
		{"next to occupied", Position{3, 6}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := v.IsWithinBoundsAndFree(p, tt.pos); got != tt.want {
				t.Errorf("IsWithinBoundsAndFree(%v) = %v, want %v", tt.pos, got, tt.want)
			}
		})
	}
}

func TestEdgesConflict(t *testing.T) {
	tests := []struct {
		name string
		a, b Edge
		want bool
	}{
		{"both empty", none, none, false},
		{"city against empty", c0, none, true},
		{"empty against road", none, r0, true},
		{"city against road", c0, r0, true},
		{"city against city", c0, c0, false},
		{"indexes never matter", c0, c1, false},
		{"road against road", r1, r2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EdgesConflict(tt.a, tt.b))
			assert.Equal(t, tt.want, EdgesConflict(tt.b, tt.a), "conflict must be symmetric")
		})
	}
}

func TestHasEdgeConflictSymmetric(t *testing.T) {
	c := DefaultCatalog()
	rotations := []Rotation{Rotate0, Rotate90, Rotate180, Rotate270}

	for _, ka := range c.Kinds() {
		for _, ra := range rotations {
			for _, kb := range c.Kinds() {
				for _, rb := range rotations {
					// A settled at (3,4), B arriving east of it
					b1 := NewBoard(8, 8)
					b1.Place(3, 4, BoardCell{Kind: ka, Rotation: ra, TileID: 1})
					ab := NewPlacementValidator(b1, c).HasEdgeConflict(Piece{Kind: kb, Rotation: rb}, Position{4, 4})

					// B settled at (4,4), A arriving west of it
					b2 := NewBoard(8, 8)
					b2.Place(4, 4, BoardCell{Kind: kb, Rotation: rb, TileID: 1})
					ba := NewPlacementValidator(b2, c).HasEdgeConflict(Piece{Kind: ka, Rotation: ra}, Position{3, 4})

					if ab != ba {
						t.Fatalf("asymmetric conflict %s@%d vs %s@%d: %v != %v", ka, ra, kb, rb, ab, ba)
					}
				}
			}
		}
	}
}

func TestCanPlace(t *testing.T) {
	c := DefaultCatalog()
	b := NewBoard(8, 8)
	// city cap with its city facing east
	b.Place(3, 7, BoardCell{Kind: CityCap, Rotation: Rotate90, TileID: 1})
	v := NewPlacementValidator(b, c)

	// city facing west matches
	assert.True(t, v.CanPlace(Piece{Kind: CityCap, Rotation: Rotate270}, Position{4, 7}))
	// blank west edge against the city
	assert.False(t, v.CanPlace(Piece{Kind: CityCap, Rotation: Rotate0}, Position{4, 7}))
	// road against city
	assert.False(t, v.CanPlace(Piece{Kind: Straight, Rotation: Rotate90}, Position{4, 7}))
	// above the city cap: its north edge is empty, monastery fits
	assert.True(t, v.CanPlace(Piece{Kind: Monastery}, Position{3, 6}))
	// occupied
	assert.False(t, v.CanPlace(Piece{Kind: Monastery}, Position{3, 7}))
	// off-board neighbors never conflict
	assert.True(t, v.CanPlace(Piece{Kind: QuadrupleCityWithCoa}, Position{0, 0}))
}

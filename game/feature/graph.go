package feature

import (
	"fmt"
	"slices"
)

// Kind tags the family a feature belongs to. It is an open tag: the graph
// never special-cases a kind.
type Kind string

const (
	Road Kind = "road"
	City Kind = "city"
)

// Graph is a union-find over feature instances.
type Graph struct {
	parent    []int
	rank      []int
	openSides []int
	bonus     []int
	tileIDs   [][]int
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{}
}

// NewFeature registers one feature instance contributed by tileID and returns
// its id. openSides is the number of edge slots of the tile that belong to
// the instance.
func (g *Graph) NewFeature(tileID, openSides int, hasBonus bool) int {
	if openSides < 0 {
		panic(fmt.Sprintf("feature: negative open sides %d for tile %d", openSides, tileID))
	}
	id := len(g.parent)
	g.parent = append(g.parent, id)
	g.rank = append(g.rank, 1)
	g.openSides = append(g.openSides, openSides)
	b := 0
	if hasBonus {
		b = 1
	}
	g.bonus = append(g.bonus, b)
	g.tileIDs = append(g.tileIDs, []int{tileID})
	return id
}

// Len returns the number of feature instances ever created since the last
// reset.
func (g *Graph) Len() int {
	return len(g.parent)
}

func (g *Graph) check(x int) {
	if x < 0 || x >= len(g.parent) {
		panic(fmt.Sprintf("feature: unknown feature id %d (have %d)", x, len(g.parent)))
	}
}

// Root returns the representative of x, compressing the path on the way.
func (g *Graph) Root(x int) int {
	g.check(x)
	r := x
	for g.parent[r] != r {
		r = g.parent[r]
	}
	for g.parent[x] != r {
		next := g.parent[x]
		g.parent[x] = r
		x = next
	}
	return r
}

// Unite records that one open end of x's region touches one open end of y's
// region. When both already share a root the region closed a loop onto
// itself and only loses the two matched ends. Counts are not clamped: a
// region that pairs an edge twice goes negative and never completes.
func (g *Graph) Unite(x, y int) {
	rx, ry := g.Root(x), g.Root(y)
	if rx == ry {
		g.openSides[rx] -= 2
		return
	}
	if g.rank[rx] > g.rank[ry] {
		rx, ry = ry, rx
	}
	// rx hangs under ry.
	g.parent[rx] = ry
	g.rank[ry] += g.rank[rx]
	g.openSides[ry] += g.openSides[rx] - 2
	g.bonus[ry] += g.bonus[rx]
	g.tileIDs[ry] = append(g.tileIDs[ry], g.tileIDs[rx]...)
	g.tileIDs[rx] = nil
}

// SameSet reports whether x and y belong to the same region.
func (g *Graph) SameSet(x, y int) bool {
	return g.Root(x) == g.Root(y)
}

// IsCompleted reports whether x's region has no open ends left.
func (g *Graph) IsCompleted(x int) bool {
	return g.openSides[g.Root(x)] == 0
}

// OpenSides returns the open-end count of x's region.
func (g *Graph) OpenSides(x int) int {
	return g.openSides[g.Root(x)]
}

// Bonus returns the number of bonus markers in x's region.
func (g *Graph) Bonus(x int) int {
	return g.bonus[g.Root(x)]
}

// Size is the number of distinct member tiles plus the bonus markers.
func (g *Graph) Size(x int) int {
	r := g.Root(x)
	return len(unique(g.tileIDs[r])) + g.bonus[r]
}

// TileIDs returns every tile id recorded for x's region, duplicates included.
func (g *Graph) TileIDs(x int) []int {
	return slices.Clone(g.tileIDs[g.Root(x)])
}

// UniqueTileIDs returns the distinct tile ids of x's region in ascending
// order.
func (g *Graph) UniqueTileIDs(x int) []int {
	return unique(g.tileIDs[g.Root(x)])
}

// Reset drops every feature.
func (g *Graph) Reset() {
	g.parent = nil
	g.rank = nil
	g.openSides = nil
	g.bonus = nil
	g.tileIDs = nil
}

func unique(ids []int) []int {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

// GraphSnapshot is the serialisable form of a Graph.
type GraphSnapshot struct {
	Parent    []int   `json:"parent"`
	Rank      []int   `json:"rank"`
	OpenSides []int   `json:"open_sides"`
	Bonus     []int   `json:"bonus"`
	TileIDs   [][]int `json:"tile_ids"`
}

// Snapshot copies the graph state.
func (g *Graph) Snapshot() GraphSnapshot {
	tiles := make([][]int, len(g.tileIDs))
	for i, ids := range g.tileIDs {
		tiles[i] = slices.Clone(ids)
	}
	return GraphSnapshot{
		Parent:    slices.Clone(g.parent),
		Rank:      slices.Clone(g.rank),
		OpenSides: slices.Clone(g.openSides),
		Bonus:     slices.Clone(g.bonus),
		TileIDs:   tiles,
	}
}

// Restore replaces the graph state with s.
func (g *Graph) Restore(s GraphSnapshot) error {
	n := len(s.Parent)
	if len(s.Rank) != n || len(s.OpenSides) != n || len(s.Bonus) != n || len(s.TileIDs) != n {
		return fmt.Errorf("feature: inconsistent snapshot lengths")
	}
	for i, p := range s.Parent {
		if p < 0 || p >= n {
			return fmt.Errorf("feature: snapshot parent %d of %d out of range", p, i)
		}
	}
	restored := GraphSnapshot{}
	restored.Parent = slices.Clone(s.Parent)
	restored.Rank = slices.Clone(s.Rank)
	restored.OpenSides = slices.Clone(s.OpenSides)
	restored.Bonus = slices.Clone(s.Bonus)
	restored.TileIDs = make([][]int, n)
	for i, ids := range s.TileIDs {
		restored.TileIDs[i] = slices.Clone(ids)
	}
	g.parent = restored.Parent
	g.rank = restored.Rank
	g.openSides = restored.OpenSides
	g.bonus = restored.Bonus
	g.tileIDs = restored.TileIDs
	return nil
}

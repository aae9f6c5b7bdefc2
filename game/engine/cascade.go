package engine

import (
	"sort"

	"github.com/wricardo/mcp-training/tiletris/game/feature"
)

// CompletedFeature is a closed region found by a completion scan
type CompletedFeature struct {
	Kind    feature.Kind `json:"kind"`
	Root    int          `json:"root"`
	TileIDs []int        `json:"tile_ids"`
	Size    int          `json:"size"`
	Points  int          `json:"points"`
}

// SpecialCompletion is a surroundable tile whose eight neighbors were all
// occupied
type SpecialCompletion struct {
	Kind     TileKind   `json:"kind"`
	Position Position   `json:"position"`
	Cleared  []Position `json:"cleared"`
	Points   int        `json:"points"`
}

// Resolution is the outcome of one cascade
type Resolution struct {
	Features       []CompletedFeature  `json:"features"`
	Specials       []SpecialCompletion `json:"specials"`
	RemovedTileIDs []int               `json:"removed_tile_ids"`
	ScoreDelta     int                 `json:"score_delta"`
}

// Empty reports whether the cascade changed nothing
func (r Resolution) Empty() bool {
	return len(r.Features) == 0 && len(r.Specials) == 0
}

// CascadeResolver owns the feature bookkeeping of one game and runs the
// completion, removal and gravity pipeline over its board.
type CascadeResolver struct {
	board   *Board
	catalog *Catalog
	graph   *feature.Graph
	index   *feature.Index
	rules   ScoringRules
}

// NewCascadeResolver binds a resolver to the state it works on
func NewCascadeResolver(board *Board, catalog *Catalog, graph *feature.Graph, index *feature.Index, rules ScoringRules) *CascadeResolver {
	return &CascadeResolver{board: board, catalog: catalog, graph: graph, index: index, rules: rules}
}

// InstantiateFeatures creates one feature per distinct (kind, local index)
// pair of a freshly placed tile, for every scoring feature kind. Each feature
// starts with as many open sides as edge slots it spans.
func (r *CascadeResolver) InstantiateFeatures(tileID int, kind TileKind) []int {
	def := r.catalog.mustDefinition(kind)
	var created []int
	for _, fk := range r.rules.Kinds() {
		indexes, sides := r.catalog.FeatureSides(kind, fk)
		for _, idx := range indexes {
			id := r.graph.NewFeature(tileID, sides[idx], def.Bonus && fk == feature.City)
			r.index.Set(fk, tileID, idx, id)
			created = append(created, id)
		}
	}
	return created
}

// MergeNeighbors unites the features of the tile at pos with the matching
// features of its settled neighbors. It returns the number of unions.
func (r *CascadeResolver) MergeNeighbors(pos Position) int {
	cell := r.board.CellAt(pos.X, pos.Y)
	if cell == nil {
		return 0
	}
	edges := r.catalog.RotatedEdges(cell.Kind, cell.Rotation)
	merges := 0
	for _, side := range Sides {
		e := edges[side]
		if e.IsEmpty() || r.rules.Multiplier(e.Kind) <= 0 {
			continue
		}
		np, ok := r.board.NeighborPosition(pos.X, pos.Y, side)
		if !ok {
			continue
		}
		neighbor := r.board.CellAt(np.X, np.Y)
		if neighbor == nil {
			continue
		}
		facing := r.catalog.RotatedEdges(neighbor.Kind, neighbor.Rotation)[side.Opposite()]
		if facing.Kind != e.Kind {
			continue
		}
		a, okA := r.index.Lookup(e.Kind, cell.TileID, e.Index)
		b, okB := r.index.Lookup(e.Kind, neighbor.TileID, facing.Index)
		if !okA || !okB {
			continue
		}
		r.graph.Unite(a, b)
		merges++
	}
	return merges
}

// CompletedFeatures scans every settled tile once and reports each completed
// region a single time.
func (r *CascadeResolver) CompletedFeatures() []CompletedFeature {
	var out []CompletedFeature
	seen := make(map[int]bool)
	r.board.Each(func(_ Position, cell BoardCell) {
		for _, fk := range r.rules.Kinds() {
			for _, id := range r.index.Features(fk, cell.TileID) {
				root := r.graph.Root(id)
				if seen[root] || !r.graph.IsCompleted(root) {
					continue
				}
				seen[root] = true
				size := r.graph.Size(root)
				out = append(out, CompletedFeature{
					Kind:    fk,
					Root:    root,
					TileIDs: r.graph.UniqueTileIDs(root),
					Size:    size,
					Points:  r.rules.Multiplier(fk) * size,
				})
			}
		}
	})
	return out
}

// PreviewRemovals lists the tile ids a resolution run now would remove for
// completed regions, ascending.
func (r *CascadeResolver) PreviewRemovals() []int {
	ids := make(map[int]bool)
	for _, cf := range r.CompletedFeatures() {
		for _, id := range cf.TileIDs {
			ids[id] = true
		}
	}
	return sortedKeys(ids)
}

// Resolve runs the cascade: completion scan, removal, gravity, surrounded
// tile scan on the settled result, removal, gravity, then the score delta.
// Gravity only runs after something was removed.
func (r *CascadeResolver) Resolve() Resolution {
	var res Resolution
	removed := make(map[int]bool)

	res.Features = r.CompletedFeatures()
	for _, cf := range res.Features {
		res.ScoreDelta += cf.Points
		for _, id := range cf.TileIDs {
			removed[id] = true
		}
	}
	if len(removed) > 0 {
		r.board.RemoveTiles(removed)
		for id := range removed {
			r.index.Forget(id)
		}
		r.board.ApplyGravity()
	}

	res.Specials = r.surrounded()
	if len(res.Specials) > 0 {
		for _, sc := range res.Specials {
			res.ScoreDelta += sc.Points
			for _, p := range sc.Cleared {
				if c := r.board.Remove(p.X, p.Y); c != nil {
					removed[c.TileID] = true
					r.index.Forget(c.TileID)
				}
			}
		}
		r.board.ApplyGravity()
	}

	res.RemovedTileIDs = sortedKeys(removed)
	return res
}

// surrounded finds every surroundable tile with all eight neighbors in bounds
// and occupied. Decisions are taken on the board as it is before any of them
// clears anything.
func (r *CascadeResolver) surrounded() []SpecialCompletion {
	var out []SpecialCompletion
	r.board.Each(func(pos Position, cell BoardCell) {
		def, ok := r.catalog.Definition(cell.Kind)
		if !ok || !def.Surroundable {
			return
		}
		block := make([]Position, 0, 9)
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				x, y := pos.X+dx, pos.Y+dy
				if !r.board.InBounds(x, y) || !r.board.Occupied(x, y) {
					return
				}
				block = append(block, Position{X: x, Y: y})
			}
		}
		out = append(out, SpecialCompletion{
			Kind:     cell.Kind,
			Position: pos,
			Cleared:  block,
			Points:   r.rules.SpecialBonus,
		})
	})
	return out
}

// Reset drops every feature
func (r *CascadeResolver) Reset() {
	r.graph.Reset()
	r.index.Reset()
}

func sortedKeys(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wricardo/mcp-training/tiletris/game/feature"
)

// Tile kinds of the default catalog
const (
	Straight                   TileKind = "straight"
	Curve                      TileKind = "curve"
	TripleRoad                 TileKind = "triple_road"
	QuadrupleRoad              TileKind = "quadruple_road"
	Triangle                   TileKind = "triangle"
	Connector                  TileKind = "connector"
	CityCap                    TileKind = "city_cap"
	Monastery                  TileKind = "monastery"
	Separator                  TileKind = "separator"
	VerticalSeparator          TileKind = "vertical_separator"
	Left                       TileKind = "left"
	Right                      TileKind = "right"
	TriangleWithRoad           TileKind = "triangle_with_road"
	CityCapWithStraight        TileKind = "city_cap_with_straight"
	MonasteryWithRoad          TileKind = "monastery_with_road"
	TripleCity                 TileKind = "triple_city"
	ConnectorWithCoa           TileKind = "connector_with_coa"
	TriangleWithCoa            TileKind = "triangle_with_coa"
	TriangleWithRoadWithCoa    TileKind = "triangle_with_road_with_coa"
	TripleCityWithCoa          TileKind = "triple_city_with_coa"
	TripleCityWithRoad         TileKind = "triple_city_with_road"
	TripleCityWithRoadWithCoa  TileKind = "triple_city_with_road_with_coa"
	QuadrupleCityWithCoa       TileKind = "quadruple_city_with_coa"
	CityCapWithCrossroads      TileKind = "city_cap_with_crossroads"
	coatOfArmsSuffix                    = "_with_coa"
)

// Source is the random source used to draw tile kinds
type Source interface {
	IntN(n int) int
}

var (
	none = Edge{}
	c0   = Edge{Kind: feature.City, Index: 0}
	c1   = Edge{Kind: feature.City, Index: 1}
	r0   = Edge{Kind: feature.Road, Index: 0}
	r1   = Edge{Kind: feature.Road, Index: 1}
	r2   = Edge{Kind: feature.Road, Index: 2}
	r3   = Edge{Kind: feature.Road, Index: 3}
)

var defaultTiles = []struct {
	kind   TileKind
	edges  Edges
	weight int
}{
	{Straight, Edges{r0, none, r0, none}, 10},
	{Curve, Edges{none, none, r0, r0}, 10},
	{TripleRoad, Edges{none, r0, r1, r2}, 6},
	{QuadrupleRoad, Edges{r0, r1, r2, r3}, 3},
	{Triangle, Edges{c0, none, none, c0}, 5},
	{Connector, Edges{none, c0, none, c0}, 2},
	{CityCap, Edges{c0, none, none, none}, 10},
	{Monastery, Edges{none, none, none, none}, 0},
	{Separator, Edges{c0, none, none, c1}, 0},
	{VerticalSeparator, Edges{c0, none, c1, none}, 0},
	{Left, Edges{c0, none, r0, r0}, 10},
	{Right, Edges{c0, r0, r0, none}, 10},
	{TriangleWithRoad, Edges{c0, r0, r0, c0}, 5},
	{CityCapWithStraight, Edges{c0, r0, none, r0}, 10},
	{MonasteryWithRoad, Edges{none, none, r0, none}, 0},
	{TripleCity, Edges{c0, c0, none, c0}, 5},
	{ConnectorWithCoa, Edges{none, c0, none, c0}, 5},
	{TriangleWithCoa, Edges{c0, none, none, c0}, 3},
	{TriangleWithRoadWithCoa, Edges{c0, r0, r0, c0}, 3},
	{TripleCityWithCoa, Edges{c0, c0, none, c0}, 2},
	{TripleCityWithRoad, Edges{c0, c0, r0, c0}, 2},
	{TripleCityWithRoadWithCoa, Edges{c0, c0, r0, c0}, 4},
	{QuadrupleCityWithCoa, Edges{c0, c0, c0, c0}, 1},
	{CityCapWithCrossroads, Edges{c0, r0, r1, r2}, 8},
}

// Catalog is an immutable lookup from tile kind to its definition
type Catalog struct {
	order []TileKind
	defs  map[TileKind]TileDefinition
	total int
}

// NewCatalog builds a catalog from definitions, keeping their order for
// sampling.
func NewCatalog(defs []TileDefinition) (*Catalog, error) {
	c := &Catalog{defs: make(map[TileKind]TileDefinition, len(defs))}
	for _, def := range defs {
		if def.Kind == "" {
			return nil, fmt.Errorf("catalog: tile kind is required")
		}
		if _, dup := c.defs[def.Kind]; dup {
			return nil, fmt.Errorf("catalog: duplicate tile kind %q", def.Kind)
		}
		if def.Weight < 0 {
			return nil, fmt.Errorf("catalog: tile %q has negative weight %d", def.Kind, def.Weight)
		}
		c.order = append(c.order, def.Kind)
		c.defs[def.Kind] = def
		c.total += def.Weight
	}
	return c, nil
}

// DefaultCatalog returns the standard tile set
func DefaultCatalog() *Catalog {
	defs := make([]TileDefinition, 0, len(defaultTiles))
	for _, t := range defaultTiles {
		defs = append(defs, TileDefinition{
			Kind:         t.kind,
			Edges:        t.edges,
			Weight:       t.weight,
			Bonus:        strings.HasSuffix(string(t.kind), coatOfArmsSuffix),
			Surroundable: t.kind == Monastery || t.kind == MonasteryWithRoad,
		})
	}
	c, err := NewCatalog(defs)
	if err != nil {
		panic(err)
	}
	return c
}

// WithWeights returns a copy of the catalog with the given weights replaced
func (c *Catalog) WithWeights(weights map[TileKind]int) (*Catalog, error) {
	defs := c.Definitions()
	for kind := range weights {
		if _, ok := c.defs[kind]; !ok {
			return nil, fmt.Errorf("catalog: unknown tile kind %q", kind)
		}
	}
	for i := range defs {
		if w, ok := weights[defs[i].Kind]; ok {
			defs[i].Weight = w
		}
	}
	return NewCatalog(defs)
}

// Kinds returns every kind in catalog order
func (c *Catalog) Kinds() []TileKind {
	return append([]TileKind(nil), c.order...)
}

// Definitions returns every definition in catalog order
func (c *Catalog) Definitions() []TileDefinition {
	defs := make([]TileDefinition, 0, len(c.order))
	for _, kind := range c.order {
		defs = append(defs, c.defs[kind])
	}
	return defs
}

// Definition looks up a kind
func (c *Catalog) Definition(kind TileKind) (TileDefinition, bool) {
	def, ok := c.defs[kind]
	return def, ok
}

func (c *Catalog) mustDefinition(kind TileKind) TileDefinition {
	def, ok := c.defs[kind]
	if !ok {
		panic(fmt.Sprintf("engine: unknown tile kind %q", kind))
	}
	return def
}

// EdgesOf returns the unrotated edges of kind
func (c *Catalog) EdgesOf(kind TileKind) Edges {
	return c.mustDefinition(kind).Edges
}

// RotatedEdges returns the edges of kind as seen at rotation r
func (c *Catalog) RotatedEdges(kind TileKind, r Rotation) Edges {
	return RotateEdges(c.EdgesOf(kind), r)
}

// RotateEdges turns edges clockwise: each quarter turn moves slot 3 to 0,
// 0 to 1, 1 to 2 and 2 to 3.
func RotateEdges(edges Edges, r Rotation) Edges {
	steps := r.Steps()
	var out Edges
	for j := range out {
		out[j] = edges[(j-steps+4)%4]
	}
	return out
}

// TotalWeight is the sum of every weight
func (c *Catalog) TotalWeight() int {
	return c.total
}

// Probability is the chance of drawing kind
func (c *Catalog) Probability(kind TileKind) float64 {
	if c.total == 0 {
		return 0
	}
	return float64(c.defs[kind].Weight) / float64(c.total)
}

// Sample draws a kind proportionally to its weight. Kinds with weight zero
// are never drawn.
func (c *Catalog) Sample(rng Source) TileKind {
	if c.total <= 0 {
		panic("engine: catalog has no drawable tile")
	}
	draw := rng.IntN(c.total)
	for _, kind := range c.order {
		w := c.defs[kind].Weight
		if draw < w {
			return kind
		}
		draw -= w
	}
	panic(fmt.Sprintf("engine: draw %d outside total weight %d", draw, c.total))
}

// FeatureSides counts, per local index, how many edge slots of kind belong to
// each feature instance of the given feature kind. Indexes are returned in
// ascending order.
func (c *Catalog) FeatureSides(kind TileKind, fk feature.Kind) (indexes []int, sides map[int]int) {
	sides = make(map[int]int)
	for _, e := range c.EdgesOf(kind) {
		if e.Kind == fk {
			sides[e.Index]++
		}
	}
	for idx := range sides {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	return indexes, sides
}

// EdgeSummary renders edges compactly, e.g. "N:city0 E:- S:road0 W:-"
func EdgeSummary(edges Edges) string {
	parts := make([]string, 0, 4)
	for _, side := range Sides {
		e := edges[side]
		label := "-"
		if !e.IsEmpty() {
			label = fmt.Sprintf("%s%d", e.Kind, e.Index)
		}
		parts = append(parts, fmt.Sprintf("%s:%s", strings.ToUpper(side.String()[:1]), label))
	}
	return strings.Join(parts, " ")
}

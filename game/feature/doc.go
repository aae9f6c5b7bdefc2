// Package feature tracks connected edge regions (cities, roads) across placed
// tiles.
//
// Graph is an augmented disjoint-set structure: besides parent pointers and
// ranks, every root carries the number of still-open edge ends of its region,
// the number of bonus markers (shields) on member tiles, and the tile ids that
// contributed to it. A region is complete when its open-side count reaches
// zero.
//
// Index maps a placed tile id to the feature ids it created, one table per
// feature kind. Both types are plain values owned by a single game; nothing in
// this package is process-wide.
//
// Usage:
//
//	g := feature.NewGraph()
//	a := g.NewFeature(1, 1, false) // city cap facing east
//	b := g.NewFeature(2, 1, false) // city cap facing west
//	g.Unite(a, b)
//	g.IsCompleted(a) // true
//	g.Size(a)        // 2
package feature

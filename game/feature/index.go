package feature

import (
	"slices"

	"github.com/kamstrup/intmap"
)

// Index maps a placed tile id to the feature ids it created. The slice for a
// tile is positioned by the tile's local feature index; -1 marks a local index
// the tile does not use.
type Index struct {
	kinds map[Kind]*intmap.Map[int, []int]
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{kinds: make(map[Kind]*intmap.Map[int, []int])}
}

func (ix *Index) table(kind Kind) *intmap.Map[int, []int] {
	m, ok := ix.kinds[kind]
	if !ok {
		m = intmap.New[int, []int](64)
		ix.kinds[kind] = m
	}
	return m
}

// Set records featureID as the feature for the given local index of tileID.
func (ix *Index) Set(kind Kind, tileID, localIndex, featureID int) {
	m := ix.table(kind)
	ids, _ := m.Get(tileID)
	for len(ids) <= localIndex {
		ids = append(ids, -1)
	}
	ids[localIndex] = featureID
	m.Put(tileID, ids)
}

// Lookup returns the feature id for a local index of tileID.
func (ix *Index) Lookup(kind Kind, tileID, localIndex int) (int, bool) {
	m, ok := ix.kinds[kind]
	if !ok {
		return 0, false
	}
	ids, ok := m.Get(tileID)
	if !ok || localIndex < 0 || localIndex >= len(ids) || ids[localIndex] < 0 {
		return 0, false
	}
	return ids[localIndex], true
}

// Features returns every feature id tileID created for kind.
func (ix *Index) Features(kind Kind, tileID int) []int {
	m, ok := ix.kinds[kind]
	if !ok {
		return nil
	}
	ids, _ := m.Get(tileID)
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if id >= 0 {
			out = append(out, id)
		}
	}
	return out
}

// Forget drops tileID from every kind table.
func (ix *Index) Forget(tileID int) {
	for _, m := range ix.kinds {
		m.Del(tileID)
	}
}

// Len returns how many tiles have entries for kind.
func (ix *Index) Len(kind Kind) int {
	m, ok := ix.kinds[kind]
	if !ok {
		return 0
	}
	return m.Len()
}

// Reset empties every table.
func (ix *Index) Reset() {
	for _, m := range ix.kinds {
		m.Clear()
	}
}

// IndexSnapshot is the serialisable form of an Index, keyed by kind then tile
// id.
type IndexSnapshot map[Kind]map[int][]int

// Snapshot copies the entries of tile ids 1..maxTileID.
func (ix *Index) Snapshot(maxTileID int) IndexSnapshot {
	out := make(IndexSnapshot, len(ix.kinds))
	for kind, m := range ix.kinds {
		entries := make(map[int][]int)
		for id := 1; id <= maxTileID; id++ {
			if ids, ok := m.Get(id); ok {
				entries[id] = slices.Clone(ids)
			}
		}
		out[kind] = entries
	}
	return out
}

// Restore replaces the index content with s.
func (ix *Index) Restore(s IndexSnapshot) {
	ix.kinds = make(map[Kind]*intmap.Map[int, []int], len(s))
	for kind, entries := range s {
		m := ix.table(kind)
		for tileID, ids := range entries {
			m.Put(tileID, slices.Clone(ids))
		}
	}
}

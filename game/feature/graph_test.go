package feature

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFeature(t *testing.T) {
	g := NewGraph()
	a := g.NewFeature(1, 2, false)
	b := g.NewFeature(2, 1, true)

	assert.Equal(t, 0, a)
	assert.Equal(t, 1, b)
	assert.Equal(t, 2, g.Len())
	assert.Equal(t, a, g.Root(a))
	assert.Equal(t, 2, g.OpenSides(a))
	assert.Equal(t, 0, g.Bonus(a))
	assert.Equal(t, 1, g.Bonus(b))
	assert.Equal(t, 1, g.Size(a))
	assert.Equal(t, 2, g.Size(b))
	assert.False(t, g.IsCompleted(a))
}

func TestUniteTwoCaps(t *testing.T) {
	g := NewGraph()
	a := g.NewFeature(1, 1, false)
	b := g.NewFeature(2, 1, false)

	g.Unite(a, b)

	assert.True(t, g.SameSet(a, b))
	assert.True(t, g.IsCompleted(a))
	assert.True(t, g.IsCompleted(b))
	assert.Equal(t, 2, g.Size(a))
	assert.Equal(t, []int{1, 2}, g.UniqueTileIDs(b))
}

func TestUniteRankAndAggregates(t *testing.T) {
	g := NewGraph()
	a := g.NewFeature(1, 2, true)
	b := g.NewFeature(2, 2, false)
	c := g.NewFeature(3, 3, true)

	g.Unite(a, b)
	// equal ranks: the first argument hangs under the second
	assert.Equal(t, b, g.Root(a))
	assert.Equal(t, 2, g.OpenSides(a))
	assert.Equal(t, 1, g.Bonus(a))

	g.Unite(a, c)
	// the smaller region hangs under the larger one
	assert.Equal(t, b, g.Root(c))
	assert.Equal(t, 3, g.OpenSides(c))
	assert.Equal(t, 2, g.Bonus(c))
	assert.Equal(t, 3+2, g.Size(a))
	assert.ElementsMatch(t, []int{1, 2, 3}, g.TileIDs(a))
}

func TestUniteSameRootSubtractsTwo(t *testing.T) {
	g := NewGraph()
	a := g.NewFeature(1, 2, false)
	b := g.NewFeature(2, 2, false)
	g.Unite(a, b)
	require.Equal(t, 2, g.OpenSides(a))
	root := g.Root(a)

	g.Unite(b, a)

	assert.Equal(t, root, g.Root(a))
	assert.Equal(t, 0, g.OpenSides(a))
	assert.True(t, g.IsCompleted(b))
}

func TestDoublePairingGoesNegative(t *testing.T) {
	g := NewGraph()
	a := g.NewFeature(1, 1, false)
	b := g.NewFeature(2, 1, false)
	g.Unite(a, b)
	assert.Equal(t, 0, g.OpenSides(a))
	assert.True(t, g.IsCompleted(a))

	// the same ends paired again
	g.Unite(a, b)
	assert.Equal(t, -2, g.OpenSides(a))
	assert.False(t, g.IsCompleted(a))
}

func TestUniteArithmeticIsExact(t *testing.T) {
	g := NewGraph()
	a := g.NewFeature(1, 1, false)
	b := g.NewFeature(2, 2, false)
	g.Unite(a, b)
	assert.Equal(t, 1, g.OpenSides(a))

	c := g.NewFeature(3, 2, false)
	g.Unite(c, a)
	assert.Equal(t, 1, g.OpenSides(c))
	g.Unite(c, b)
	assert.Equal(t, -1, g.OpenSides(b))
	assert.False(t, g.IsCompleted(a))
}

func TestSizeCountsDuplicateTileOnce(t *testing.T) {
	g := NewGraph()
	// a separator style tile contributing twice to one region
	a := g.NewFeature(7, 1, false)
	b := g.NewFeature(7, 1, false)
	c := g.NewFeature(8, 2, true)

	g.Unite(a, c)
	g.Unite(b, c)

	assert.Equal(t, []int{7, 7, 8}, sortedCopy(g.TileIDs(a)))
	assert.Equal(t, []int{7, 8}, g.UniqueTileIDs(a))
	assert.Equal(t, 3, g.Size(a))
	assert.True(t, g.IsCompleted(a))
}

func TestRootPanicsOnUnknownID(t *testing.T) {
	g := NewGraph()
	g.NewFeature(1, 1, false)

	assert.Panics(t, func() { g.Root(5) })
	assert.Panics(t, func() { g.Root(-1) })
	assert.Panics(t, func() { g.NewFeature(2, -1, false) })
}

func TestReset(t *testing.T) {
	g := NewGraph()
	a := g.NewFeature(1, 1, false)
	b := g.NewFeature(2, 1, false)
	g.Unite(a, b)

	g.Reset()

	assert.Equal(t, 0, g.Len())
	assert.Equal(t, 0, g.NewFeature(3, 4, false))
}

func TestSnapshotRestore(t *testing.T) {
	g := NewGraph()
	a := g.NewFeature(1, 2, true)
	b := g.NewFeature(2, 1, false)
	c := g.NewFeature(3, 1, false)
	g.Unite(a, b)

	data, err := json.Marshal(g.Snapshot())
	require.NoError(t, err)

	var snap GraphSnapshot
	require.NoError(t, json.Unmarshal(data, &snap))

	restored := NewGraph()
	require.NoError(t, restored.Restore(snap))

	assert.Equal(t, g.Len(), restored.Len())
	assert.True(t, restored.SameSet(a, b))
	assert.False(t, restored.SameSet(a, c))
	assert.Equal(t, g.OpenSides(a), restored.OpenSides(a))
	assert.Equal(t, g.Size(a), restored.Size(a))

	// the copy is independent
	restored.Unite(a, c)
	assert.False(t, g.SameSet(a, c))
}

func TestRestoreRejectsBrokenSnapshot(t *testing.T) {
	g := NewGraph()
	err := g.Restore(GraphSnapshot{Parent: []int{3}, Rank: []int{1}, OpenSides: []int{1}, Bonus: []int{0}, TileIDs: [][]int{{1}}})
	assert.Error(t, err)

	err = g.Restore(GraphSnapshot{Parent: []int{0, 1}, Rank: []int{1}})
	assert.Error(t, err)
}

func TestRestoreKeepsNegativeOpenSides(t *testing.T) {
	g := NewGraph()
	a := g.NewFeature(1, 1, false)
	b := g.NewFeature(2, 1, false)
	g.Unite(a, b)
	g.Unite(a, b)

	restored := NewGraph()
	require.NoError(t, restored.Restore(g.Snapshot()))
	assert.Equal(t, -2, restored.OpenSides(a))
	assert.False(t, restored.IsCompleted(b))
}

func sortedCopy(ids []int) []int {
	out := slices.Clone(ids)
	slices.Sort(out)
	return out
}

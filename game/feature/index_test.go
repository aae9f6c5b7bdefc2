package feature

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexSetLookup(t *testing.T) {
	ix := NewIndex()
	ix.Set(City, 4, 1, 12)
	ix.Set(City, 4, 0, 11)
	ix.Set(Road, 4, 2, 30)

	id, ok := ix.Lookup(City, 4, 0)
	require.True(t, ok)
	assert.Equal(t, 11, id)

	id, ok = ix.Lookup(City, 4, 1)
	require.True(t, ok)
	assert.Equal(t, 12, id)

	_, ok = ix.Lookup(Road, 4, 0)
	assert.False(t, ok, "gap before local index 2 is not a feature")

	_, ok = ix.Lookup(City, 5, 0)
	assert.False(t, ok)

	_, ok = ix.Lookup(Kind("river"), 4, 0)
	assert.False(t, ok)

	assert.Equal(t, []int{11, 12}, ix.Features(City, 4))
	assert.Equal(t, []int{30}, ix.Features(Road, 4))
	assert.Empty(t, ix.Features(Kind("river"), 4))
}

func TestIndexForget(t *testing.T) {
	ix := NewIndex()
	ix.Set(City, 1, 0, 0)
	ix.Set(Road, 1, 0, 1)
	ix.Set(City, 2, 0, 2)

	ix.Forget(1)

	assert.Empty(t, ix.Features(City, 1))
	assert.Empty(t, ix.Features(Road, 1))
	assert.Equal(t, []int{2}, ix.Features(City, 2))
	assert.Equal(t, 1, ix.Len(City))
	assert.Equal(t, 0, ix.Len(Road))
}

func TestIndexReset(t *testing.T) {
	ix := NewIndex()
	ix.Set(City, 1, 0, 0)
	ix.Reset()
	assert.Equal(t, 0, ix.Len(City))
}

func TestIndexSnapshotRestore(t *testing.T) {
	ix := NewIndex()
	ix.Set(City, 1, 0, 0)
	ix.Set(City, 3, 1, 4)
	ix.Set(Road, 2, 0, 2)

	data, err := json.Marshal(ix.Snapshot(3))
	require.NoError(t, err)

	var snap IndexSnapshot
	require.NoError(t, json.Unmarshal(data, &snap))

	restored := NewIndex()
	restored.Restore(snap)

	assert.Equal(t, []int{0}, restored.Features(City, 1))
	assert.Equal(t, []int{4}, restored.Features(City, 3))
	assert.Equal(t, []int{2}, restored.Features(Road, 2))
	_, ok := restored.Lookup(City, 3, 0)
	assert.False(t, ok)
}

package table

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/cmel/internal/object"
)

func TestSetGetDelete(t *testing.T) {
	tbl := New()
	key := object.NewString("foo")

	isNew := tbl.Set(key, 42)
	assert.True(t, isNew)
	assert.Equal(t, 1, tbl.Count())

	v, ok := tbl.Get(key)
	require.True(t, ok)
	assert.Equal(t, 42, v)

	isNew = tbl.Set(key, 43)
	assert.False(t, isNew, "overwriting an existing key is not a new insert")
	v, _ = tbl.Get(key)
	assert.Equal(t, 43, v)

	assert.True(t, tbl.Delete(key))
	assert.False(t, tbl.Has(key))
	assert.Equal(t, 0, tbl.Count())
}

func TestTombstoneDoesNotBreakProbeChain(t *testing.T) {
	tbl := New()
	// "a" and "i" hash to the same bucket of an 8-slot table, so b is
	// stored one slot past a.
	a := object.NewString("a")
	b := object.NewString("i")
	tbl.Set(a, 1)
	tbl.Set(b, 2)

	tbl.Delete(a)
	v, ok := tbl.Get(b)
	require.True(t, ok, "deleting a precedes b in its probe chain must not hide b")
	assert.Equal(t, 2, v)
}

func TestGrowPreservesAllEntries(t *testing.T) {
	tbl := New()
	keys := make([]*object.String, 0, 64)
	for i := 0; i < 64; i++ {
		k := object.NewString("key" + strconv.Itoa(i))
		keys = append(keys, k)
		tbl.Set(k, i)
	}
	for i, k := range keys {
		v, ok := tbl.Get(k)
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	assert.Equal(t, 64, tbl.Count())
}

func TestFindStringProbesByContent(t *testing.T) {
	tbl := New()
	s := object.NewString("hello")
	tbl.Set(s, true)

	found := tbl.FindString("hello", object.HashString("hello"))
	assert.Same(t, s, found)

	assert.Nil(t, tbl.FindString("nope", object.HashString("nope")))
}

func TestAddAllCopiesEntries(t *testing.T) {
	src, dst := New(), New()
	k := object.NewString("x")
	src.Set(k, 1)

	AddAll(src, dst)
	v, ok := dst.Get(k)
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestKeysReturnsEveryLiveKey(t *testing.T) {
	tbl := New()
	a, b, c := object.NewString("a"), object.NewString("b"), object.NewString("c")
	tbl.Set(a, 1)
	tbl.Set(b, 2)
	tbl.Set(c, 3)
	tbl.Delete(b)

	keys := tbl.Keys()
	assert.Len(t, keys, 2)
}

package btree

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSearchMissingKeyReturnsFalse(t *testing.T) {
	tr := New(3)
	_, ok := tr.Search("nope")
	require.False(t, ok)
}

func TestInsertAndSearchSingleKey(t *testing.T) {
	tr := New(3)
	tr.Insert("1", 100)
	v, ok := tr.Search("1")
	require.True(t, ok)
	require.Equal(t, int64(100), v)
}

func TestInsertManyKeysTriggersSplitsAndAllRemainSearchable(t *testing.T) {
	tr := New(DefaultOrder)
	const n = 200
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("k%04d", i)
		tr.Insert(key, int64(i))
	}
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("k%04d", i)
		v, ok := tr.Search(key)
		require.True(t, ok, "missing key %s", key)
		require.Equal(t, int64(i), v)
	}
	require.Equal(t, n, tr.Len())
}

func TestInsertOverwritesExistingKeyValue(t *testing.T) {
	tr := New(3)
	tr.Insert("a", 1)
	tr.Insert("a", 2)
	v, ok := tr.Search("a")
	require.True(t, ok)
	require.Equal(t, int64(2), v)
	require.Equal(t, 1, tr.Len())
}

func TestDeleteRemovesKeyAndPreservesSearchCorrectness(t *testing.T) {
	tr := New(3)
	for i := 0; i < 30; i++ {
		tr.Insert(fmt.Sprintf("k%02d", i), int64(i))
	}
	require.True(t, tr.Delete("k15"))
	_, ok := tr.Search("k15")
	require.False(t, ok)

	for i := 0; i < 30; i++ {
		if i == 15 {
			continue
		}
		v, ok := tr.Search(fmt.Sprintf("k%02d", i))
		require.True(t, ok)
		require.Equal(t, int64(i), v)
	}
}

func TestDeleteMissingKeyReturnsFalse(t *testing.T) {
	tr := New(3)
	tr.Insert("a", 1)
	require.False(t, tr.Delete("b"))
}

func TestDeleteDrainingTreeToZeroKeysAfterSplitDoesNotPanic(t *testing.T) {
	tr := New(DefaultOrder)
	const n = 5
	for i := 0; i < n; i++ {
		tr.Insert(fmt.Sprintf("k%02d", i), int64(i))
	}
	require.False(t, tr.root.leaf, "expected the root to have split into an internal node")

	for i := 0; i < n; i++ {
		require.True(t, tr.Delete(fmt.Sprintf("k%02d", i)))
	}
	require.Equal(t, 0, tr.Len())

	_, ok := tr.Search("k00")
	require.False(t, ok)

	tr.Insert("k00", 42)
	v, ok := tr.Search("k00")
	require.True(t, ok)
	require.Equal(t, int64(42), v)
}

func TestKeysCompareLexicographically(t *testing.T) {
	tr := New(3)
	tr.Insert("10", 1)
	tr.Insert("9", 2)
	tr.Insert("100", 3)
	// lexicographic order: "10" < "100" < "9"; all three remain searchable
	// regardless of numeric magnitude.
	for _, k := range []string{"10", "9", "100"} {
		_, ok := tr.Search(k)
		require.True(t, ok)
	}
}

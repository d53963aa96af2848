package index

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worklore/worklore/core"
)

const testDims = 4

func testVector(values ...float32) []float32 {
	v := make([]float32, testDims)
	copy(v, values)
	return v
}

func TestVectorSearchFindsNearest(t *testing.T) {
	idx, err := NewVectorIndex(testDims)
	require.NoError(t, err)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, idx.Index(1, testVector(1, 0, 0, 0), now))
	require.NoError(t, idx.Index(2, testVector(0, 1, 0, 0), now))
	require.NoError(t, idx.Index(3, testVector(0.9, 0.1, 0, 0), now))

	candidates, err := idx.Search(ctx, testVector(1, 0, 0, 0), 2)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	assert.Equal(t, core.ID(1), candidates[0].ID)
	assert.Equal(t, core.ID(3), candidates[1].ID)
}

func TestVectorEmptyQuery(t *testing.T) {
	idx, err := NewVectorIndex(testDims)
	require.NoError(t, err)

	require.NoError(t, idx.Index(1, testVector(1, 0, 0, 0), time.Now().UTC()))

	candidates, err := idx.Search(context.Background(), nil, 10)
	require.NoError(t, err)
	assert.Empty(t, candidates)

	candidates, err = idx.Search(context.Background(), testVector(0, 0, 0, 0), 10)
	require.NoError(t, err)
	assert.Empty(t, candidates, "zero vector has no direction to match")
}

func TestVectorDimensionMismatch(t *testing.T) {
	idx, err := NewVectorIndex(testDims)
	require.NoError(t, err)

	err = idx.Index(1, []float32{1, 0}, time.Now().UTC())
	assert.ErrorIs(t, err, ErrIndexUnavailable)
}

func TestVectorRemoveHidesRecord(t *testing.T) {
	idx, err := NewVectorIndex(testDims)
	require.NoError(t, err)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, idx.Index(1, testVector(1, 0, 0, 0), now))
	require.NoError(t, idx.Index(2, testVector(0, 1, 0, 0), now))
	assert.True(t, idx.Has(1))

	require.NoError(t, idx.Remove(1))
	assert.False(t, idx.Has(1))
	assert.Equal(t, 1, idx.Len())

	candidates, err := idx.Search(ctx, testVector(1, 0, 0, 0), 10)
	require.NoError(t, err)
	for _, c := range candidates {
		assert.NotEqual(t, core.ID(1), c.ID)
	}
}

func TestVectorReplaceEmbedding(t *testing.T) {
	idx, err := NewVectorIndex(testDims)
	require.NoError(t, err)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, idx.Index(1, testVector(1, 0, 0, 0), now))
	require.NoError(t, idx.Index(2, testVector(0, 0, 1, 0), now))

	// Move record 1 near record 2's direction
	require.NoError(t, idx.Index(1, testVector(0, 0, 0.9, 0.1), now.Add(time.Minute)))
	assert.Equal(t, 2, idx.Len())

	candidates, err := idx.Search(ctx, testVector(0, 0, 1, 0), 2)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	seen := map[core.ID]bool{}
	for _, c := range candidates {
		assert.False(t, seen[c.ID], "replaced embedding must not surface twice")
		seen[c.ID] = true
	}
}

func TestVectorSearchOrderStable(t *testing.T) {
	idx, err := NewVectorIndex(testDims)
	require.NoError(t, err)
	ctx := context.Background()

	// Five records at identical distance from the query
	now := time.Now().UTC()
	for id := core.ID(1); id <= 5; id++ {
		require.NoError(t, idx.Index(id, testVector(1, 0, 0, 0), now))
	}

	first, err := idx.Search(ctx, testVector(1, 0, 0, 0), 3)
	require.NoError(t, err)
	require.Len(t, first, 3)

	for i := 0; i < 20; i++ {
		again, err := idx.Search(ctx, testVector(1, 0, 0, 0), 3)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	// Ties at equal distance and time resolve by ascending ID
	for i := 1; i < len(first); i++ {
		assert.Less(t, first[i-1].ID, first[i].ID)
	}
}

func TestVectorReset(t *testing.T) {
	idx, err := NewVectorIndex(testDims)
	require.NoError(t, err)

	require.NoError(t, idx.Index(1, testVector(1, 0, 0, 0), time.Now().UTC()))
	require.NoError(t, idx.Reset())
	assert.Equal(t, 0, idx.Len())

	candidates, err := idx.Search(context.Background(), testVector(1, 0, 0, 0), 10)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

package vecstore

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeVector(t *testing.T) {
	t.Run("unit length", func(t *testing.T) {
		v := NormalizeVector([]float32{3, 4})
		assert.InDelta(t, 0.6, float64(v[0]), 1e-6)
		assert.InDelta(t, 0.8, float64(v[1]), 1e-6)
	})

	t.Run("zero vector stays zero", func(t *testing.T) {
		v := NormalizeVector([]float32{0, 0, 0})
		for _, val := range v {
			assert.Equal(t, float32(0), val)
		}
	})

	t.Run("empty vector", func(t *testing.T) {
		assert.Empty(t, NormalizeVector(nil))
	})

	t.Run("does not mutate input", func(t *testing.T) {
		in := []float32{3, 4}
		NormalizeVector(in)
		assert.Equal(t, float32(3), in[0])
	})
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 0}))
	assert.Equal(t, 0.0, CosineSimilarity(nil, []float32{1}))
}

func TestIsZeroVector(t *testing.T) {
	assert.True(t, IsZeroVector(nil))
	assert.True(t, IsZeroVector([]float32{0, 0}))
	assert.False(t, IsZeroVector([]float32{0, 1e-9}))
	assert.False(t, math.IsNaN(CosineSimilarity([]float32{1}, []float32{1})))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("search orders by similarity", func(t *testing.T) {
		store := NewMemoryStore()
		require.NoError(t, store.Add(ctx, []Document{
			{ID: "close", Text: "close", Vector: []float32{1, 0}},
			{ID: "far", Text: "far", Vector: []float32{0, 1}},
			{ID: "mid", Text: "mid", Vector: []float32{0.7, 0.7}},
		}))

		got, err := store.Search(ctx, SearchRequest{Vector: []float32{1, 0}, TopK: 3})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "close", got[0].ID)
		assert.Equal(t, "mid", got[1].ID)
		assert.Equal(t, "far", got[2].ID)
	})

	t.Run("min score filters", func(t *testing.T) {
		store := NewMemoryStore()
		require.NoError(t, store.Add(ctx, []Document{
			{ID: "mid", Text: "mid", Vector: []float32{0.7, 0.7}},
		}))

		got, err := store.Search(ctx, SearchRequest{Vector: []float32{1, 0}, TopK: 5, MinScore: 0.9})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("missing ID gets content hash", func(t *testing.T) {
		store := NewMemoryStore()
		require.NoError(t, store.Add(ctx, []Document{{Text: "anon", Vector: []float32{1}}}))

		got, err := store.Search(ctx, SearchRequest{Vector: []float32{1}, TopK: 1})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.NotEmpty(t, got[0].ID)
	})

	t.Run("closed store rejects operations", func(t *testing.T) {
		store := NewMemoryStore()
		require.NoError(t, store.Close())

		assert.ErrorIs(t, store.Add(ctx, nil), ErrStoreClosed)
		_, err := store.Search(ctx, SearchRequest{Vector: []float32{1}, TopK: 1})
		assert.ErrorIs(t, err, ErrStoreClosed)
	})
}

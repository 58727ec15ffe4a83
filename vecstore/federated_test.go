package vecstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowStore blocks until its context is cancelled.
type slowStore struct{}

func (s *slowStore) Add(ctx context.Context, _ []Document) error {
	<-ctx.Done()
	return ctx.Err()
}

func (s *slowStore) Search(ctx context.Context, _ SearchRequest) ([]Match, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (s *slowStore) Close() error { return nil }

// failStore rejects everything.
type failStore struct{}

func (s *failStore) Add(context.Context, []Document) error { return errors.New("disk full") }
func (s *failStore) Search(context.Context, SearchRequest) ([]Match, error) {
	return nil, errors.New("disk full")
}
func (s *failStore) Close() error { return nil }

func seededStore(t *testing.T, docs ...Document) *MemoryStore {
	t.Helper()
	store := NewMemoryStore()
	require.NoError(t, store.Add(context.Background(), docs))
	return store
}

func TestNewFederatedStore_Validation(t *testing.T) {
	_, err := NewFederatedStore(nil)
	assert.ErrorIs(t, err, ErrNoStores)

	_, err = NewFederatedStore(map[string]Store{"a": nil})
	assert.ErrorIs(t, err, ErrNilStore)
}

func TestFederatedStore_Search(t *testing.T) {
	ctx := context.Background()

	t.Run("merges shards ordered by score", func(t *testing.T) {
		storeA := seededStore(t,
			Document{ID: "a1", Text: "alpha", Vector: []float32{1, 0}},
			Document{ID: "a2", Text: "beta", Vector: []float32{0.5, 0.5}},
		)
		storeB := seededStore(t,
			Document{ID: "b1", Text: "gamma", Vector: []float32{0.9, 0.1}},
		)

		f, err := NewFederatedStore(map[string]Store{"a": storeA, "b": storeB})
		require.NoError(t, err)
		defer f.Close()

		got, err := f.Search(ctx, SearchRequest{Vector: []float32{1, 0}, TopK: 3})
		require.NoError(t, err)
		require.NotEmpty(t, got)

		for i := 1; i < len(got); i++ {
			assert.LessOrEqual(t, got[i].Score, got[i-1].Score)
		}
	})

	t.Run("slow shard times out without failing the search", func(t *testing.T) {
		storeB := seededStore(t,
			Document{ID: "b1", Text: "one", Vector: []float32{1, 0}},
			Document{ID: "b2", Text: "two", Vector: []float32{0.8, 0.2}},
			Document{ID: "b3", Text: "three", Vector: []float32{0.6, 0.4}},
		)

		f, err := NewFederatedStore(
			map[string]Store{"a": &slowStore{}, "b": storeB},
			WithSearchTimeout(50*time.Millisecond),
		)
		require.NoError(t, err)
		defer f.Close()

		start := time.Now()
		got, err := f.Search(ctx, SearchRequest{Vector: []float32{1, 0}, TopK: 6})
		require.NoError(t, err, "a timed-out shard must not fail the search")
		assert.LessOrEqual(t, len(got), 3, "only the healthy shard contributes")
		assert.NotEmpty(t, got)
		assert.Less(t, time.Since(start), 2*time.Second)
	})

	t.Run("failing shard degrades gracefully", func(t *testing.T) {
		storeB := seededStore(t, Document{ID: "b1", Text: "one", Vector: []float32{1, 0}})

		f, err := NewFederatedStore(map[string]Store{"a": &failStore{}, "b": storeB})
		require.NoError(t, err)
		defer f.Close()

		got, err := f.Search(ctx, SearchRequest{Vector: []float32{1, 0}, TopK: 4})
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("empty query vector yields empty result", func(t *testing.T) {
		storeA := seededStore(t, Document{ID: "a1", Text: "one", Vector: []float32{1, 0}})
		f, err := NewFederatedStore(map[string]Store{"a": storeA})
		require.NoError(t, err)
		defer f.Close()

		got, err := f.Search(ctx, SearchRequest{Vector: nil, TopK: 5})
		require.NoError(t, err)
		assert.Empty(t, got)

		got, err = f.Search(ctx, SearchRequest{Vector: []float32{0, 0, 0}, TopK: 5})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("duplicate content across shards keeps better score", func(t *testing.T) {
		shared := Document{ID: "shared", Text: "same doc", Vector: []float32{1, 0}}
		skewed := Document{ID: "shared", Text: "same doc", Vector: []float32{0.7, 0.3}}

		f, err := NewFederatedStore(map[string]Store{
			"a": seededStore(t, shared, Document{ID: "pad-a", Text: "pad a", Vector: []float32{0.1, 0.9}}),
			"b": seededStore(t, skewed, Document{ID: "pad-b", Text: "pad b", Vector: []float32{0.2, 0.8}}),
		})
		require.NoError(t, err)
		defer f.Close()

		got, err := f.Search(ctx, SearchRequest{Vector: []float32{1, 0}, TopK: 4})
		require.NoError(t, err)

		count := 0
		for _, m := range got {
			if m.ID == "shared" {
				count++
			}
		}
		assert.Equal(t, 1, count, "duplicates must collapse to one entry")
	})

	t.Run("routing splits the budget", func(t *testing.T) {
		storeA := seededStore(t,
			Document{ID: "a1", Text: "a one", Vector: []float32{1, 0}},
			Document{ID: "a2", Text: "a two", Vector: []float32{0.9, 0.1}},
		)
		storeB := seededStore(t,
			Document{ID: "b1", Text: "b one", Vector: []float32{1, 0}},
			Document{ID: "b2", Text: "b two", Vector: []float32{0.9, 0.1}},
		)

		routing := NewTopicRouting(map[string]map[string]float64{
			"default": {"a": 1.0, "b": 0.0},
		}, 0)

		f, err := NewFederatedStore(map[string]Store{"a": storeA, "b": storeB}, WithRouting(routing))
		require.NoError(t, err)
		defer f.Close()

		got, err := f.Search(ctx, SearchRequest{Vector: []float32{1, 0}, TopK: 2, Topic: "anything"})
		require.NoError(t, err)
		require.Len(t, got, 2)
		for _, m := range got {
			assert.Contains(t, []string{"a1", "a2"}, m.ID, "zero-weight store must not contribute")
		}
	})
}

func TestFederatedStore_Add(t *testing.T) {
	ctx := context.Background()
	docs := []Document{{ID: "d1", Text: "doc", Vector: []float32{1}}}

	t.Run("fans out to all children", func(t *testing.T) {
		storeA, storeB := NewMemoryStore(), NewMemoryStore()
		f, err := NewFederatedStore(map[string]Store{"a": storeA, "b": storeB})
		require.NoError(t, err)
		defer f.Close()

		require.NoError(t, f.Add(ctx, docs))
		assert.Equal(t, 1, storeA.Len())
		assert.Equal(t, 1, storeB.Len())
	})

	t.Run("partial failure succeeds with warning", func(t *testing.T) {
		storeB := NewMemoryStore()
		f, err := NewFederatedStore(map[string]Store{"a": &failStore{}, "b": storeB})
		require.NoError(t, err)
		defer f.Close()

		require.NoError(t, f.Add(ctx, docs))
		assert.Equal(t, 1, storeB.Len())
	})

	t.Run("total failure returns error", func(t *testing.T) {
		f, err := NewFederatedStore(map[string]Store{"a": &failStore{}, "b": &failStore{}})
		require.NoError(t, err)
		defer f.Close()

		err = f.Add(ctx, docs)
		assert.ErrorIs(t, err, ErrAllStoresFailed)
	})
}

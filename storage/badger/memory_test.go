// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"
	"sync"
	"testing"

	"github.com/poiesic/rankfuse/core"
	"github.com/poiesic/rankfuse/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemoryRepo(t *testing.T) storage.MemoryRepository {
	t.Helper()
	repo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return repo
}

func TestReinforceCreatesItem(t *testing.T) {
	repo := newTestMemoryRepo(t)
	ctx := context.Background()

	item, err := repo.Reinforce(ctx, "go interfaces are satisfied implicitly", func(current *core.MemoryItem) float64 {
		// First reinforcement sees a fresh item
		assert.EqualValues(t, 0, current.HitCount)
		assert.Zero(t, current.RewardMean)
		return 0.8
	})
	require.NoError(t, err)

	assert.Equal(t, core.IDFromContent("go interfaces are satisfied implicitly"), item.Id)
	assert.EqualValues(t, 1, item.HitCount)
	assert.InDelta(t, 0.8, item.RewardMean, 1e-9)
	assert.False(t, item.CreatedAt.IsZero())
	assert.False(t, item.LastUsedAt.IsZero())

	// The returned item and the stored one agree exactly: timestamps are
	// written at the serialization's microsecond granularity
	got, err := repo.GetMemoryItem(ctx, item.Id)
	require.NoError(t, err)
	assert.True(t, item.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, item.LastUsedAt.Equal(got.LastUsedAt))
}

func TestReinforceFoldsStreamingAverage(t *testing.T) {
	repo := newTestMemoryRepo(t)
	ctx := context.Background()

	rewards := []float64{1.0, 0.5, 0.0}
	var item *core.MemoryItem
	var err error
	for _, r := range rewards {
		r := r
		item, err = repo.Reinforce(ctx, "same contents", func(*core.MemoryItem) float64 { return r })
		require.NoError(t, err)
	}

	assert.EqualValues(t, 3, item.HitCount)
	assert.InDelta(t, 0.5, item.RewardMean, 1e-9)
}

func TestReinforceRejectsEmptyContents(t *testing.T) {
	repo := newTestMemoryRepo(t)
	_, err := repo.Reinforce(context.Background(), "", func(*core.MemoryItem) float64 { return 1 })
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestReinforceConcurrent(t *testing.T) {
	repo := newTestMemoryRepo(t)
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Reinforce(ctx, "contended item", func(*core.MemoryItem) float64 { return 0.6 })
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	item, err := repo.GetMemoryItem(ctx, core.IDFromContent("contended item"))
	require.NoError(t, err)
	assert.EqualValues(t, writers, item.HitCount)
	assert.InDelta(t, 0.6, item.RewardMean, 1e-9)
}

func TestTouch(t *testing.T) {
	repo := newTestMemoryRepo(t)
	ctx := context.Background()

	item, err := repo.Reinforce(ctx, "touched item", func(*core.MemoryItem) float64 { return 0.4 })
	require.NoError(t, err)

	require.NoError(t, repo.Touch(ctx, item.Id))

	got, err := repo.GetMemoryItem(ctx, item.Id)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.HitCount)
	// Touch does not fold a reward
	assert.InDelta(t, 0.4, got.RewardMean, 1e-9)
}

func TestTouchMissingItem(t *testing.T) {
	repo := newTestMemoryRepo(t)
	err := repo.Touch(context.Background(), core.ID(12345))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetMemoryItems(t *testing.T) {
	repo := newTestMemoryRepo(t)
	ctx := context.Background()

	a, err := repo.Reinforce(ctx, "item a", func(*core.MemoryItem) float64 { return 0.1 })
	require.NoError(t, err)
	b, err := repo.Reinforce(ctx, "item b", func(*core.MemoryItem) float64 { return 0.2 })
	require.NoError(t, err)

	items, err := repo.GetMemoryItems(ctx, a.Id, core.ID(999), b.Id)
	require.NoError(t, err)
	// Missing IDs are skipped silently
	assert.Len(t, items, 2)
}

func TestTopByReward(t *testing.T) {
	repo := newTestMemoryRepo(t)
	ctx := context.Background()

	for contents, reward := range map[string]float64{
		"low":  0.1,
		"mid":  0.5,
		"high": 0.9,
	} {
		r := reward
		_, err := repo.Reinforce(ctx, contents, func(*core.MemoryItem) float64 { return r })
		require.NoError(t, err)
	}

	top, err := repo.TopByReward(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "high", top[0].Contents)
	assert.Equal(t, "mid", top[1].Contents)
}

func TestTopByRewardTracksUpdates(t *testing.T) {
	repo := newTestMemoryRepo(t)
	ctx := context.Background()

	_, err := repo.Reinforce(ctx, "riser", func(*core.MemoryItem) float64 { return 0.2 })
	require.NoError(t, err)
	_, err = repo.Reinforce(ctx, "steady", func(*core.MemoryItem) float64 { return 0.5 })
	require.NoError(t, err)

	// Reinforce the riser to a higher mean; the stale index entry must go
	_, err = repo.Reinforce(ctx, "riser", func(*core.MemoryItem) float64 { return 1.0 })
	require.NoError(t, err)

	top, err := repo.TopByReward(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "riser", top[0].Contents)
}

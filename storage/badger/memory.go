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
	"math"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/rankfuse/core"
	"github.com/poiesic/rankfuse/storage"
)

// conflictRetries bounds reinforce retry loops under write contention.
const conflictRetries = 5

// MemoryRepository implements storage.MemoryRepository for BadgerDB.
// Items are keyed by the content hash of their contents, so reinforcing
// the same text always lands on the same item.
type MemoryRepository struct {
	backend *Backend
}

var _ storage.MemoryRepository = (*MemoryRepository)(nil)

// NewMemoryRepository creates a MemoryRepository over a backend.
func NewMemoryRepository(backend *Backend) (storage.MemoryRepository, error) {
	return &MemoryRepository{backend: backend}, nil
}

// Close is a no-op; the backend owns the database handle.
func (r *MemoryRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *MemoryRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// Reinforce upserts the item for the contents and folds the reward into
// its streaming average. The whole read-modify-write runs in one badger
// transaction; commit conflicts retry with the freshly read state.
func (r *MemoryRepository) Reinforce(ctx context.Context, contents string, reward func(current *core.MemoryItem) float64) (*core.MemoryItem, error) {
	if contents == "" {
		return nil, storage.ErrInvalidQuery
	}

	id := core.IDFromContent(contents)
	var result *core.MemoryItem

	err := r.backend.WithConflictRetry(conflictRetries, func(tx *badger.Txn) error {
		// Serialization stores micros; truncate so round-trips compare equal
		now := time.Now().UTC().Truncate(time.Microsecond)

		item, err := readMemoryItem(tx, makeMemoryItemKey(id))
		if err != nil {
			return err
		}
		created := item == nil
		if created {
			item = &core.MemoryItem{
				Id:         id,
				Contents:   contents,
				CreatedAt:  now,
				InsertedAt: now,
			}
		}

		value := reward(item)
		if math.IsNaN(value) {
			value = 0
		}

		oldReward := item.RewardMean
		// Online mean: mean' = (mean*n + reward) / (n+1)
		n := float64(item.HitCount)
		item.RewardMean = (item.RewardMean*n + value) / (n + 1)
		item.HitCount++
		item.LastUsedAt = now
		item.UpdatedAt = now

		if err := writeMemoryItem(tx, item, oldReward, created); err != nil {
			return err
		}

		result = item
		return tx.Commit()
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Touch increments the hit count without folding a reward.
func (r *MemoryRepository) Touch(ctx context.Context, id core.ID) error {
	return r.backend.WithConflictRetry(conflictRetries, func(tx *badger.Txn) error {
		item, err := readMemoryItem(tx, makeMemoryItemKey(id))
		if err != nil {
			return err
		}
		if item == nil {
			return storage.ErrNotFound
		}

		now := time.Now().UTC().Truncate(time.Microsecond)
		item.HitCount++
		item.LastUsedAt = now
		item.UpdatedAt = now

		if err := writeMemoryItem(tx, item, item.RewardMean, false); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// GetMemoryItem retrieves a single item by ID.
func (r *MemoryRepository) GetMemoryItem(ctx context.Context, id core.ID) (*core.MemoryItem, error) {
	var result *core.MemoryItem
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readMemoryItem(tx, makeMemoryItemKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetMemoryItems retrieves multiple items by their IDs.
func (r *MemoryRepository) GetMemoryItems(ctx context.Context, ids ...core.ID) ([]*core.MemoryItem, error) {
	var result []*core.MemoryItem
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			item, err := readMemoryItem(tx, makeMemoryItemKey(id))
			if err != nil {
				return err
			}
			if item != nil {
				result = append(result, item)
			}
		}
		return nil
	}, false)
	return result, err
}

// TopByReward returns up to limit items ordered by reward mean descending,
// walking the reward index.
func (r *MemoryRepository) TopByReward(ctx context.Context, limit int) ([]*core.MemoryItem, error) {
	if limit <= 0 {
		return nil, nil
	}

	var results []*core.MemoryItem
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(memoryRewardPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid() && len(results) < limit; iter.Next() {
			var id core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			item, err := readMemoryItem(tx, makeMemoryItemKey(id))
			if err != nil {
				return err
			}
			if item != nil {
				results = append(results, item)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Index granularity can collapse close rewards; settle order exactly
	slices.SortStableFunc(results, func(a, b *core.MemoryItem) int {
		if a.RewardMean > b.RewardMean {
			return -1
		}
		if a.RewardMean < b.RewardMean {
			return 1
		}
		return 0
	})
	return results, nil
}

// Helper methods

// readMemoryItem reads a memory item from the transaction.
func readMemoryItem(tx *badger.Txn, key []byte) (*core.MemoryItem, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var record *core.MemoryItem
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalMemoryItem(val)
		return unmarshalErr
	})
	return record, err
}

// writeMemoryItem stores the item and maintains the reward index.
func writeMemoryItem(tx *badger.Txn, item *core.MemoryItem, oldReward float64, created bool) error {
	if err := tx.Set(makeMemoryItemKey(item.Id), storage.MarshalMemoryItem(item)); err != nil {
		return err
	}

	if !created && oldReward != item.RewardMean {
		if err := tx.Delete(makeRewardIndexKey(oldReward, item.Id)); err != nil {
			return err
		}
	}
	if created || oldReward != item.RewardMean {
		if err := tx.Set(makeRewardIndexKey(item.RewardMean, item.Id), storage.MarshalID(item.Id)); err != nil {
			return err
		}
	}
	return nil
}

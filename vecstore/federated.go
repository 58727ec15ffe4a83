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


package vecstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/rankfuse/core"
)

const defaultSearchTimeout = 5 * time.Second

// FederatedStore routes searches across named child stores. Result budgets
// are split by topic routing, sub-searches run in parallel with individual
// timeouts, and shard failures degrade the result instead of failing it.
type FederatedStore struct {
	stores  map[string]Store
	order   []string // sorted for deterministic allocation
	routing *TopicRouting
	pool    *ants.Pool
	ownPool bool
	timeout time.Duration
	logger  *slog.Logger
}

var _ Store = (*FederatedStore)(nil)

// FederatedOption configures a FederatedStore.
type FederatedOption func(*FederatedStore) error

// WithRouting sets the topic routing table.
func WithRouting(routing *TopicRouting) FederatedOption {
	return func(f *FederatedStore) error {
		f.routing = routing
		return nil
	}
}

// WithPool provides a shared worker pool. The store will not release it.
func WithPool(pool *ants.Pool) FederatedOption {
	return func(f *FederatedStore) error {
		if pool == nil {
			return errors.New("pool cannot be nil")
		}
		f.pool = pool
		return nil
	}
}

// WithSearchTimeout bounds each child search.
func WithSearchTimeout(timeout time.Duration) FederatedOption {
	return func(f *FederatedStore) error {
		if timeout <= 0 {
			return errors.New("search timeout must be positive")
		}
		f.timeout = timeout
		return nil
	}
}

// WithFederatedLogger sets the logger used for routing diagnostics.
func WithFederatedLogger(logger *slog.Logger) FederatedOption {
	return func(f *FederatedStore) error {
		f.logger = logger
		return nil
	}
}

// NewFederatedStore creates a router over named child stores.
func NewFederatedStore(stores map[string]Store, opts ...FederatedOption) (*FederatedStore, error) {
	if len(stores) == 0 {
		return nil, ErrNoStores
	}

	order := make([]string, 0, len(stores))
	for name, store := range stores {
		if store == nil {
			return nil, fmt.Errorf("%w: %q", ErrNilStore, name)
		}
		order = append(order, name)
	}
	sort.Strings(order)

	f := &FederatedStore{
		stores:  stores,
		order:   order,
		timeout: defaultSearchTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}

	if f.pool == nil {
		pool, err := ants.NewPool(runtime.NumCPU())
		if err != nil {
			return nil, fmt.Errorf("creating worker pool: %w", err)
		}
		f.pool = pool
		f.ownPool = true
	}

	return f, nil
}

// Add fans the documents out to every child store. Partial failure is
// tolerated with a warning; the write fails only when every child rejects it.
func (f *FederatedStore) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		errs  []error
		wrote int
	)

	for _, name := range f.order {
		name, store := name, f.stores[name]
		wg.Add(1)
		if submitErr := f.pool.Submit(func() {
			defer wg.Done()
			if err := store.Add(ctx, docs); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("store %q: %w", name, err))
				mu.Unlock()
				return
			}
			mu.Lock()
			wrote++
			mu.Unlock()
		}); submitErr != nil {
			wg.Done()
			mu.Lock()
			errs = append(errs, fmt.Errorf("store %q: %w", name, submitErr))
			mu.Unlock()
		}
	}
	wg.Wait()

	if wrote == 0 && len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrAllStoresFailed, errors.Join(errs...))
	}
	for _, err := range errs {
		f.logger.Warn("partial federated write failure", "err", err)
	}
	return nil
}

// Search splits the budget across children by topic routing, searches them
// in parallel, and merges the shards: per-store min-max normalization,
// dedup by content hash keeping the better score, sort, truncate.
// An empty or all-zero query vector yields an empty result.
func (f *FederatedStore) Search(ctx context.Context, req SearchRequest) ([]Match, error) {
	if IsZeroVector(req.Vector) {
		f.logger.Debug("rejecting degenerate query vector", "len", len(req.Vector))
		return nil, nil
	}
	if req.TopK <= 0 {
		return nil, nil
	}

	alloc := AllocateK(req.TopK, f.routing.WeightsFor(req.Topic), f.routing.MinPerStore(), f.order)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		shards = make(map[string][]Match)
	)

	for _, name := range f.order {
		share := alloc[name]
		if share <= 0 {
			continue
		}
		name, store := name, f.stores[name]

		wg.Add(1)
		task := func() {
			defer wg.Done()

			subCtx, cancel := context.WithTimeout(ctx, f.timeout)
			defer cancel()

			subReq := req
			subReq.TopK = share
			matches, err := store.Search(subCtx, subReq)
			if err != nil {
				// Fail soft: a slow or broken shard only shrinks the result
				f.logger.Warn("child store search failed", "store", name, "err", err)
				return
			}
			mu.Lock()
			shards[name] = matches
			mu.Unlock()
		}
		if submitErr := f.pool.Submit(task); submitErr != nil {
			wg.Done()
			f.logger.Warn("child store search not scheduled", "store", name, "err", submitErr)
		}
	}
	wg.Wait()

	return f.merge(shards, req.TopK), nil
}

// merge flattens shard results into one ranked list.
func (f *FederatedStore) merge(shards map[string][]Match, topK int) []Match {
	best := make(map[string]Match)
	var keys []string

	for _, name := range f.order {
		matches := shards[name]
		if len(matches) == 0 {
			continue
		}

		normalized := normalizeShard(matches)
		for _, m := range normalized {
			key := m.ID
			if key == "" {
				key = fmt.Sprintf("%016x", uint64(core.IDFromContent(m.Text+"|"+m.Metadata["source"])))
			}
			prev, ok := best[key]
			if !ok {
				best[key] = m
				keys = append(keys, key)
				continue
			}
			if m.Score > prev.Score {
				best[key] = m
			}
		}
	}

	merged := make([]Match, 0, len(keys))
	for _, key := range keys {
		merged = append(merged, best[key])
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	if len(merged) > topK {
		merged = merged[:topK]
	}
	return merged
}

// normalizeShard rescales one shard's scores into [0,1] so stores with
// different score regimes merge fairly. A degenerate range keeps raw scores.
func normalizeShard(matches []Match) []Match {
	min, max := matches[0].Score, matches[0].Score
	for _, m := range matches[1:] {
		if m.Score < min {
			min = m.Score
		}
		if m.Score > max {
			max = m.Score
		}
	}

	out := make([]Match, len(matches))
	copy(out, matches)
	if max <= min {
		return out
	}
	for i := range out {
		out[i].Score = (out[i].Score - min) / (max - min)
	}
	return out
}

// Close releases the pool (when owned) and closes every child store.
func (f *FederatedStore) Close() error {
	var errs []error
	for _, name := range f.order {
		if err := f.stores[name].Close(); err != nil {
			errs = append(errs, fmt.Errorf("store %q: %w", name, err))
		}
	}
	if f.ownPool {
		f.pool.Release()
	}
	return errors.Join(errs...)
}

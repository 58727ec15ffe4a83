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
	"log/slog"
	"sync/atomic"
	"time"
)

// Warn intervals keep fallback logging from flooding under sustained
// mismatch conditions.
const (
	filterWarnInterval = 60 * time.Second
	bypassWarnInterval = 300 * time.Second
)

// GuardedStore wraps a Store and enforces embedding-space isolation: writes
// are stamped with the configured fingerprint and reads are filtered to
// matching vectors. When strict filtering would hide everything, a fail-soft
// ladder degrades to the dominant fingerprint, then to raw results.
type GuardedStore struct {
	inner           Store
	fp              Fingerprint
	allowLegacy     bool
	bypassIfMissing bool
	logger          *slog.Logger

	lastFilterWarn atomic.Int64 // unix nanos
	lastBypassWarn atomic.Int64

	// Fallback counters, exposed for observability
	filteredOut atomic.Int64
	fallbacks   atomic.Int64
	bypasses    atomic.Int64
}

var _ Store = (*GuardedStore)(nil)

// GuardOption configures a GuardedStore.
type GuardOption func(*GuardedStore) error

// WithAllowLegacy accepts matches that carry no fingerprint metadata at all,
// treating pre-guard data as compatible.
func WithAllowLegacy(allow bool) GuardOption {
	return func(g *GuardedStore) error {
		g.allowLegacy = allow
		return nil
	}
}

// WithBypassIfMetadataMissing controls behavior when no match in the raw
// result carries fingerprint metadata: true (default) returns the raw
// results, favoring availability; false returns nothing.
func WithBypassIfMetadataMissing(bypass bool) GuardOption {
	return func(g *GuardedStore) error {
		g.bypassIfMissing = bypass
		return nil
	}
}

// WithGuardLogger sets the logger used for guard diagnostics.
func WithGuardLogger(logger *slog.Logger) GuardOption {
	return func(g *GuardedStore) error {
		g.logger = logger
		return nil
	}
}

// NewGuardedStore wraps a store with fingerprint enforcement.
func NewGuardedStore(inner Store, fp Fingerprint, opts ...GuardOption) (*GuardedStore, error) {
	if inner == nil {
		return nil, ErrNilStore
	}
	if !fp.Valid() {
		return nil, ErrInvalidFingerprint
	}

	g := &GuardedStore{
		inner:           inner,
		fp:              fp,
		bypassIfMissing: true,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Fingerprint returns the fingerprint this guard enforces.
func (g *GuardedStore) Fingerprint() Fingerprint {
	return g.fp
}

// FallbackCount returns how many searches degraded past strict filtering.
func (g *GuardedStore) FallbackCount() int64 {
	return g.fallbacks.Load() + g.bypasses.Load()
}

// Add stamps every document with the guard's fingerprint before writing.
// Caller metadata is preserved; the fingerprint keys are overwritten.
func (g *GuardedStore) Add(ctx context.Context, docs []Document) error {
	stamped := make([]Document, len(docs))
	for i, doc := range docs {
		meta := make(map[string]string, len(doc.Metadata)+4)
		for k, v := range doc.Metadata {
			meta[k] = v
		}
		doc.Metadata = g.fp.Stamp(meta)
		stamped[i] = doc
	}
	return g.inner.Add(ctx, stamped)
}

// Search filters matches to the guard's embedding space.
//
// Resolution order:
//  1. matches with the exact fingerprint (plus unstamped matches when legacy
//     data is allowed)
//  2. if that is empty but some matches are stamped: the dominant
//     fingerprint subset, then the raw results
//  3. if no match is stamped at all: raw results or nothing, per the
//     bypass-if-metadata-missing policy
func (g *GuardedStore) Search(ctx context.Context, req SearchRequest) ([]Match, error) {
	raw, err := g.inner.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return raw, nil
	}

	want := g.fp.String()
	var matching []Match
	stampedCount := 0
	for _, m := range raw {
		stamp, stamped := m.Metadata[MetaFingerprint]
		if stamped {
			stampedCount++
			if stamp == want {
				matching = append(matching, m)
			}
			continue
		}
		if g.allowLegacy {
			matching = append(matching, m)
		}
	}

	if len(matching) > 0 {
		g.filteredOut.Add(int64(len(raw) - len(matching)))
		return truncate(matching, req.TopK), nil
	}

	if stampedCount == 0 {
		// Nothing to filter on; this store predates fingerprint stamping
		if !g.bypassIfMissing {
			return nil, nil
		}
		g.bypasses.Add(1)
		g.warnRateLimited(&g.lastBypassWarn, bypassWarnInterval,
			"no fingerprint metadata present, bypassing guard", len(raw))
		return truncate(raw, req.TopK), nil
	}

	// Strict filtering hid everything although fingerprints exist.
	// Fail soft: prefer the dominant foreign fingerprint over nothing.
	g.fallbacks.Add(1)
	g.warnRateLimited(&g.lastFilterWarn, filterWarnInterval,
		"fingerprint filter removed all matches, falling back", len(raw))

	if dominant := dominantSubset(raw); len(dominant) > 0 {
		return truncate(dominant, req.TopK), nil
	}
	return truncate(raw, req.TopK), nil
}

// Close closes the wrapped store.
func (g *GuardedStore) Close() error {
	return g.inner.Close()
}

// warnRateLimited logs at most once per interval using a CAS on the last
// warn timestamp, so concurrent searches cannot stampede the log.
func (g *GuardedStore) warnRateLimited(last *atomic.Int64, interval time.Duration, msg string, rawCount int) {
	now := time.Now().UnixNano()
	prev := last.Load()
	if now-prev < int64(interval) {
		return
	}
	if !last.CompareAndSwap(prev, now) {
		return
	}
	g.logger.Warn(msg,
		"fingerprint", g.fp.String(),
		"rawMatches", rawCount,
		"allowLegacy", g.allowLegacy)
}

// dominantSubset returns the matches carrying the most frequent fingerprint.
func dominantSubset(matches []Match) []Match {
	counts := make(map[string]int)
	for _, m := range matches {
		if stamp, ok := m.Metadata[MetaFingerprint]; ok {
			counts[stamp]++
		}
	}

	var dominant string
	var best int
	for stamp, count := range counts {
		if count > best || (count == best && stamp < dominant) {
			dominant, best = stamp, count
		}
	}
	if dominant == "" {
		return nil
	}

	var subset []Match
	for _, m := range matches {
		if m.Metadata[MetaFingerprint] == dominant {
			subset = append(subset, m)
		}
	}
	return subset
}

func truncate(matches []Match, topK int) []Match {
	if topK > 0 && len(matches) > topK {
		return matches[:topK]
	}
	return matches
}

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


package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/rankfuse/core"
	"github.com/poiesic/rankfuse/fusion"
)

const (
	defaultMaxParallel     = 3
	defaultStrategyTimeout = 15 * time.Second

	sentinelID = "rankfuse:no-results"
)

// HybridRetriever fans a request out across strategies on a bounded worker
// pool and merges the surviving lists by Borda count, or by weighted
// reciprocal rank fusion when a fuser is configured. A failing strategy
// contributes an empty list; the caller always gets a ranked result, even
// if it is only the sentinel.
type HybridRetriever struct {
	strategies []Strategy
	pool       *ants.Pool
	ownPool    bool
	timeout    time.Duration
	fuser      *fusion.Fuser
	logger     *slog.Logger
}

// HybridOption configures a HybridRetriever.
type HybridOption func(*HybridRetriever) error

// WithHybridPool provides a shared worker pool. The retriever will not
// release it.
func WithHybridPool(pool *ants.Pool) HybridOption {
	return func(h *HybridRetriever) error {
		if pool == nil {
			return errors.New("pool cannot be nil")
		}
		h.pool = pool
		return nil
	}
}

// WithStrategyTimeout bounds each strategy's Retrieve call.
func WithStrategyTimeout(timeout time.Duration) HybridOption {
	return func(h *HybridRetriever) error {
		if timeout <= 0 {
			return errors.New("strategy timeout must be positive")
		}
		h.timeout = timeout
		return nil
	}
}

// WithFuser replaces Borda counting with weighted reciprocal rank fusion.
// The fuser keys documents by canonical identity, so the request's
// DedupeKey setting does not apply.
func WithFuser(fuser *fusion.Fuser) HybridOption {
	return func(h *HybridRetriever) error {
		if fuser == nil {
			return errors.New("fuser cannot be nil")
		}
		h.fuser = fuser
		return nil
	}
}

// WithHybridLogger sets the logger used for fan-out diagnostics.
func WithHybridLogger(logger *slog.Logger) HybridOption {
	return func(h *HybridRetriever) error {
		h.logger = logger
		return nil
	}
}

// NewHybridRetriever creates a retriever over the given strategies.
func NewHybridRetriever(strategies []Strategy, opts ...HybridOption) (*HybridRetriever, error) {
	if len(strategies) == 0 {
		return nil, ErrNoStrategies
	}

	h := &HybridRetriever{
		strategies: strategies,
		timeout:    defaultStrategyTimeout,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(h); err != nil {
			return nil, err
		}
	}

	if h.pool == nil {
		pool, err := ants.NewPool(runtime.NumCPU())
		if err != nil {
			return nil, fmt.Errorf("creating worker pool: %w", err)
		}
		h.pool = pool
		h.ownPool = true
	}

	return h, nil
}

// Retrieve runs every strategy, fuses their lists by Borda count over the
// request's dedupe key, tags provenance and truncates to TopK. An empty
// merge yields a single sentinel document.
func (h *HybridRetriever) Retrieve(ctx context.Context, req core.RetrievalRequest) ([]*core.RankedDocument, error) {
	if err := core.ValidateRetrievalRequest(&req); err != nil {
		return nil, err
	}

	maxParallel := req.MaxParallel
	if maxParallel <= 0 {
		maxParallel = defaultMaxParallel
	}

	lists := h.fanOut(ctx, req, maxParallel)
	docs := h.fuse(lists, req)

	if len(docs) == 0 {
		return []*core.RankedDocument{Sentinel(req.Query)}, nil
	}
	return docs, nil
}

// fanOut runs the strategies concurrently, at most maxParallel in flight.
// Strategy order is preserved in the returned lists.
func (h *HybridRetriever) fanOut(ctx context.Context, req core.RetrievalRequest, maxParallel int) [][]*core.RankedDocument {
	var (
		wg    sync.WaitGroup
		sem   = make(chan struct{}, maxParallel)
		lists = make([][]*core.RankedDocument, len(h.strategies))
	)

	for i, strategy := range h.strategies {
		i, strategy := i, strategy
		wg.Add(1)
		task := func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			subCtx, cancel := context.WithTimeout(ctx, h.timeout)
			defer cancel()

			start := time.Now()
			docs, err := strategy.Retrieve(subCtx, req)
			if err != nil {
				// Fail soft: a broken strategy only shrinks the evidence
				h.logger.Warn("strategy failed",
					"strategy", strategy.Name(),
					"elapsed", time.Since(start),
					"err", err)
				return
			}
			h.logger.Debug("strategy finished",
				"strategy", strategy.Name(),
				"hits", len(docs),
				"elapsed", time.Since(start))
			lists[i] = docs
		}
		if submitErr := h.pool.Submit(task); submitErr != nil {
			wg.Done()
			h.logger.Warn("strategy not scheduled",
				"strategy", strategy.Name(), "err", submitErr)
		}
	}
	wg.Wait()

	return lists
}

// fuse merges the per-strategy lists: dedupe key per document, Borda count
// across lists, provenance tagging, truncate to TopK. Document buffers are
// capped at max(TopK*2, 10) per strategy before fusion so one chatty
// strategy cannot drown the count.
func (h *HybridRetriever) fuse(lists [][]*core.RankedDocument, req core.RetrievalRequest) []*core.RankedDocument {
	buffer := req.TopK * 2
	if buffer < 10 {
		buffer = 10
	}

	if h.fuser != nil {
		return h.fuseRRF(lists, req, buffer)
	}

	byKey := make(map[string]*core.RankedDocument)
	keyLists := make([][]string, 0, len(lists))

	for _, docs := range lists {
		if len(docs) > buffer {
			docs = docs[:buffer]
		}
		keys := make([]string, 0, len(docs))
		for _, doc := range docs {
			key := h.dedupeKey(doc, req.DedupeKey)
			if key == "" {
				continue
			}
			if existing, ok := byKey[key]; ok {
				// Keep the representative with the richer snippet
				if len(doc.Snippet) > len(existing.Snippet) {
					copyDoc := *doc
					byKey[key] = &copyDoc
				}
			} else {
				copyDoc := *doc
				byKey[key] = &copyDoc
			}
			keys = append(keys, key)
		}
		if len(keys) > 0 {
			keyLists = append(keyLists, keys)
		}
	}

	ordered := fusion.BordaFuse(keyLists)
	scores := fusion.BordaScores(keyLists)

	out := make([]*core.RankedDocument, 0, len(ordered))
	for i, key := range ordered {
		doc := byKey[key]
		doc.CanonicalKey = key
		doc.FusedScore = float64(scores[key])
		doc.Rank = i + 1
		doc.Provenance = h.provenance(doc, req.OfficialDomains)
		out = append(out, doc)
	}

	if len(out) > req.TopK {
		out = out[:req.TopK]
	}
	return out
}

// fuseRRF delegates the merge to the configured reciprocal rank fuser,
// then applies the retriever's provenance tagging and truncation.
func (h *HybridRetriever) fuseRRF(lists [][]*core.RankedDocument, req core.RetrievalRequest, buffer int) []*core.RankedDocument {
	capped := make([][]*core.RankedDocument, 0, len(lists))
	for _, docs := range lists {
		if len(docs) > buffer {
			docs = docs[:buffer]
		}
		capped = append(capped, docs)
	}

	out := h.fuser.Fuse(capped)
	for i, doc := range out {
		doc.Rank = i + 1
		doc.Provenance = h.provenance(doc, req.OfficialDomains)
	}
	if len(out) > req.TopK {
		out = out[:req.TopK]
	}
	return out
}

// dedupeKey derives the fusion identity for a document per the request's
// configured key kind.
func (h *HybridRetriever) dedupeKey(doc *core.RankedDocument, kind string) string {
	switch kind {
	case core.DedupeKeyURL:
		if url := extractURL(doc.URL, doc.Snippet); url != "" {
			return fusion.CanonicalKey(url)
		}
		// No URL to key on, fall through to text identity
		return fusion.CanonicalKey(doc.Snippet)
	case core.DedupeKeyHash:
		if doc.Snippet == "" {
			return ""
		}
		return fmt.Sprintf("%016x", uint64(core.IDFromContent(doc.Snippet)))
	default:
		return fusion.CanonicalKey(doc.Snippet)
	}
}

// provenance tags a document official when its URL falls under one of the
// request's official domains, community otherwise.
func (h *HybridRetriever) provenance(doc *core.RankedDocument, officialDomains []string) string {
	url := extractURL(doc.URL, doc.Snippet)
	if hostMatchesAny(url, officialDomains) {
		return core.ProvenanceOfficial
	}
	return core.ProvenanceCommunity
}

// Close releases the worker pool when the retriever owns it.
func (h *HybridRetriever) Close() error {
	if h.ownPool {
		h.pool.Release()
	}
	return nil
}

// Sentinel builds the no-results placeholder document for a query.
func Sentinel(query string) *core.RankedDocument {
	return &core.RankedDocument{
		Id:         sentinelID,
		Title:      "No results",
		Snippet:    fmt.Sprintf("No evidence found for query: %s", strings.TrimSpace(query)),
		Source:     "sentinel",
		Provenance: core.ProvenanceCommunity,
	}
}

// IsSentinel reports whether a document is the no-results placeholder.
func IsSentinel(doc *core.RankedDocument) bool {
	return doc != nil && doc.Id == sentinelID
}

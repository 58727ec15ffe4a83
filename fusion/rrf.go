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


package fusion

import (
	"log/slog"
	"sort"

	"github.com/poiesic/rankfuse/core"
)

// DefaultK is the standard RRF smoothing constant.
const DefaultK = 60

// Fuser merges ranked lists from multiple sources using weighted reciprocal
// rank fusion. Construct with NewFuser; the zero value is not usable.
type Fuser struct {
	k            int
	weights      core.FusionWeights
	calibrator   Calibrator
	boost        BoostPolicy
	sourceDedupe bool
	logger       *slog.Logger
}

// FuserOption configures a Fuser.
type FuserOption func(*Fuser) error

// WithK sets the RRF smoothing constant (must be > 0).
func WithK(k int) FuserOption {
	return func(f *Fuser) error {
		if k <= 0 {
			return ErrInvalidK
		}
		f.k = k
		return nil
	}
}

// WithWeights sets per-source fusion weights.
func WithWeights(w core.FusionWeights) FuserOption {
	return func(f *Fuser) error {
		f.weights = w
		return nil
	}
}

// WithCalibrator sets the score calibrator applied to every document.
func WithCalibrator(c Calibrator) FuserOption {
	return func(f *Fuser) error {
		if c == nil {
			return ErrNilCalibrator
		}
		f.calibrator = c
		return nil
	}
}

// WithBoost sets the boost policy applied after calibration.
func WithBoost(b BoostPolicy) FuserOption {
	return func(f *Fuser) error {
		if b == nil {
			return ErrNilBoost
		}
		f.boost = b
		return nil
	}
}

// WithSourceDedupe enables merging duplicate canonical keys within each
// source list before fusion. The best-scoring occurrence survives and the
// list is re-ranked 1..n.
func WithSourceDedupe(enabled bool) FuserOption {
	return func(f *Fuser) error {
		f.sourceDedupe = enabled
		return nil
	}
}

// WithLogger sets the logger used for fusion diagnostics.
func WithLogger(logger *slog.Logger) FuserOption {
	return func(f *Fuser) error {
		f.logger = logger
		return nil
	}
}

// NewFuser creates a Fuser with k=60, default weights, identity calibration
// and no boost, then applies the provided options.
func NewFuser(opts ...FuserOption) (*Fuser, error) {
	f := &Fuser{
		k:          DefaultK,
		weights:    core.DefaultFusionWeights(),
		calibrator: IdentityCalibrator{},
		boost:      NoBoost{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Fuse merges ranked lists into a single ordering. Input lists are ordered
// best-first; each document's position determines its rank. The result is
// sorted by fused score descending with final scores softmax-normalized into
// [0,1]. Ties preserve first-encounter order. Documents whose identifier
// canonicalizes to an empty key are dropped. Input documents are not mutated.
func (f *Fuser) Fuse(lists [][]*core.RankedDocument) []*core.RankedDocument {
	results := f.fuseRaw(lists)
	if len(results) == 0 {
		return nil
	}

	// Softmax changes the score scale, never the order
	scores := make([]float64, len(results))
	for i, doc := range results {
		scores[i] = doc.FusedScore
	}
	for i, s := range StableSoftmax(scores) {
		results[i].FusedScore = s
	}

	f.logger.Debug("fused ranked lists", "lists", len(lists), "results", len(results))

	return results
}

// fuseRaw produces the sorted fusion result with raw reciprocal-rank sums
// in FusedScore, before softmax normalization.
func (f *Fuser) fuseRaw(lists [][]*core.RankedDocument) []*core.RankedDocument {
	type entry struct {
		fused float64
		best  *core.RankedDocument
	}

	entries := make(map[string]*entry)
	var keys []string

	for _, list := range lists {
		if len(list) == 0 {
			continue
		}

		prepared := f.prepare(list)

		for _, doc := range prepared {
			weight := f.weights.Weight(doc.Source)
			contribution := weight / float64(f.k+doc.Rank)

			e, ok := entries[doc.CanonicalKey]
			if !ok {
				e = &entry{best: doc}
				entries[doc.CanonicalKey] = e
				keys = append(keys, doc.CanonicalKey)
			} else if doc.Score > e.best.Score {
				e.best = doc
			}
			e.fused += contribution
		}
	}

	if len(keys) == 0 {
		return nil
	}

	results := make([]*core.RankedDocument, 0, len(keys))
	for _, key := range keys {
		e := entries[key]
		doc := *e.best
		doc.FusedScore = e.fused
		results = append(results, &doc)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].FusedScore > results[j].FusedScore
	})

	return results
}

// prepare calibrates, boosts and ranks a single source list, returning
// copies keyed by canonical identity. When source dedupe is enabled,
// duplicate keys collapse to their best occurrence and ranks are rebuilt.
func (f *Fuser) prepare(list []*core.RankedDocument) []*core.RankedDocument {
	prepared := make([]*core.RankedDocument, 0, len(list))

	for i, orig := range list {
		key := orig.CanonicalKey
		if key == "" {
			key = CanonicalKey(orig.Id)
		}
		if key == "" {
			key = CanonicalKey(orig.URL)
		}
		if key == "" {
			f.logger.Debug("dropping document without identity", "source", orig.Source, "title", orig.Title)
			continue
		}

		doc := *orig
		doc.CanonicalKey = key
		doc.Rank = i + 1
		doc.Score = f.calibrator.Normalize(doc.RawScore, doc.Source) * f.boost.Multiplier(&doc)
		prepared = append(prepared, &doc)
	}

	if !f.sourceDedupe {
		return prepared
	}

	seen := make(map[string]*core.RankedDocument)
	deduped := prepared[:0]
	for _, doc := range prepared {
		prev, ok := seen[doc.CanonicalKey]
		if !ok {
			seen[doc.CanonicalKey] = doc
			deduped = append(deduped, doc)
			continue
		}
		if doc.Score > prev.Score {
			*prev = *doc
		}
	}
	for i, doc := range deduped {
		doc.Rank = i + 1
	}
	return deduped
}

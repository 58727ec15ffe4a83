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


package reward

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/poiesic/rankfuse/core"
	"github.com/poiesic/rankfuse/storage"
)

// Engine computes composite rewards from a fixed Config snapshot.
// Safe for concurrent use; all state is immutable after construction.
type Engine struct {
	cfg     Config
	sim     SimilarityPolicy
	hit     HitCountPolicy
	rec     RecencyPolicy
	entropy EntropyPolicy
	logger  *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine) error

// WithLogger sets the logger used for reward diagnostics.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

// NewEngine creates an Engine from a validated Config snapshot.
func NewEngine(cfg Config, opts ...EngineOption) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:     cfg,
		sim:     SimilarityPolicy{Floor: cfg.SimilarityFloor},
		hit:     HitCountPolicy{K: cfg.SigmoidK},
		rec:     RecencyPolicy{HalfLifeDays: cfg.HalfLifeDays},
		entropy: EntropyPolicy{Alpha: cfg.EntropyAlpha},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Config returns the engine's configuration snapshot.
func (e *Engine) Config() Config {
	return e.cfg
}

// Score computes the composite reward for an input, always in [0,1].
// The entropy policy participates only when the input carries a source
// distribution, so its weight never dilutes single-source scoring.
func (e *Engine) Score(in ScoreInput) float64 {
	score := e.cfg.WSim*e.sim.Compute(in) +
		e.cfg.WHit*e.hit.Compute(in) +
		e.cfg.WRec*e.rec.Compute(in)
	totalWeight := e.cfg.WSim + e.cfg.WHit + e.cfg.WRec

	if e.cfg.EntropyAlpha > 0 && len(in.SourceDist) > 0 {
		score += e.entropy.Compute(in)
		totalWeight += e.cfg.EntropyAlpha
	}

	if e.cfg.NormalizeWeights && totalWeight > 0 {
		score /= totalWeight
	}

	if math.IsNaN(score) {
		return 0
	}
	return clamp01(score)
}

// FoldReward folds a new reward into a running mean over n observations.
// The update is O(1) and keeps no history: mean' = (mean*n + reward)/(n+1).
func FoldReward(mean float64, n int64, reward float64) float64 {
	if n < 0 {
		n = 0
	}
	return (mean*float64(n) + reward) / float64(n+1)
}

// Reinforce scores the evidence and folds the reward into the item stored
// under the content's hash. The read-modify-write happens atomically inside
// the repository; the reward is computed against the item state visible in
// that transaction.
func (e *Engine) Reinforce(ctx context.Context, repo storage.MemoryRepository, contents, query string, similarity float64) (*core.MemoryItem, error) {
	if repo == nil {
		return nil, ErrNilRepository
	}
	if contents == "" {
		return nil, core.ErrEmptyContent
	}

	item, err := repo.Reinforce(ctx, contents, func(current *core.MemoryItem) float64 {
		return e.Score(ScoreInput{
			Item:       current,
			Query:      query,
			Similarity: similarity,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("reinforcing memory: %w", err)
	}

	e.logger.Debug("reinforced memory",
		"id", item.Id,
		"hits", item.HitCount,
		"rewardMean", item.RewardMean)

	return item, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

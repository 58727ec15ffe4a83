package reward

import (
	"testing"
	"time"

	"github.com/poiesic/rankfuse/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine_Validation(t *testing.T) {
	_, err := NewEngine(DefaultConfig().WithWeights(-1, 0.3, 0.15))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewEngine(DefaultConfig().WithSigmoidK(-1))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewEngine(DefaultConfig())
	assert.NoError(t, err)
}

func TestEngine_Score(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("brand new item with perfect similarity scores high", func(t *testing.T) {
		engine, err := NewEngine(DefaultConfig())
		require.NoError(t, err)

		got := engine.Score(ScoreInput{
			Item:       &core.MemoryItem{Contents: "x"},
			Similarity: 1.0,
			Now:        now,
		})
		assert.Greater(t, got, 0.6)
		assert.LessOrEqual(t, got, 1.0)
	})

	t.Run("normalized scores stay in unit interval", func(t *testing.T) {
		engine, err := NewEngine(DefaultConfig())
		require.NoError(t, err)

		inputs := []ScoreInput{
			{Similarity: -1, Now: now},
			{Similarity: 0, Now: now},
			{Similarity: 1, Now: now},
			{Item: &core.MemoryItem{Contents: "x", HitCount: 100, CreatedAt: now.Add(-365 * 24 * time.Hour)}, Similarity: 0.5, Now: now},
		}
		for _, in := range inputs {
			got := engine.Score(in)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		}
	})

	t.Run("higher similarity never lowers the score", func(t *testing.T) {
		engine, err := NewEngine(DefaultConfig())
		require.NoError(t, err)

		item := &core.MemoryItem{Contents: "x", HitCount: 3, CreatedAt: now.Add(-48 * time.Hour)}
		low := engine.Score(ScoreInput{Item: item, Similarity: 0.3, Now: now})
		high := engine.Score(ScoreInput{Item: item, Similarity: 0.9, Now: now})
		assert.Greater(t, high, low)
	})

	t.Run("entropy weight only applies with a source distribution", func(t *testing.T) {
		cfg := DefaultConfig().WithEntropyAlpha(0.4)
		engine, err := NewEngine(cfg)
		require.NoError(t, err)

		plain, err := NewEngine(DefaultConfig())
		require.NoError(t, err)

		in := ScoreInput{Similarity: 0.8, Now: now}
		assert.Equal(t, plain.Score(in), engine.Score(in),
			"without a distribution the entropy policy must not dilute the composite")

		withDist := in
		withDist.SourceDist = map[string]int{"web": 5, "vector": 5}
		assert.NotEqual(t, engine.Score(in), engine.Score(withDist))
	})
}

func TestFoldReward(t *testing.T) {
	tests := []struct {
		name   string
		mean   float64
		n      int64
		reward float64
		want   float64
	}{
		{"first observation", 0, 0, 0.8, 0.8},
		{"second observation averages", 0.8, 1, 0.4, 0.6},
		{"large n moves slowly", 0.5, 99, 1.0, 0.505},
		{"negative n treated as zero", 0.9, -5, 0.3, 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, FoldReward(tt.mean, tt.n, tt.reward), 1e-12)
		})
	}
}

func TestFoldReward_StreamMatchesBatchMean(t *testing.T) {
	rewards := []float64{0.2, 0.9, 0.5, 0.7, 0.1, 1.0}

	var mean float64
	var sum float64
	for i, r := range rewards {
		mean = FoldReward(mean, int64(i), r)
		sum += r
	}

	assert.InDelta(t, sum/float64(len(rewards)), mean, 1e-12)
}

package reward

import (
	"math"
	"time"

	"github.com/poiesic/rankfuse/core"
)

// sigmoidOverflowGuard short-circuits the logistic function when the
// exponent would overflow float64 precision anyway.
const sigmoidOverflowGuard = 60.0

// hitCountMidpoint is where the hit-count sigmoid crosses 0.5.
const hitCountMidpoint = 7.0

// ScoreInput carries everything a policy may inspect when scoring.
type ScoreInput struct {
	Item       *core.MemoryItem
	Query      string
	Similarity float64
	// SourceDist counts contributing evidence per source; empty disables
	// the entropy policy for this input.
	SourceDist map[string]int
	// Now anchors time-based policies. Zero means time.Now().
	Now time.Time
}

func (in ScoreInput) now() time.Time {
	if in.Now.IsZero() {
		return time.Now()
	}
	return in.Now
}

// Policy scores one aspect of an evidence memory into [0,1]
// (entropy may exceed 1 before its alpha scale is applied).
type Policy interface {
	Compute(in ScoreInput) float64
}

// SimilarityPolicy scores query similarity. Negative similarity is scored
// zero; non-negative values are floored then clamped into [0,1].
type SimilarityPolicy struct {
	Floor float64
}

var _ Policy = SimilarityPolicy{}

func (p SimilarityPolicy) Compute(in ScoreInput) float64 {
	s := in.Similarity
	if math.IsNaN(s) || s < 0 {
		return 0
	}
	if s > 1 {
		s = 1
	}
	if s < p.Floor {
		return p.Floor
	}
	return s
}

// HitCountPolicy scores usage frequency with a logistic curve centered at
// seven hits. Steepness K defaults to 0.25 when zero.
type HitCountPolicy struct {
	K float64
}

var _ Policy = HitCountPolicy{}

func (p HitCountPolicy) Compute(in ScoreInput) float64 {
	k := p.K
	if k == 0 {
		k = 0.25
	}

	var hits float64
	if in.Item != nil {
		hits = float64(in.Item.HitCount)
	}

	z := -k * (hits - hitCountMidpoint)
	if z > sigmoidOverflowGuard {
		return 0
	}
	if z < -sigmoidOverflowGuard {
		return 1
	}
	return 1.0 / (1.0 + math.Exp(z))
}

// RecencyPolicy scores age with exponential decay. An item that has never
// been reinforced (zero CreatedAt) counts as brand new and scores 1.
type RecencyPolicy struct {
	HalfLifeDays float64
}

var _ Policy = RecencyPolicy{}

func (p RecencyPolicy) Compute(in ScoreInput) float64 {
	if in.Item == nil || in.Item.CreatedAt.IsZero() {
		return 1.0
	}

	halfLife := p.HalfLifeDays
	if halfLife <= 0 {
		halfLife = 14
	}

	ageDays := in.now().Sub(in.Item.CreatedAt).Hours() / 24.0
	if ageDays <= 0 {
		return 1.0
	}

	lambda := math.Ln2 / halfLife
	return math.Exp(-lambda * ageDays)
}

// EntropyPolicy rewards evidence drawn from a diverse set of sources.
// The score is Alpha times the Shannon entropy of the source distribution.
type EntropyPolicy struct {
	Alpha float64
}

var _ Policy = EntropyPolicy{}

func (p EntropyPolicy) Compute(in ScoreInput) float64 {
	if p.Alpha <= 0 || len(in.SourceDist) == 0 {
		return 0
	}

	var total float64
	for _, count := range in.SourceDist {
		if count > 0 {
			total += float64(count)
		}
	}
	if total == 0 {
		return 0
	}

	var entropy float64
	for _, count := range in.SourceDist {
		if count <= 0 {
			continue
		}
		prob := float64(count) / total
		entropy -= prob * math.Log2(prob)
	}

	return p.Alpha * entropy
}

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

import "fmt"

// Config is an immutable snapshot of reward engine settings. The With*
// methods return modified copies; a Config handed to an Engine or Tuner is
// never changed underneath it.
type Config struct {
	// WSim, WHit, WRec weight the similarity, hit-count and recency policies.
	WSim float64
	WHit float64
	WRec float64

	// SigmoidK is the hit-count sigmoid steepness.
	SigmoidK float64

	// HalfLifeDays controls recency decay.
	HalfLifeDays float64

	// SimilarityFloor is the minimum score for non-negative similarities.
	SimilarityFloor float64

	// EntropyAlpha scales the optional source-entropy bonus. Zero disables it.
	EntropyAlpha float64

	// NormalizeWeights divides the composite by the total active weight.
	NormalizeWeights bool
}

// DefaultConfig returns the standard reward weighting.
func DefaultConfig() Config {
	return Config{
		WSim:             0.55,
		WHit:             0.30,
		WRec:             0.15,
		SigmoidK:         0.25,
		HalfLifeDays:     14,
		SimilarityFloor:  0.25,
		EntropyAlpha:     0,
		NormalizeWeights: true,
	}
}

// WithWeights returns a copy with the three core policy weights replaced.
func (c Config) WithWeights(sim, hit, rec float64) Config {
	c.WSim, c.WHit, c.WRec = sim, hit, rec
	return c
}

// WithSigmoidK returns a copy with the hit-count steepness replaced.
func (c Config) WithSigmoidK(k float64) Config {
	c.SigmoidK = k
	return c
}

// WithHalfLifeDays returns a copy with the recency half-life replaced.
func (c Config) WithHalfLifeDays(days float64) Config {
	c.HalfLifeDays = days
	return c
}

// WithSimilarityFloor returns a copy with the similarity floor replaced.
func (c Config) WithSimilarityFloor(floor float64) Config {
	c.SimilarityFloor = floor
	return c
}

// WithEntropyAlpha returns a copy with the entropy bonus scale replaced.
func (c Config) WithEntropyAlpha(alpha float64) Config {
	c.EntropyAlpha = alpha
	return c
}

// WithNormalization returns a copy with weight normalization toggled.
func (c Config) WithNormalization(enabled bool) Config {
	c.NormalizeWeights = enabled
	return c
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.WSim < 0 || c.WHit < 0 || c.WRec < 0 {
		return fmt.Errorf("%w: policy weights cannot be negative", ErrInvalidConfig)
	}
	if c.WSim+c.WHit+c.WRec == 0 && c.EntropyAlpha == 0 {
		return fmt.Errorf("%w: at least one policy must carry weight", ErrInvalidConfig)
	}
	if c.SigmoidK <= 0 {
		return fmt.Errorf("%w: SigmoidK must be greater than 0", ErrInvalidConfig)
	}
	if c.HalfLifeDays <= 0 {
		return fmt.Errorf("%w: HalfLifeDays must be greater than 0", ErrInvalidConfig)
	}
	if c.SimilarityFloor < 0 || c.SimilarityFloor > 1 {
		return fmt.Errorf("%w: SimilarityFloor must be in [0,1]", ErrInvalidConfig)
	}
	if c.EntropyAlpha < 0 {
		return fmt.Errorf("%w: EntropyAlpha cannot be negative", ErrInvalidConfig)
	}
	return nil
}

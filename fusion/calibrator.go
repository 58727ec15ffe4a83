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
	"math"
	"sync"
)

// Calibrator maps a source's native score onto a common band so scores from
// different sources become comparable. Implementations must be safe for
// concurrent use and must map NaN input to 0.
type Calibrator interface {
	Normalize(raw float64, sourceID string) float64
}

// IdentityCalibrator clamps scores into [0,1] without per-source state.
// Suitable when sources already emit normalized scores.
type IdentityCalibrator struct{}

var _ Calibrator = IdentityCalibrator{}

func (IdentityCalibrator) Normalize(raw float64, _ string) float64 {
	if math.IsNaN(raw) {
		return 0
	}
	return clamp(raw, 0, 1)
}

// SoftClampCalibrator clamps scores into [0, max] where max defaults to 1.5.
// The wider band keeps some headroom for sources that legitimately score
// above 1 without letting outliers dominate fusion.
type SoftClampCalibrator struct {
	Max float64
}

var _ Calibrator = SoftClampCalibrator{}

func (c SoftClampCalibrator) Normalize(raw float64, _ string) float64 {
	if math.IsNaN(raw) {
		return 0
	}
	max := c.Max
	if max <= 0 {
		max = 1.5
	}
	return clamp(raw, 0, max)
}

// MinMaxCalibrator rescales scores into [0,1] using running per-source
// minimum and maximum. Until a source has shown a non-degenerate range the
// calibrator returns 0; once the range stabilizes the mapping is monotonic.
type MinMaxCalibrator struct {
	stats sync.Map // sourceID -> *minMaxStats
}

var _ Calibrator = (*MinMaxCalibrator)(nil)

type minMaxStats struct {
	mu   sync.Mutex
	min  float64
	max  float64
	seen bool
}

// NewMinMaxCalibrator creates an empty online min-max calibrator.
func NewMinMaxCalibrator() *MinMaxCalibrator {
	return &MinMaxCalibrator{}
}

func (c *MinMaxCalibrator) Normalize(raw float64, sourceID string) float64 {
	if math.IsNaN(raw) {
		return 0
	}

	v, _ := c.stats.LoadOrStore(sourceID, &minMaxStats{})
	s := v.(*minMaxStats)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.seen {
		s.min, s.max, s.seen = raw, raw, true
	} else {
		if raw < s.min {
			s.min = raw
		}
		if raw > s.max {
			s.max = raw
		}
	}

	// Degenerate range: nothing to scale against yet
	if s.max <= s.min {
		return 0
	}
	return clamp((raw-s.min)/(s.max-s.min), 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

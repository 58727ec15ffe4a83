package fusion

import "math"

// StableSoftmax converts arbitrary scores into a probability-like distribution.
// The maximum is subtracted before exponentiation so large inputs cannot
// overflow. The output preserves the relative order of the input and always
// sums to 1 for non-empty input.
func StableSoftmax(scores []float64) []float64 {
	if len(scores) == 0 {
		return nil
	}

	maxScore := scores[0]
	for _, s := range scores[1:] {
		if s > maxScore {
			maxScore = s
		}
	}

	out := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		if math.IsNaN(s) {
			s = maxScore // treat as neutral, exp(0) after shift
		}
		out[i] = math.Exp(s - maxScore)
		sum += out[i]
	}

	if sum == 0 || math.IsNaN(sum) {
		// Degenerate input, fall back to uniform
		uniform := 1.0 / float64(len(scores))
		for i := range out {
			out[i] = uniform
		}
		return out
	}

	for i := range out {
		out[i] /= sum
	}
	return out
}

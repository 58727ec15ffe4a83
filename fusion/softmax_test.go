package fusion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStableSoftmax(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, StableSoftmax(nil))
	})

	t.Run("sums to one", func(t *testing.T) {
		out := StableSoftmax([]float64{0.1, 0.5, 0.3})
		var sum float64
		for _, v := range out {
			sum += v
		}
		assert.InDelta(t, 1.0, sum, 1e-12)
	})

	t.Run("preserves order", func(t *testing.T) {
		out := StableSoftmax([]float64{3.0, 1.0, 2.0})
		assert.Greater(t, out[0], out[2])
		assert.Greater(t, out[2], out[1])
	})

	t.Run("large inputs do not overflow", func(t *testing.T) {
		out := StableSoftmax([]float64{1e9, 1e9 - 1})
		require.Len(t, out, 2)
		for _, v := range out {
			assert.False(t, math.IsNaN(v))
			assert.False(t, math.IsInf(v, 0))
		}
		assert.Greater(t, out[0], out[1])
	})

	t.Run("identical inputs become uniform", func(t *testing.T) {
		out := StableSoftmax([]float64{2.0, 2.0, 2.0, 2.0})
		for _, v := range out {
			assert.InDelta(t, 0.25, v, 1e-12)
		}
	})
}

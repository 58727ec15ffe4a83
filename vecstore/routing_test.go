package vecstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopicRouting_WeightsFor(t *testing.T) {
	routing := NewTopicRouting(map[string]map[string]float64{
		"finance": {"general": 0.3, "domain": 0.7},
		"default": {"general": 0.5, "domain": 0.5},
	}, 1)

	assert.Equal(t, 0.7, routing.WeightsFor("finance")["domain"])
	assert.Equal(t, 0.5, routing.WeightsFor("unknown-topic")["domain"], "unknown topics use the default entry")
	assert.Equal(t, 1, routing.MinPerStore())

	var nilRouting *TopicRouting
	assert.Nil(t, nilRouting.WeightsFor("anything"))
	assert.Equal(t, 0, nilRouting.MinPerStore())
}

func TestAllocateK(t *testing.T) {
	stores := []string{"a", "b", "c"}

	sumOf := func(alloc map[string]int) int {
		total := 0
		for _, v := range alloc {
			total += v
		}
		return total
	}

	t.Run("sums to topK", func(t *testing.T) {
		for _, topK := range []int{1, 3, 7, 10, 17, 100} {
			alloc := AllocateK(topK, map[string]float64{"a": 0.5, "b": 0.3, "c": 0.2}, 0, stores)
			assert.Equal(t, topK, sumOf(alloc), "topK=%d", topK)
		}
	})

	t.Run("proportional to weights", func(t *testing.T) {
		alloc := AllocateK(10, map[string]float64{"a": 0.5, "b": 0.3, "c": 0.2}, 0, stores)
		assert.Equal(t, 5, alloc["a"])
		assert.Equal(t, 3, alloc["b"])
		assert.Equal(t, 2, alloc["c"])
	})

	t.Run("nil weights spread uniformly", func(t *testing.T) {
		alloc := AllocateK(9, nil, 0, stores)
		assert.Equal(t, 3, alloc["a"])
		assert.Equal(t, 3, alloc["b"])
		assert.Equal(t, 3, alloc["c"])
	})

	t.Run("rounding surplus goes to heaviest store", func(t *testing.T) {
		alloc := AllocateK(1, map[string]float64{"a": 0.4, "b": 0.35, "c": 0.25}, 0, stores)
		assert.Equal(t, 1, sumOf(alloc))
		assert.Equal(t, 1, alloc["a"])
	})

	t.Run("floor raises starved stores", func(t *testing.T) {
		alloc := AllocateK(10, map[string]float64{"a": 0.9, "b": 0.05, "c": 0.05}, 2, stores)
		assert.Equal(t, 10, sumOf(alloc))
		assert.GreaterOrEqual(t, alloc["b"], 2)
		assert.GreaterOrEqual(t, alloc["c"], 2)
		// Floor payment comes out of the heavy store
		assert.LessOrEqual(t, alloc["a"], 6)
	})

	t.Run("floor is skipped when budget cannot honor it", func(t *testing.T) {
		alloc := AllocateK(2, map[string]float64{"a": 1, "b": 1, "c": 1}, 3, stores)
		assert.Equal(t, 2, sumOf(alloc))
	})

	t.Run("zero topK", func(t *testing.T) {
		assert.Empty(t, AllocateK(0, nil, 0, stores))
	})

	t.Run("zero total weight falls back to uniform", func(t *testing.T) {
		alloc := AllocateK(6, map[string]float64{"a": 0, "b": 0, "c": 0}, 0, stores)
		assert.Equal(t, 6, sumOf(alloc))
		assert.Equal(t, 2, alloc["a"])
	})
}

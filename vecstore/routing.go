package vecstore

import "sort"

// DefaultTopic is the routing table fallback for unknown topics.
const DefaultTopic = "default"

// TopicRouting maps topics to per-store search weights. A store absent from
// a topic's weights receives weight 0 for that topic. MinPerStore guarantees
// a result floor for every weighted store when the budget allows it.
type TopicRouting struct {
	weights     map[string]map[string]float64
	minPerStore int
}

// NewTopicRouting builds a routing table. The "default" topic, when present,
// serves any topic without its own entry.
func NewTopicRouting(weights map[string]map[string]float64, minPerStore int) *TopicRouting {
	if minPerStore < 0 {
		minPerStore = 0
	}
	return &TopicRouting{weights: weights, minPerStore: minPerStore}
}

// WeightsFor resolves the weight map for a topic, falling back to the
// default entry. Returns nil when no routing applies (callers treat that
// as uniform weighting).
func (r *TopicRouting) WeightsFor(topic string) map[string]float64 {
	if r == nil || r.weights == nil {
		return nil
	}
	if w, ok := r.weights[topic]; ok {
		return w
	}
	return r.weights[DefaultTopic]
}

// MinPerStore returns the per-store floor.
func (r *TopicRouting) MinPerStore() int {
	if r == nil {
		return 0
	}
	return r.minPerStore
}

// AllocateK distributes a result budget across stores proportionally to
// their weights. Allocations are rounded, then adjusted so they sum to
// exactly topK: surplus goes to the highest-weighted store, deficit comes
// out of the lowest-weighted. A minPerStore floor is enforced afterwards
// when the budget can honor it; shrinkage to pay for the floor also comes
// from the lowest-weighted stores above the floor.
func AllocateK(topK int, weights map[string]float64, minPerStore int, storeNames []string) map[string]int {
	alloc := make(map[string]int, len(storeNames))
	if topK <= 0 || len(storeNames) == 0 {
		return alloc
	}

	// Stable processing order: weight descending, then name
	names := make([]string, len(storeNames))
	copy(names, storeNames)

	weightOf := func(name string) float64 {
		if weights == nil {
			return 1.0
		}
		return weights[name]
	}

	var total float64
	for _, name := range names {
		total += weightOf(name)
	}
	if total <= 0 {
		// No routing signal, spread uniformly
		weightOf = func(string) float64 { return 1.0 }
		total = float64(len(names))
	}

	sort.SliceStable(names, func(i, j int) bool {
		wi, wj := weightOf(names[i]), weightOf(names[j])
		if wi != wj {
			return wi > wj
		}
		return names[i] < names[j]
	})

	sum := 0
	for _, name := range names {
		share := int(float64(topK)*weightOf(name)/total + 0.5)
		alloc[name] = share
		sum += share
	}

	// Rounding drift: surplus to the strongest store, deficit from the weakest
	for sum < topK {
		alloc[names[0]]++
		sum++
	}
	for i := len(names) - 1; sum > topK && i >= 0; {
		if alloc[names[i]] > 0 {
			alloc[names[i]]--
			sum--
		} else {
			i--
		}
	}

	if minPerStore <= 0 {
		return alloc
	}
	if minPerStore*len(names) > topK {
		// Budget cannot honor the floor for every store; keep proportional split
		return alloc
	}

	for _, name := range names {
		if alloc[name] < minPerStore {
			sum += minPerStore - alloc[name]
			alloc[name] = minPerStore
		}
	}
	for i := len(names) - 1; sum > topK && i >= 0; {
		if alloc[names[i]] > minPerStore {
			alloc[names[i]]--
			sum--
		} else {
			i--
		}
	}

	return alloc
}

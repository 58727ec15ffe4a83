package fusion

import "sort"

// BordaScores computes Borda count points across ranked lists. An item at
// rank index i in a list of size n earns n-i-1 points from that list; points
// sum across lists. Items appearing first in k lists of size n therefore
// accumulate k*(n-1) points.
func BordaScores[T comparable](lists [][]T) map[T]int {
	scores := make(map[T]int)
	for _, list := range lists {
		n := len(list)
		for i, item := range list {
			scores[item] += n - i - 1
		}
	}
	return scores
}

// BordaFuse merges ranked lists by Borda count, returning items ordered by
// total points descending. Ties preserve first-encounter order across the
// input lists.
func BordaFuse[T comparable](lists [][]T) []T {
	scores := BordaScores(lists)
	if len(scores) == 0 {
		return nil
	}

	order := make(map[T]int, len(scores))
	items := make([]T, 0, len(scores))
	for _, list := range lists {
		for _, item := range list {
			if _, ok := order[item]; !ok {
				order[item] = len(items)
				items = append(items, item)
			}
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return scores[items[i]] > scores[items[j]]
	})

	return items
}

package scorer

import "sort"

// competitionRank ranks values descending: the largest gets 1 and ties
// share the smallest rank of their group ("1224" ranking).
func competitionRank(vals []float64) []int {
	idx := make([]int, len(vals))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return vals[idx[a]] > vals[idx[b]] })

	ranks := make([]int, len(vals))
	for pos, i := range idx {
		if pos > 0 && vals[i] == vals[idx[pos-1]] {
			ranks[i] = ranks[idx[pos-1]]
			continue
		}
		ranks[i] = pos + 1
	}
	return ranks
}

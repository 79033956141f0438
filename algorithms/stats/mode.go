package stats

import (
	"cmp"
	"slices"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Mode returns the most frequent value and its count.
// Ties go to the smallest value in sorted order, so the result does not
// depend on input order. ok is false for an empty input.
func Mode[T cmp.Ordered](values []T) (mode T, count int, ok bool) {
	if len(values) == 0 {
		return mode, 0, false
	}

	counts := make(map[T]int, len(values))
	for _, v := range values {
		counts[v]++
	}

	keys := make([]T, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		if counts[k] > count {
			mode, count = k, counts[k]
		}
	}
	return mode, count, true
}

// GroupModes returns the Mode of values within each group id.
// groups and values must have the same length.
func GroupModes[K cmp.Ordered, T cmp.Ordered](groups []K, values []T) map[K]T {
	members := make(map[K][]T)
	for i, g := range groups {
		members[g] = append(members[g], values[i])
	}

	modes := make(map[K]T, len(members))
	for g, vals := range members {
		modes[g], _, _ = Mode(vals)
	}
	return modes
}

// Median returns the empirical median of data without modifying it
func Median(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sorted := slices.Clone(data)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}

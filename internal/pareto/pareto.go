package pareto

import "sort"

// Point is one completed trial's objective vector together with its trial
// number. Number is the evaluation order within the study and is the only key
// used for ordering and tie-breaking.
type Point struct {
	Number int       `json:"number" yaml:"number"`
	Values []float64 `json:"values" yaml:"values"`
}

// Front partitions a set of points into non-dominated and dominated blocks.
// Both blocks are ordered by ascending Number.
type Front struct {
	Front     []Point `json:"front"`
	Dominated []Point `json:"dominated"`
}

// Dominates returns true if a dominates b: a is at least as good as b in every
// dimension and strictly better in at least one. a, b and directions must have
// the same length.
func Dominates(a, b []float64, directions []Direction) bool {
	strictly := false
	for i, d := range directions {
		if d.better(b[i], a[i]) {
			return false
		}
		if d.better(a[i], b[i]) {
			strictly = true
		}
	}
	return strictly
}

// Extract splits points into the Pareto front and the dominated remainder.
// A point is dominated if any other point dominates it, so points with
// identical values all stay on the front. The input slice is not modified.
// O(n^2) dominance check, fine for typical study sizes.
func Extract(points []Point, directions []Direction) Front {
	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Number < sorted[j].Number
	})

	f := Front{Front: []Point{}, Dominated: []Point{}}
	for i := range sorted {
		dominated := false
		for j := range sorted {
			if i == j {
				continue
			}
			if Dominates(sorted[j].Values, sorted[i].Values, directions) {
				dominated = true
				break
			}
		}
		if dominated {
			f.Dominated = append(f.Dominated, sorted[i])
		} else {
			f.Front = append(f.Front, sorted[i])
		}
	}
	return f
}

// Numbers returns the trial numbers of ps in order.
func Numbers(ps []Point) []int {
	out := make([]int, len(ps))
	for i, p := range ps {
		out[i] = p.Number
	}
	return out
}

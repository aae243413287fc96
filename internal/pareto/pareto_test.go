package pareto

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func minimize(n int) []Direction {
	ds := make([]Direction, n)
	for i := range ds {
		ds[i] = Minimize
	}
	return ds
}

func TestDominates(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		dirs []Direction
		want bool
	}{
		{"better everywhere", []float64{0, 0}, []float64{1, 1}, minimize(2), true},
		{"better in one, equal in other", []float64{1, 0}, []float64{1, 1}, minimize(2), true},
		{"identical", []float64{1, 1}, []float64{1, 1}, minimize(2), false},
		{"incomparable", []float64{1, 0}, []float64{0, 1}, minimize(2), false},
		{"worse", []float64{2, 2}, []float64{1, 1}, minimize(2), false},
		{"maximize", []float64{2, 2}, []float64{1, 1}, []Direction{Maximize, Maximize}, true},
		{"mixed directions", []float64{0, 5}, []float64{1, 4}, []Direction{Minimize, Maximize}, true},
		{"mixed directions against", []float64{0, 3}, []float64{1, 4}, []Direction{Minimize, Maximize}, false},
		{"three dims", []float64{1, 1, 0}, []float64{1, 1, 1}, minimize(3), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Dominates(tt.a, tt.b, tt.dirs))
		})
	}
}

func TestDominatesIrreflexiveAndAntisymmetric(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	dirs := []Direction{Minimize, Maximize, Minimize}
	for i := 0; i < 500; i++ {
		v := []float64{float64(rng.Intn(3)), float64(rng.Intn(3)), float64(rng.Intn(3))}
		w := []float64{float64(rng.Intn(3)), float64(rng.Intn(3)), float64(rng.Intn(3))}
		require.False(t, Dominates(v, v, dirs), "%v dominates itself", v)
		require.False(t, Dominates(v, w, dirs) && Dominates(w, v, dirs), "%v and %v dominate each other", v, w)
	}
}

func TestExtractScenario2D(t *testing.T) {
	points := []Point{
		{Number: 0, Values: []float64{1, 1}},
		{Number: 1, Values: []float64{1, 0}},
		{Number: 2, Values: []float64{0, 1}},
	}
	f := Extract(points, minimize(2))
	require.Equal(t, []Point{points[1], points[2]}, f.Front)
	require.Equal(t, []Point{points[0]}, f.Dominated)
}

func TestExtractEdgeCases(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		f := Extract(nil, minimize(2))
		require.NotNil(t, f.Front)
		require.NotNil(t, f.Dominated)
		require.Empty(t, f.Front)
		require.Empty(t, f.Dominated)
	})

	t.Run("all incomparable", func(t *testing.T) {
		points := []Point{
			{Number: 0, Values: []float64{0, 3}},
			{Number: 1, Values: []float64{1, 2}},
			{Number: 2, Values: []float64{2, 1}},
			{Number: 3, Values: []float64{3, 0}},
		}
		f := Extract(points, minimize(2))
		require.Equal(t, points, f.Front)
		require.Empty(t, f.Dominated)
	})

	t.Run("all identical", func(t *testing.T) {
		points := []Point{
			{Number: 0, Values: []float64{1, 1}},
			{Number: 1, Values: []float64{1, 1}},
			{Number: 2, Values: []float64{1, 1}},
		}
		f := Extract(points, minimize(2))
		require.Equal(t, []int{0, 1, 2}, Numbers(f.Front))
		require.Empty(t, f.Dominated)
	})

	t.Run("duplicates of a dominated point stay dominated", func(t *testing.T) {
		points := []Point{
			{Number: 0, Values: []float64{2, 2}},
			{Number: 1, Values: []float64{2, 2}},
			{Number: 2, Values: []float64{0, 0}},
		}
		f := Extract(points, minimize(2))
		require.Equal(t, []int{2}, Numbers(f.Front))
		require.Equal(t, []int{0, 1}, Numbers(f.Dominated))
	})
}

func TestExtractOrdersByNumber(t *testing.T) {
	points := []Point{
		{Number: 9, Values: []float64{5, 5}},
		{Number: 4, Values: []float64{0, 9}},
		{Number: 7, Values: []float64{9, 0}},
		{Number: 1, Values: []float64{6, 6}},
		{Number: 3, Values: []float64{4, 4}},
	}
	in := make([]Point, len(points))
	copy(in, points)

	f := Extract(points, minimize(2))
	require.Equal(t, []int{3, 4, 7}, Numbers(f.Front))
	require.Equal(t, []int{1, 9}, Numbers(f.Dominated))
	require.Equal(t, in, points, "input must not be reordered")
}

func TestExtractPartitionProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	dirs := []Direction{Minimize, Maximize, Minimize}

	for round := 0; round < 50; round++ {
		n := rng.Intn(40)
		points := make([]Point, n)
		for i := range points {
			points[i] = Point{Number: i, Values: []float64{rng.Float64(), rng.Float64(), float64(rng.Intn(4))}}
		}
		rng.Shuffle(len(points), func(i, j int) { points[i], points[j] = points[j], points[i] })

		f := Extract(points, dirs)
		require.Len(t, append(Numbers(f.Front), Numbers(f.Dominated)...), n)

		seen := make(map[int]bool)
		for _, p := range append(append([]Point{}, f.Front...), f.Dominated...) {
			require.False(t, seen[p.Number], "trial %d emitted twice", p.Number)
			seen[p.Number] = true
		}

		for _, p := range f.Front {
			for _, q := range points {
				require.False(t, Dominates(q.Values, p.Values, dirs), "front trial %d dominated by %d", p.Number, q.Number)
			}
		}
		for _, p := range f.Dominated {
			found := false
			for _, q := range points {
				if Dominates(q.Values, p.Values, dirs) {
					found = true
					break
				}
			}
			require.True(t, found, "dominated trial %d has no dominator", p.Number)
		}

		for _, block := range [][]Point{f.Front, f.Dominated} {
			for i := 1; i < len(block); i++ {
				require.Less(t, block[i-1].Number, block[i].Number)
			}
		}

		require.Equal(t, f, Extract(points, dirs), "extraction must be idempotent")
	}
}

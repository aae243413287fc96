package pareto

// Series is the renderer input: one coordinate sequence and one title per
// rendering axis (x, y, and z for 3-D).
type Series struct {
	Coordinates [][]float64 `json:"coordinates"`
	Titles      []string    `json:"titles"`

	// Points is the working list in output order. The first FrontLen points
	// are non-dominated, the rest are dominated.
	Points   []Point `json:"points"`
	FrontLen int     `json:"front_len"`
}

// Axes returns the number of rendering axes.
func (s *Series) Axes() int { return len(s.Coordinates) }

// BuildSeries projects the working list onto the rendering axes. With
// includeDominated the front block comes first and the dominated block after
// it. Axis k takes dimension order[k] of every point and is titled
// names[order[k]]. Values are copied unchanged.
func BuildSeries(f Front, includeDominated bool, order []int, names []string) Series {
	working := make([]Point, 0, len(f.Front)+len(f.Dominated))
	working = append(working, f.Front...)
	if includeDominated {
		working = append(working, f.Dominated...)
	}

	s := Series{
		Coordinates: make([][]float64, len(order)),
		Titles:      make([]string, len(order)),
		Points:      working,
		FrontLen:    len(f.Front),
	}
	for k, dim := range order {
		coords := make([]float64, len(working))
		for i, p := range working {
			coords[i] = p.Values[dim]
		}
		s.Coordinates[k] = coords
		s.Titles[k] = names[dim]
	}
	return s
}

package pareto

// Options controls how a front is projected for plotting.
type Options struct {
	IncludeDominated bool
	// Names are indexed by objective dimension. nil selects defaults.
	Names []string
	// AxisOrder maps rendering axis to objective dimension. nil selects the
	// identity.
	AxisOrder []int
}

// Plot checks the dimensionality, resolves names and axis order, extracts the
// front and builds the series. Any error aborts the whole call.
func Plot(points []Point, directions []Direction, opts Options) (*Series, error) {
	n := len(directions)
	if err := CheckDimension(n); err != nil {
		return nil, err
	}
	names, err := ResolveNames(opts.Names, n)
	if err != nil {
		return nil, err
	}
	order := ValidateAxisOrder(opts.AxisOrder, n)

	f := Extract(points, directions)
	s := BuildSeries(f, opts.IncludeDominated, order, names)
	return &s, nil
}

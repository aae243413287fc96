package pareto

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedDimension is returned when a plot is requested for a
	// study whose objective count is not 2 or 3.
	ErrUnsupportedDimension = errors.New("plot is only supported for 2 or 3 objectives")

	// ErrInvalidArgument is returned for malformed caller options.
	ErrInvalidArgument = errors.New("invalid argument")
)

// CheckDimension rejects objective counts that cannot be rendered.
func CheckDimension(n int) error {
	if n != 2 && n != 3 {
		return fmt.Errorf("%w: got %d", ErrUnsupportedDimension, n)
	}
	return nil
}

// ValidateAxisOrder returns the identity permutation of length n when order is
// nil, and a copy of order otherwise. order must already be a permutation of
// 0..n-1; option parsers check that with IsPermutation.
func ValidateAxisOrder(order []int, n int) []int {
	if order == nil {
		identity := make([]int, n)
		for i := range identity {
			identity[i] = i
		}
		return identity
	}
	out := make([]int, len(order))
	copy(out, order)
	return out
}

// IsPermutation reports whether order contains each of 0..n-1 exactly once.
func IsPermutation(order []int, n int) bool {
	if len(order) != n {
		return false
	}
	seen := make([]bool, n)
	for _, k := range order {
		if k < 0 || k >= n || seen[k] {
			return false
		}
		seen[k] = true
	}
	return true
}

// ResolveNames returns the display name of every objective dimension. A nil
// slice yields "Objective 0" .. "Objective n-1"; anything else must have
// exactly n entries.
func ResolveNames(names []string, n int) ([]string, error) {
	if names == nil {
		out := make([]string, n)
		for i := range out {
			out[i] = fmt.Sprintf("Objective %d", i)
		}
		return out, nil
	}
	if len(names) != n {
		return nil, fmt.Errorf("%w: names must have length equal to n_objectives (%d), got %d",
			ErrInvalidArgument, n, len(names))
	}
	out := make([]string, n)
	copy(out, names)
	return out, nil
}

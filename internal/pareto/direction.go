package pareto

import (
	"fmt"
	"strings"
)

// Direction is the optimization direction of one objective dimension.
type Direction int

const (
	Minimize Direction = iota
	Maximize
)

func (d Direction) String() string {
	switch d {
	case Minimize:
		return "minimize"
	case Maximize:
		return "maximize"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// ParseDirection accepts "minimize" or "maximize" in any case.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minimize":
		return Minimize, nil
	case "maximize":
		return Maximize, nil
	default:
		return 0, fmt.Errorf("%w: unknown direction %q", ErrInvalidArgument, s)
	}
}

// ParseDirections parses one direction per objective dimension.
func ParseDirections(ss []string) ([]Direction, error) {
	out := make([]Direction, len(ss))
	for i, s := range ss {
		d, err := ParseDirection(s)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

// DirectionStrings is the inverse of ParseDirections.
func DirectionStrings(ds []Direction) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.String()
	}
	return out
}

func (d Direction) MarshalText() ([]byte, error) {
	if d != Minimize && d != Maximize {
		return nil, fmt.Errorf("%w: invalid direction %d", ErrInvalidArgument, int(d))
	}
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	parsed, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// better reports whether x is strictly better than y under d.
func (d Direction) better(x, y float64) bool {
	if d == Maximize {
		return x > y
	}
	return x < y
}

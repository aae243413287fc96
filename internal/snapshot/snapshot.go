// Package snapshot reads study snapshots from YAML or JSON files.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Frontier/internal/pareto"
	"github.com/MikeSquared-Agency/Frontier/internal/store"
)

type Trial struct {
	Number *int                   `yaml:"number,omitempty" json:"number,omitempty"`
	State  store.TrialState       `yaml:"state,omitempty" json:"state,omitempty"`
	Values []float64              `yaml:"values,omitempty" json:"values,omitempty"`
	Params map[string]interface{} `yaml:"params,omitempty" json:"params,omitempty"`
}

type Snapshot struct {
	Name       string             `yaml:"name" json:"name"`
	Directions []pareto.Direction `yaml:"directions" json:"directions"`
	Trials     []Trial            `yaml:"trials" json:"trials"`
}

// Load reads a snapshot, choosing the decoder by file extension. Files ending
// in .json are JSON; everything else is YAML.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var s Snapshot
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &s)
	} else {
		err = yaml.Unmarshal(data, &s)
	}
	if err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	if err := s.normalize(); err != nil {
		return nil, err
	}
	return &s, nil
}

// normalize fills in defaults: missing states are complete and missing
// numbers follow file order.
func (s *Snapshot) normalize() error {
	if len(s.Directions) == 0 {
		return fmt.Errorf("snapshot: directions are required")
	}
	seen := make(map[int]bool, len(s.Trials))
	for i := range s.Trials {
		tr := &s.Trials[i]
		if tr.Number == nil {
			n := i
			tr.Number = &n
		}
		if *tr.Number < 0 || seen[*tr.Number] {
			return fmt.Errorf("snapshot: trial %d: duplicate or negative number %d", i, *tr.Number)
		}
		seen[*tr.Number] = true

		if tr.State == "" {
			tr.State = store.TrialComplete
		}
		if !tr.State.Valid() {
			return fmt.Errorf("snapshot: trial %d: unknown state %q", *tr.Number, tr.State)
		}
		if tr.State == store.TrialComplete && len(tr.Values) != len(s.Directions) {
			return fmt.Errorf("snapshot: trial %d: expected %d values, got %d",
				*tr.Number, len(s.Directions), len(tr.Values))
		}
	}
	return nil
}

// Points returns the complete trials as points in file order.
func (s *Snapshot) Points() []pareto.Point {
	points := make([]pareto.Point, 0, len(s.Trials))
	for _, tr := range s.Trials {
		if tr.State != store.TrialComplete {
			continue
		}
		points = append(points, pareto.Point{Number: *tr.Number, Values: tr.Values})
	}
	return points
}

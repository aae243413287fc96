package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Frontier/internal/pareto"
)

// ErrStateChanged is returned by TransitionTrial when the stored trial is no
// longer in the expected state.
var ErrStateChanged = errors.New("trial state changed")

type TrialState string

const (
	TrialRunning  TrialState = "running"
	TrialComplete TrialState = "complete"
	TrialPruned   TrialState = "pruned"
	TrialFail     TrialState = "fail"
)

// Valid reports whether s is one of the known trial states.
func (s TrialState) Valid() bool {
	switch s {
	case TrialRunning, TrialComplete, TrialPruned, TrialFail:
		return true
	}
	return false
}

// Finished reports whether the state is terminal.
func (s TrialState) Finished() bool {
	return s == TrialComplete || s == TrialPruned || s == TrialFail
}

type Study struct {
	ID         uuid.UUID          `json:"study_id"`
	Name       string             `json:"name"`
	Directions []pareto.Direction `json:"directions"`
	CreatedAt  time.Time          `json:"created_at"`
}

// NObjectives is the number of objective dimensions of the study.
func (s *Study) NObjectives() int { return len(s.Directions) }

type Trial struct {
	ID      uuid.UUID  `json:"trial_id"`
	StudyID uuid.UUID  `json:"study_id"`
	Number  int        `json:"number"`
	State   TrialState `json:"state"`

	Values    []float64              `json:"values,omitempty"`
	Params    map[string]interface{} `json:"params,omitempty"`
	UserAttrs map[string]interface{} `json:"user_attrs,omitempty"`
	Error     string                 `json:"error,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Point returns the trial's objective vector keyed by its number.
func (t *Trial) Point() pareto.Point {
	return pareto.Point{Number: t.Number, Values: t.Values}
}

// CompletedPoints converts the complete trials of ts into points, keeping
// their order. Trials in any other state are skipped.
func CompletedPoints(ts []*Trial) []pareto.Point {
	points := make([]pareto.Point, 0, len(ts))
	for _, t := range ts {
		if t.State != TrialComplete {
			continue
		}
		points = append(points, t.Point())
	}
	return points
}

type StudyFilter struct {
	Name   string
	Limit  int
	Offset int
}

// TrialFilter selects trials of one study. Results are always ordered by
// ascending number.
type TrialFilter struct {
	StudyID uuid.UUID
	State   *TrialState
}

type Stats struct {
	TotalStudies   int `json:"total_studies"`
	TotalRunning   int `json:"total_running"`
	TotalCompleted int `json:"total_completed"`
	TotalPruned    int `json:"total_pruned"`
	TotalFailed    int `json:"total_failed"`
}

type Store interface {
	CreateStudy(ctx context.Context, study *Study) error
	GetStudy(ctx context.Context, id uuid.UUID) (*Study, error)
	ListStudies(ctx context.Context, filter StudyFilter) ([]*Study, error)
	DeleteStudy(ctx context.Context, id uuid.UUID) error

	// CreateTrial assigns the next trial number of the study.
	CreateTrial(ctx context.Context, trial *Trial) error
	GetTrial(ctx context.Context, studyID uuid.UUID, number int) (*Trial, error)
	// TransitionTrial writes trial only if the stored row is still in state
	// from. Otherwise it returns ErrStateChanged and writes nothing.
	TransitionTrial(ctx context.Context, trial *Trial, from TrialState) error
	ListTrials(ctx context.Context, filter TrialFilter) ([]*Trial, error)
	GetRunningTrials(ctx context.Context) ([]*Trial, error)

	GetStats(ctx context.Context) (*Stats, error)

	Close() error
}

package hermes

import "time"

type TrialStartedEvent struct {
	StudyID string                 `json:"study_id"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// TrialCompletedEvent reports objective values for a trial. When Number is
// nil a new complete trial is recorded; otherwise the running trial with that
// number is completed.
type TrialCompletedEvent struct {
	StudyID   string                 `json:"study_id"`
	Number    *int                   `json:"number,omitempty"`
	Values    []float64              `json:"values"`
	Params    map[string]interface{} `json:"params,omitempty"`
	UserAttrs map[string]interface{} `json:"user_attrs,omitempty"`
}

type TrialFailedEvent struct {
	StudyID string `json:"study_id"`
	Number  int    `json:"number"`
	Error   string `json:"error"`
}

type FrontUpdatedEvent struct {
	StudyID        string    `json:"study_id"`
	NTrials        int       `json:"n_trials"`
	FrontNumbers   []int     `json:"front_numbers"`
	DominatedCount int       `json:"dominated_count"`
	Timestamp      time.Time `json:"timestamp"`
}

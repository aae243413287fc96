package hermes

const (
	SubjectTrialStartedAll   = "frontier.study.*.trial.started"
	SubjectTrialCompletedAll = "frontier.study.*.trial.completed"
	SubjectTrialFailedAll    = "frontier.study.*.trial.failed"

	StreamName   = "FRONTIER_EVENTS"
	StreamMaxAge = "720h" // 30 days
)

func SubjectTrialStarted(studyID string) string   { return "frontier.study." + studyID + ".trial.started" }
func SubjectTrialCompleted(studyID string) string { return "frontier.study." + studyID + ".trial.completed" }
func SubjectTrialFailed(studyID string) string    { return "frontier.study." + studyID + ".trial.failed" }
func SubjectFrontUpdated(studyID string) string   { return "frontier.study." + studyID + ".front.updated" }

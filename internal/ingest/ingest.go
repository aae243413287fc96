package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Frontier/internal/config"
	"github.com/MikeSquared-Agency/Frontier/internal/hermes"
	"github.com/MikeSquared-Agency/Frontier/internal/metrics"
	"github.com/MikeSquared-Agency/Frontier/internal/pareto"
	"github.com/MikeSquared-Agency/Frontier/internal/store"
)

// Source labels for recorded trials.
const (
	SourceAPI    = "api"
	SourceEvents = "events"
)

var (
	ErrStudyNotFound = errors.New("study not found")
	ErrTrialNotFound = errors.New("trial not found")
	ErrNotRunning    = errors.New("trial is not running")
	ErrValueCount    = errors.New("values must have one entry per objective")
)

// Ingestor records trial lifecycle events from remote workers, publishes the
// recomputed front after every completion and fails trials that stay running
// for too long.
type Ingestor struct {
	store  store.Store
	hermes hermes.Client
	cfg    *config.Config
	logger *slog.Logger

	now func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func New(s store.Store, h hermes.Client, cfg *config.Config, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		store:  s,
		hermes: h,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
}

func (g *Ingestor) Start(ctx context.Context) {
	g.wg.Add(1)
	go g.reapLoop(ctx)
}

func (g *Ingestor) Stop() {
	g.stopOnce.Do(func() { close(g.stopCh) })
	g.wg.Wait()
}

// SetupSubscriptions registers NATS subscriptions for trial events.
func (g *Ingestor) SetupSubscriptions() {
	if g.hermes == nil {
		return
	}

	if err := g.hermes.Subscribe(hermes.SubjectTrialStartedAll, func(subject string, data []byte) {
		var evt hermes.TrialStartedEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			g.logger.Warn("invalid trial started event", "subject", subject, "error", err)
			return
		}
		g.handleStarted(subject, evt)
	}); err != nil {
		g.logger.Error("subscribe failed", "subject", hermes.SubjectTrialStartedAll, "error", err)
	}

	if err := g.hermes.Subscribe(hermes.SubjectTrialCompletedAll, func(subject string, data []byte) {
		var evt hermes.TrialCompletedEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			g.logger.Warn("invalid trial completed event", "subject", subject, "error", err)
			return
		}
		g.handleCompleted(subject, evt)
	}); err != nil {
		g.logger.Error("subscribe failed", "subject", hermes.SubjectTrialCompletedAll, "error", err)
	}

	if err := g.hermes.Subscribe(hermes.SubjectTrialFailedAll, func(subject string, data []byte) {
		var evt hermes.TrialFailedEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			g.logger.Warn("invalid trial failed event", "subject", subject, "error", err)
			return
		}
		g.handleFailed(subject, evt)
	}); err != nil {
		g.logger.Error("subscribe failed", "subject", hermes.SubjectTrialFailedAll, "error", err)
	}
}

// studyFor resolves the study from the event body, falling back to the
// subject.
func (g *Ingestor) studyFor(ctx context.Context, subject, bodyID string) (*store.Study, error) {
	raw := bodyID
	if raw == "" {
		raw, _ = hermes.StudyIDFromSubject(subject)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("study id %q: %w", raw, err)
	}
	study, err := g.store.GetStudy(ctx, id)
	if err != nil {
		return nil, err
	}
	if study == nil {
		return nil, ErrStudyNotFound
	}
	return study, nil
}

func (g *Ingestor) handleStarted(subject string, evt hermes.TrialStartedEvent) {
	ctx := context.Background()
	study, err := g.studyFor(ctx, subject, evt.StudyID)
	if err != nil {
		g.logger.Warn("dropping trial started event", "subject", subject, "error", err)
		return
	}
	trial := &store.Trial{
		StudyID: study.ID,
		State:   store.TrialRunning,
		Params:  evt.Params,
	}
	if err := g.store.CreateTrial(ctx, trial); err != nil {
		g.logger.Error("failed to record started trial", "study_id", study.ID, "error", err)
		return
	}
	g.logger.Info("trial started", "study_id", study.ID, "number", trial.Number)
}

func (g *Ingestor) handleCompleted(subject string, evt hermes.TrialCompletedEvent) {
	ctx := context.Background()
	study, err := g.studyFor(ctx, subject, evt.StudyID)
	if err != nil {
		g.logger.Warn("dropping trial completed event", "subject", subject, "error", err)
		return
	}

	var trial *store.Trial
	if evt.Number == nil {
		trial, err = g.RecordTrial(ctx, study, &store.Trial{
			State:     store.TrialComplete,
			Values:    evt.Values,
			Params:    evt.Params,
			UserAttrs: evt.UserAttrs,
		}, SourceEvents)
	} else {
		trial, err = g.CompleteTrial(ctx, study, *evt.Number, evt.Values, SourceEvents)
	}
	if err != nil {
		g.logger.Warn("failed to record completed trial", "study_id", study.ID, "error", err)
		return
	}
	g.logger.Info("trial completed", "study_id", study.ID, "number", trial.Number)
}

func (g *Ingestor) handleFailed(subject string, evt hermes.TrialFailedEvent) {
	ctx := context.Background()
	study, err := g.studyFor(ctx, subject, evt.StudyID)
	if err != nil {
		g.logger.Warn("dropping trial failed event", "subject", subject, "error", err)
		return
	}
	_, err = g.FailTrial(ctx, study, evt.Number, evt.Error, SourceEvents)
	switch {
	case errors.Is(err, ErrNotRunning):
		// Echo of a failure this service already recorded, e.g. by the reaper.
		g.logger.Debug("ignoring failure for finished trial", "study_id", study.ID, "number", evt.Number)
	case err != nil:
		g.logger.Warn("failed to record failed trial", "study_id", study.ID, "number", evt.Number, "error", err)
	}
}

// RecordTrial stores a new trial for study. Complete trials must carry one
// value per objective and trigger a front update.
func (g *Ingestor) RecordTrial(ctx context.Context, study *store.Study, trial *store.Trial, source string) (*store.Trial, error) {
	if trial.State == "" {
		trial.State = store.TrialComplete
	}
	if trial.State == store.TrialComplete && len(trial.Values) != study.NObjectives() {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrValueCount, study.NObjectives(), len(trial.Values))
	}
	trial.StudyID = study.ID
	if trial.State.Finished() && trial.CompletedAt == nil {
		now := g.now()
		trial.CompletedAt = &now
	}
	if err := g.store.CreateTrial(ctx, trial); err != nil {
		return nil, fmt.Errorf("create trial: %w", err)
	}
	if trial.State.Finished() {
		metrics.TrialsRecorded.WithLabelValues(string(trial.State), source).Inc()
	}
	if trial.State == store.TrialComplete {
		g.PublishFront(ctx, study)
	}
	return trial, nil
}

// CompleteTrial moves a running trial to complete with the given values.
func (g *Ingestor) CompleteTrial(ctx context.Context, study *store.Study, number int, values []float64, source string) (*store.Trial, error) {
	if len(values) != study.NObjectives() {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrValueCount, study.NObjectives(), len(values))
	}
	trial, err := g.runningTrial(ctx, study, number)
	if err != nil {
		return nil, err
	}
	now := g.now()
	trial.State = store.TrialComplete
	trial.Values = values
	trial.CompletedAt = &now
	if err := g.finish(ctx, trial); err != nil {
		return nil, err
	}
	metrics.TrialsRecorded.WithLabelValues(string(store.TrialComplete), source).Inc()
	g.PublishFront(ctx, study)
	return trial, nil
}

// FailTrial moves a running trial to fail.
func (g *Ingestor) FailTrial(ctx context.Context, study *store.Study, number int, reason, source string) (*store.Trial, error) {
	trial, err := g.runningTrial(ctx, study, number)
	if err != nil {
		return nil, err
	}
	now := g.now()
	trial.State = store.TrialFail
	trial.Error = reason
	trial.CompletedAt = &now
	if err := g.finish(ctx, trial); err != nil {
		return nil, err
	}
	metrics.TrialsRecorded.WithLabelValues(string(store.TrialFail), source).Inc()
	return trial, nil
}

func (g *Ingestor) runningTrial(ctx context.Context, study *store.Study, number int) (*store.Trial, error) {
	trial, err := g.store.GetTrial(ctx, study.ID, number)
	if err != nil {
		return nil, err
	}
	if trial == nil {
		return nil, fmt.Errorf("%w: %d", ErrTrialNotFound, number)
	}
	if trial.State != store.TrialRunning {
		return nil, fmt.Errorf("%w: trial %d is %s", ErrNotRunning, number, trial.State)
	}
	return trial, nil
}

// finish writes a running trial's terminal state. A trial finished by
// someone else since it was read reports ErrNotRunning.
func (g *Ingestor) finish(ctx context.Context, trial *store.Trial) error {
	err := g.store.TransitionTrial(ctx, trial, store.TrialRunning)
	switch {
	case errors.Is(err, store.ErrStateChanged):
		return fmt.Errorf("%w: %v", ErrNotRunning, err)
	case err != nil:
		return fmt.Errorf("update trial: %w", err)
	}
	return nil
}

// PublishFront recomputes the study's front from its complete trials and
// publishes it. The front itself is never stored.
func (g *Ingestor) PublishFront(ctx context.Context, study *store.Study) {
	if g.hermes == nil {
		return
	}
	complete := store.TrialComplete
	trials, err := g.store.ListTrials(ctx, store.TrialFilter{StudyID: study.ID, State: &complete})
	if err != nil {
		g.logger.Error("failed to list trials for front update", "study_id", study.ID, "error", err)
		return
	}
	start := time.Now()
	f := pareto.Extract(store.CompletedPoints(trials), study.Directions)
	metrics.ExtractionDuration.Observe(time.Since(start).Seconds())

	evt := hermes.FrontUpdatedEvent{
		StudyID:        study.ID.String(),
		NTrials:        len(trials),
		FrontNumbers:   pareto.Numbers(f.Front),
		DominatedCount: len(f.Dominated),
		Timestamp:      g.now(),
	}
	if err := g.hermes.Publish(hermes.SubjectFrontUpdated(study.ID.String()), evt); err != nil {
		g.logger.Warn("failed to publish front update", "study_id", study.ID, "error", err)
	}
}

package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/MikeSquared-Agency/Frontier/internal/hermes"
	"github.com/MikeSquared-Agency/Frontier/internal/metrics"
	"github.com/MikeSquared-Agency/Frontier/internal/store"
)

func (g *Ingestor) reapLoop(ctx context.Context) {
	defer g.wg.Done()
	ticker := time.NewTicker(g.cfg.ReapInterval())
	defer ticker.Stop()

	for {
		select {
		case <-g.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.reapStaleTrials(ctx)
		}
	}
}

// reapStaleTrials fails running trials whose worker has not reported back
// within the stale timeout.
func (g *Ingestor) reapStaleTrials(ctx context.Context) {
	trials, err := g.store.GetRunningTrials(ctx)
	if err != nil {
		g.logger.Error("failed to get running trials for stale check", "error", err)
		return
	}

	now := g.now()
	timeout := g.cfg.StaleTimeout()
	for _, trial := range trials {
		if now.Sub(trial.CreatedAt) <= timeout {
			continue
		}

		g.logger.Warn("trial is stale", "study_id", trial.StudyID, "number", trial.Number, "age", now.Sub(trial.CreatedAt))

		completedAt := now
		trial.State = store.TrialFail
		trial.Error = "trial went stale without reporting a result"
		trial.CompletedAt = &completedAt
		err := g.store.TransitionTrial(ctx, trial, store.TrialRunning)
		if errors.Is(err, store.ErrStateChanged) {
			g.logger.Debug("stale trial finished before reaping", "study_id", trial.StudyID, "number", trial.Number)
			continue
		}
		if err != nil {
			g.logger.Error("failed to fail stale trial", "study_id", trial.StudyID, "number", trial.Number, "error", err)
			continue
		}
		metrics.StaleTrialsFailed.Inc()

		if g.hermes != nil {
			_ = g.hermes.Publish(hermes.SubjectTrialFailed(trial.StudyID.String()), hermes.TrialFailedEvent{
				StudyID: trial.StudyID.String(),
				Number:  trial.Number,
				Error:   trial.Error,
			})
		}
	}
}

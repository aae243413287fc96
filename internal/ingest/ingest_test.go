package ingest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Frontier/internal/config"
	"github.com/MikeSquared-Agency/Frontier/internal/hermes"
	"github.com/MikeSquared-Agency/Frontier/internal/pareto"
	"github.com/MikeSquared-Agency/Frontier/internal/store"
)

// Mock implementations

// mockStore keeps its own trial rows and hands out copies, so callers only
// change stored state through CreateTrial and TransitionTrial.
type mockStore struct {
	mu      sync.Mutex
	studies map[uuid.UUID]*store.Study
	trials  map[uuid.UUID][]*store.Trial

	// afterRunningRead runs after GetRunningTrials has taken its snapshot.
	afterRunningRead func()
}

func newMockStore() *mockStore {
	return &mockStore{
		studies: make(map[uuid.UUID]*store.Study),
		trials:  make(map[uuid.UUID][]*store.Trial),
	}
}

func cloneTrial(t *store.Trial) *store.Trial {
	c := *t
	c.Values = append([]float64(nil), t.Values...)
	return &c
}

// trial returns a copy of the stored row.
func (m *mockStore) trial(studyID uuid.UUID, number int) *store.Trial {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.trials[studyID] {
		if t.Number == number {
			return cloneTrial(t)
		}
	}
	return nil
}

func (m *mockStore) count(studyID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.trials[studyID])
}

func (m *mockStore) CreateStudy(_ context.Context, s *store.Study) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	m.studies[s.ID] = s
	return nil
}
func (m *mockStore) GetStudy(_ context.Context, id uuid.UUID) (*store.Study, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.studies[id], nil
}
func (m *mockStore) ListStudies(_ context.Context, _ store.StudyFilter) ([]*store.Study, error) {
	return nil, nil
}
func (m *mockStore) DeleteStudy(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.studies, id)
	delete(m.trials, id)
	return nil
}
func (m *mockStore) CreateTrial(_ context.Context, t *store.Trial) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = uuid.New()
	t.Number = len(m.trials[t.StudyID])
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	m.trials[t.StudyID] = append(m.trials[t.StudyID], cloneTrial(t))
	return nil
}
func (m *mockStore) GetTrial(_ context.Context, studyID uuid.UUID, number int) (*store.Trial, error) {
	return m.trial(studyID, number), nil
}
func (m *mockStore) TransitionTrial(_ context.Context, t *store.Trial, from store.TrialState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, row := range m.trials[t.StudyID] {
		if row.ID != t.ID {
			continue
		}
		if row.State != from {
			return store.ErrStateChanged
		}
		t.UpdatedAt = time.Now()
		m.trials[t.StudyID][i] = cloneTrial(t)
		return nil
	}
	return store.ErrStateChanged
}
func (m *mockStore) ListTrials(_ context.Context, f store.TrialFilter) ([]*store.Trial, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*store.Trial
	for _, t := range m.trials[f.StudyID] {
		if f.State == nil || t.State == *f.State {
			out = append(out, cloneTrial(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}
func (m *mockStore) GetRunningTrials(_ context.Context) ([]*store.Trial, error) {
	m.mu.Lock()
	var out []*store.Trial
	for _, ts := range m.trials {
		for _, t := range ts {
			if t.State == store.TrialRunning {
				out = append(out, cloneTrial(t))
			}
		}
	}
	hook := m.afterRunningRead
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	return out, nil
}
func (m *mockStore) GetStats(_ context.Context) (*store.Stats, error) { return &store.Stats{}, nil }
func (m *mockStore) Close() error                                     { return nil }

type published struct {
	subject string
	data    interface{}
}

type mockHermes struct {
	mu        sync.Mutex
	published []published
	handlers  map[string]func(string, []byte)
}

func newMockHermes() *mockHermes {
	return &mockHermes{handlers: make(map[string]func(string, []byte))}
}

func (m *mockHermes) Publish(subject string, data interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, published{subject, data})
	return nil
}
func (m *mockHermes) Subscribe(subject string, h func(string, []byte)) error {
	m.handlers[subject] = h
	return nil
}
func (m *mockHermes) Close() {}

// deliver invokes the handler registered for pattern with a concrete subject.
func (m *mockHermes) deliver(t *testing.T, pattern, subject string, evt interface{}) {
	t.Helper()
	h, ok := m.handlers[pattern]
	require.True(t, ok, "no subscription for %s", pattern)
	b, err := json.Marshal(evt)
	require.NoError(t, err)
	h(subject, b)
}

func (m *mockHermes) frontUpdates() []hermes.FrontUpdatedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []hermes.FrontUpdatedEvent
	for _, p := range m.published {
		if evt, ok := p.data.(hermes.FrontUpdatedEvent); ok {
			out = append(out, evt)
		}
	}
	return out
}

func setup(t *testing.T) (*Ingestor, *mockStore, *mockHermes, *store.Study) {
	t.Helper()
	ms := newMockStore()
	mh := newMockHermes()
	cfg := config.Default()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	g := New(ms, mh, cfg, logger)

	study := &store.Study{Name: "s", Directions: []pareto.Direction{pareto.Minimize, pareto.Minimize}}
	require.NoError(t, ms.CreateStudy(context.Background(), study))
	return g, ms, mh, study
}

func TestRecordTrialPublishesFront(t *testing.T) {
	g, _, mh, study := setup(t)
	ctx := context.Background()

	for _, v := range [][]float64{{1, 1}, {1, 0}, {0, 1}} {
		_, err := g.RecordTrial(ctx, study, &store.Trial{Values: v}, SourceAPI)
		require.NoError(t, err)
	}

	updates := mh.frontUpdates()
	require.Len(t, updates, 3)
	last := updates[2]
	require.Equal(t, study.ID.String(), last.StudyID)
	require.Equal(t, 3, last.NTrials)
	require.Equal(t, []int{1, 2}, last.FrontNumbers)
	require.Equal(t, 1, last.DominatedCount)
	require.Equal(t, hermes.SubjectFrontUpdated(study.ID.String()), mh.published[2].subject)
}

func TestRecordTrialRejectsWrongValueCount(t *testing.T) {
	g, ms, mh, study := setup(t)

	_, err := g.RecordTrial(context.Background(), study, &store.Trial{Values: []float64{1}}, SourceAPI)
	require.ErrorIs(t, err, ErrValueCount)
	require.Zero(t, ms.count(study.ID))
	require.Empty(t, mh.published)
}

func TestRecordRunningTrialDoesNotPublish(t *testing.T) {
	g, _, mh, study := setup(t)

	trial, err := g.RecordTrial(context.Background(), study, &store.Trial{State: store.TrialRunning}, SourceAPI)
	require.NoError(t, err)
	require.Nil(t, trial.CompletedAt)
	require.Empty(t, mh.published)
}

func TestCompleteAndFailTrial(t *testing.T) {
	g, _, mh, study := setup(t)
	ctx := context.Background()

	_, err := g.RecordTrial(ctx, study, &store.Trial{State: store.TrialRunning}, SourceAPI)
	require.NoError(t, err)
	_, err = g.RecordTrial(ctx, study, &store.Trial{State: store.TrialRunning}, SourceAPI)
	require.NoError(t, err)

	trial, err := g.CompleteTrial(ctx, study, 0, []float64{3, 4}, SourceAPI)
	require.NoError(t, err)
	require.Equal(t, store.TrialComplete, trial.State)
	require.NotNil(t, trial.CompletedAt)
	require.Len(t, mh.frontUpdates(), 1)

	_, err = g.CompleteTrial(ctx, study, 0, []float64{3, 4}, SourceAPI)
	require.ErrorIs(t, err, ErrNotRunning)

	_, err = g.CompleteTrial(ctx, study, 1, []float64{3}, SourceAPI)
	require.ErrorIs(t, err, ErrValueCount)

	_, err = g.CompleteTrial(ctx, study, 9, []float64{3, 4}, SourceAPI)
	require.ErrorIs(t, err, ErrTrialNotFound)

	failed, err := g.FailTrial(ctx, study, 1, "boom", SourceAPI)
	require.NoError(t, err)
	require.Equal(t, store.TrialFail, failed.State)
	require.Equal(t, "boom", failed.Error)
}

func TestSubscriptionsDriveTrialLifecycle(t *testing.T) {
	g, ms, mh, study := setup(t)
	g.SetupSubscriptions()
	id := study.ID.String()

	mh.deliver(t, hermes.SubjectTrialStartedAll, hermes.SubjectTrialStarted(id),
		hermes.TrialStartedEvent{Params: map[string]interface{}{"x": 1.0}})
	require.Equal(t, 1, ms.count(study.ID))
	require.Equal(t, store.TrialRunning, ms.trial(study.ID, 0).State)

	zero := 0
	mh.deliver(t, hermes.SubjectTrialCompletedAll, hermes.SubjectTrialCompleted(id),
		hermes.TrialCompletedEvent{StudyID: id, Number: &zero, Values: []float64{1, 1}})
	require.Equal(t, store.TrialComplete, ms.trial(study.ID, 0).State)

	mh.deliver(t, hermes.SubjectTrialCompletedAll, hermes.SubjectTrialCompleted(id),
		hermes.TrialCompletedEvent{Values: []float64{0, 0}})
	require.Equal(t, 2, ms.count(study.ID))

	updates := mh.frontUpdates()
	require.Len(t, updates, 2)
	require.Equal(t, []int{1}, updates[1].FrontNumbers)

	mh.deliver(t, hermes.SubjectTrialStartedAll, hermes.SubjectTrialStarted(id), hermes.TrialStartedEvent{})
	mh.deliver(t, hermes.SubjectTrialFailedAll, hermes.SubjectTrialFailed(id),
		hermes.TrialFailedEvent{StudyID: id, Number: 2, Error: "worker crashed"})
	require.Equal(t, store.TrialFail, ms.trial(study.ID, 2).State)
}

func TestSubscriptionsDropBadEvents(t *testing.T) {
	g, ms, mh, study := setup(t)
	g.SetupSubscriptions()

	// Unknown study.
	mh.deliver(t, hermes.SubjectTrialCompletedAll, hermes.SubjectTrialCompleted(uuid.NewString()),
		hermes.TrialCompletedEvent{Values: []float64{1, 1}})
	// Malformed study id.
	mh.deliver(t, hermes.SubjectTrialCompletedAll, "frontier.study.nope.trial.completed",
		hermes.TrialCompletedEvent{Values: []float64{1, 1}})
	// Wrong dimension.
	mh.deliver(t, hermes.SubjectTrialCompletedAll, hermes.SubjectTrialCompleted(study.ID.String()),
		hermes.TrialCompletedEvent{Values: []float64{1, 1, 1}})
	// Not JSON.
	mh.handlers[hermes.SubjectTrialCompletedAll](hermes.SubjectTrialCompleted(study.ID.String()), []byte("{"))

	require.Zero(t, ms.count(study.ID))
	require.Empty(t, mh.published)
}

func TestReapStaleTrials(t *testing.T) {
	g, ms, mh, study := setup(t)
	ctx := context.Background()
	now := time.Now()
	g.now = func() time.Time { return now }

	stale := &store.Trial{StudyID: study.ID, State: store.TrialRunning, CreatedAt: now.Add(-2 * time.Hour)}
	fresh := &store.Trial{StudyID: study.ID, State: store.TrialRunning, CreatedAt: now.Add(-time.Minute)}
	require.NoError(t, ms.CreateTrial(ctx, stale))
	require.NoError(t, ms.CreateTrial(ctx, fresh))

	g.reapStaleTrials(ctx)

	reaped := ms.trial(study.ID, stale.Number)
	require.Equal(t, store.TrialFail, reaped.State)
	require.NotEmpty(t, reaped.Error)
	require.Equal(t, store.TrialRunning, ms.trial(study.ID, fresh.Number).State)
	require.Len(t, mh.published, 1)
	require.Equal(t, hermes.SubjectTrialFailed(study.ID.String()), mh.published[0].subject)
}

func TestReaperKeepsTrialCompletedDuringSweep(t *testing.T) {
	g, ms, mh, study := setup(t)
	ctx := context.Background()
	now := time.Now()
	g.now = func() time.Time { return now }

	stale := &store.Trial{StudyID: study.ID, State: store.TrialRunning, CreatedAt: now.Add(-2 * time.Hour)}
	require.NoError(t, ms.CreateTrial(ctx, stale))

	// The worker reports back after the reaper has read the running trials
	// but before it writes the failure.
	ms.afterRunningRead = func() {
		ms.afterRunningRead = nil
		_, err := g.CompleteTrial(ctx, study, stale.Number, []float64{1, 2}, SourceEvents)
		require.NoError(t, err)
	}

	g.reapStaleTrials(ctx)

	got := ms.trial(study.ID, stale.Number)
	require.Equal(t, store.TrialComplete, got.State)
	require.Equal(t, []float64{1, 2}, got.Values)
	require.Empty(t, got.Error)
	for _, p := range mh.published {
		require.NotEqual(t, hermes.SubjectTrialFailed(study.ID.String()), p.subject)
	}
}

func TestFinishRejectsTrialFinishedConcurrently(t *testing.T) {
	g, ms, _, study := setup(t)
	ctx := context.Background()

	_, err := g.RecordTrial(ctx, study, &store.Trial{State: store.TrialRunning}, SourceAPI)
	require.NoError(t, err)

	// A copy read while the trial was still running.
	stale := ms.trial(study.ID, 0)

	_, err = g.CompleteTrial(ctx, study, 0, []float64{3, 4}, SourceAPI)
	require.NoError(t, err)

	stale.State = store.TrialFail
	stale.Error = "late failure"
	require.ErrorIs(t, g.finish(ctx, stale), ErrNotRunning)
	require.Equal(t, store.TrialComplete, ms.trial(study.ID, 0).State)
}

func TestStartStop(t *testing.T) {
	g, _, _, _ := setup(t)
	g.cfg.Trials.ReapIntervalMs = 5
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g.Start(ctx)
	time.Sleep(20 * time.Millisecond)
	g.Stop()
	g.Stop()
}

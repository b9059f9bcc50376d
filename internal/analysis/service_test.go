package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	v1 "github.com/sift-lab/project-sift/internal/api/v1"
	"github.com/sift-lab/project-sift/internal/core/storage"
)

type fakeSignalHistory struct {
	byUser map[string][]*v1.Signal
	reads  int
}

func (f *fakeSignalHistory) SaveSignal(ctx context.Context, sig *v1.Signal) error { return nil }

func (f *fakeSignalHistory) SaveSignalBatch(ctx context.Context, sigs []*v1.Signal) error {
	return nil
}

func (f *fakeSignalHistory) RetrieveSignalsByUser(ctx context.Context, userID string, limit int) ([]*v1.Signal, error) {
	f.reads++
	return f.byUser[userID], nil
}

func (f *fakeSignalHistory) RetrieveSignalsAfterCursor(ctx context.Context, cursor int64, limit int) ([]*v1.Signal, error) {
	return nil, nil
}

type fakeInsightStore struct {
	byUser map[string]*v1.Insight
}

func (f *fakeInsightStore) SaveInsight(ctx context.Context, insight *v1.Insight) error {
	if f.byUser == nil {
		f.byUser = make(map[string]*v1.Insight)
	}
	f.byUser[insight.UserID] = insight
	return nil
}

func (f *fakeInsightStore) RetrieveInsight(ctx context.Context, userID string) (*v1.Insight, error) {
	insight, ok := f.byUser[userID]
	if !ok {
		return nil, storage.ErrInsightNotFound
	}
	return insight, nil
}

type fakeAlertStore struct {
	saved []*v1.Alert
}

func (f *fakeAlertStore) SaveAlerts(ctx context.Context, alerts []*v1.Alert) error {
	f.saved = append(f.saved, alerts...)
	return nil
}

type fakeUserQueue struct {
	pending []string
}

func (f *fakeUserQueue) NextPendingUser(ctx context.Context) (string, error) {
	if len(f.pending) == 0 {
		return "", nil
	}
	next := f.pending[0]
	f.pending = f.pending[1:]
	return next, nil
}

func newTestService(t *testing.T, history *fakeSignalHistory, insights *fakeInsightStore, alerts *fakeAlertStore, queue *fakeUserQueue) *Service {
	t.Helper()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	pattern := frozenAnalyzer(t, now)
	anomaly := NewAnomalyAnalyzer(analysisRegistry(t), 1000)
	anomaly.now = func() time.Time { return now }

	svc := NewService(history, insights, alerts, queue, pattern, anomaly, 1.0)
	svc.now = func() time.Time { return now }
	return svc
}

func TestService_ProcessUser_SavesInsightAndAlerts(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	history := &fakeSignalHistory{byUser: map[string][]*v1.Signal{
		"user-1": {
			transactionSignal("sig-1", "user-1", 5000.0, now.Add(-time.Minute)),
			transactionSignal("sig-2", "user-1", 10.0, now.Add(-2*time.Minute)),
		},
	}}
	insights := &fakeInsightStore{}
	alerts := &fakeAlertStore{}
	svc := newTestService(t, history, insights, alerts, &fakeUserQueue{})

	require.NoError(t, svc.ProcessUser(context.Background(), "user-1"))

	insight, ok := insights.byUser["user-1"]
	require.True(t, ok)
	require.Equal(t, AnalysisVersion, insight.AnalysisVersion)
	require.NotEmpty(t, insight.Patterns)

	// Two transactions at sensitivity 1.0 trip the velocity condition,
	// one of them the value condition as well.
	require.Len(t, alerts.saved, 2)
}

func TestService_Insight_ReturnsFreshStoredWithoutRecompute(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	history := &fakeSignalHistory{}
	insights := &fakeInsightStore{byUser: map[string]*v1.Insight{
		"user-1": {
			UserID:     "user-1",
			Segment:    SegmentCore,
			AnalyzedAt: now.Add(-time.Hour),
			ValidUntil: now.Add(23 * time.Hour),
		},
	}}
	svc := newTestService(t, history, insights, &fakeAlertStore{}, &fakeUserQueue{})

	insight, err := svc.Insight(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, SegmentCore, insight.Segment)
	require.Zero(t, history.reads)
}

func TestService_Insight_RecomputesWhenExpired(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	history := &fakeSignalHistory{byUser: map[string][]*v1.Signal{
		"user-1": {eventSignal("page.view", "user-1", now.Add(-time.Hour))},
	}}
	insights := &fakeInsightStore{byUser: map[string]*v1.Insight{
		"user-1": {
			UserID:     "user-1",
			Segment:    "stale",
			AnalyzedAt: now.Add(-48 * time.Hour),
			ValidUntil: now.Add(-24 * time.Hour),
		},
	}}
	svc := newTestService(t, history, insights, &fakeAlertStore{}, &fakeUserQueue{})

	insight, err := svc.Insight(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotEqual(t, "stale", insight.Segment)
	require.Equal(t, 1, history.reads)
	require.Equal(t, now, insight.AnalyzedAt)
}

func TestService_Insight_ComputesWhenMissing(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	history := &fakeSignalHistory{byUser: map[string][]*v1.Signal{
		"user-1": {eventSignal("page.view", "user-1", now.Add(-time.Hour))},
	}}
	svc := newTestService(t, history, &fakeInsightStore{}, &fakeAlertStore{}, &fakeUserQueue{})

	insight, err := svc.Insight(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, "user-1", insight.UserID)
}

func TestService_NextPendingUser(t *testing.T) {
	queue := &fakeUserQueue{pending: []string{"user-1", "user-2"}}
	svc := newTestService(t, &fakeSignalHistory{}, &fakeInsightStore{}, &fakeAlertStore{}, queue)

	next, err := svc.NextPendingUser(context.Background())
	require.NoError(t, err)
	require.Equal(t, "user-1", next)

	next, err = svc.NextPendingUser(context.Background())
	require.NoError(t, err)
	require.Equal(t, "user-2", next)

	next, err = svc.NextPendingUser(context.Background())
	require.NoError(t, err)
	require.Equal(t, "", next)
}

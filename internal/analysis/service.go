package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	v1 "github.com/sift-lab/project-sift/internal/api/v1"
	"github.com/sift-lab/project-sift/internal/core/storage"
)

// historyLimit caps the signal history loaded for one analysis pass.
const historyLimit = 1000

// Service runs the full analysis path for one user: load history, compute
// the insight, persist it, then run anomaly detection over the same window
// and append any alerts. It also exposes the pending-user queue so job
// orchestration can drive it without knowing about storage.
type Service struct {
	signals     storage.SignalStore
	insights    storage.InsightStore
	alerts      storage.AlertStore
	queue       storage.UserQueue
	pattern     *PatternAnalyzer
	anomaly     *AnomalyAnalyzer
	sensitivity float64
	now         func() time.Time
}

// NewService wires the analysis service. sensitivity is the default anomaly
// sensitivity in [0,1] applied during background processing.
func NewService(
	signals storage.SignalStore,
	insights storage.InsightStore,
	alerts storage.AlertStore,
	queue storage.UserQueue,
	pattern *PatternAnalyzer,
	anomaly *AnomalyAnalyzer,
	sensitivity float64,
) *Service {
	return &Service{
		signals:     signals,
		insights:    insights,
		alerts:      alerts,
		queue:       queue,
		pattern:     pattern,
		anomaly:     anomaly,
		sensitivity: sensitivity,
		now:         time.Now,
	}
}

// NextPendingUser returns the next user whose history is newer than their
// stored insight, or "" when the queue is exhausted.
func (s *Service) NextPendingUser(ctx context.Context) (string, error) {
	return s.queue.NextPendingUser(ctx)
}

// ProcessUser analyzes one user end to end. Persisting the insight advances
// the pending-user cursor, so a successfully processed user will not be
// returned by NextPendingUser again until new signals arrive.
func (s *Service) ProcessUser(ctx context.Context, userID string) error {
	history, err := s.signals.RetrieveSignalsByUser(ctx, userID, historyLimit)
	if err != nil {
		return fmt.Errorf("load history for user %s: %w", userID, err)
	}

	insight := s.pattern.Analyze(userID, history)
	if err := s.insights.SaveInsight(ctx, insight); err != nil {
		return fmt.Errorf("save insight for user %s: %w", userID, err)
	}

	alerts := s.anomaly.Detect(history, s.sensitivity)
	if len(alerts) > 0 {
		if err := s.alerts.SaveAlerts(ctx, alerts); err != nil {
			return fmt.Errorf("save alerts for user %s: %w", userID, err)
		}
	}

	slog.Debug("[AnalysisService] User processed",
		"user_id", userID,
		"signals", len(history),
		"segment", insight.Segment,
		"alerts", len(alerts))
	return nil
}

// Insight returns the user's current insight, recomputing it when none is
// stored yet or the stored one has expired.
func (s *Service) Insight(ctx context.Context, userID string) (*v1.Insight, error) {
	stored, err := s.insights.RetrieveInsight(ctx, userID)
	switch {
	case err == nil && !stored.Expired(s.now()):
		return stored, nil
	case err != nil && !errors.Is(err, storage.ErrInsightNotFound):
		return nil, err
	}

	if err := s.ProcessUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.insights.RetrieveInsight(ctx, userID)
}

// Detect runs ad-hoc anomaly detection over the given signals with an
// explicit sensitivity, without touching storage.
func (s *Service) Detect(signals []*v1.Signal, sensitivity float64) []*v1.Alert {
	return s.anomaly.Detect(signals, sensitivity)
}

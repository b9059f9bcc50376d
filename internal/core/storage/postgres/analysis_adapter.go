package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	v1 "github.com/sift-lab/project-sift/internal/api/v1"
	"github.com/sift-lab/project-sift/internal/core/storage"
)

// AnalysisAdapter implements storage.InsightStore and storage.AlertStore.
// Shares the connection owned by the signals Adapter.
type AnalysisAdapter struct {
	db *sql.DB
}

// NewAnalysisAdapter wraps an existing database connection.
func NewAnalysisAdapter(db *sql.DB) *AnalysisAdapter {
	return &AnalysisAdapter{db: db}
}

// SaveInsight upserts the user's current insight, superseding any previous
// record for the same user.
func (a *AnalysisAdapter) SaveInsight(ctx context.Context, insight *v1.Insight) error {
	patternsJSON, err := json.Marshal(insight.Patterns)
	if err != nil {
		return fmt.Errorf("failed to marshal patterns: %w", err)
	}
	scoresJSON, err := json.Marshal(insight.Scores)
	if err != nil {
		return fmt.Errorf("failed to marshal scores: %w", err)
	}
	preferencesJSON, err := json.Marshal(insight.Preferences)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}
	recommendationsJSON, err := json.Marshal(insight.Recommendations)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendations: %w", err)
	}

	_, err = a.db.ExecContext(ctx, querySaveInsight,
		insight.UserID,
		patternsJSON,
		scoresJSON,
		insight.Segment,
		preferencesJSON,
		recommendationsJSON,
		insight.AnalyzedAt,
		insight.ValidUntil,
		insight.AnalysisVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to save insight: %w", err)
	}

	slog.Debug("[Postgres] Saved insight",
		"user_id", insight.UserID,
		"segment", insight.Segment,
		"patterns", len(insight.Patterns))
	return nil
}

// RetrieveInsight returns the user's current insight, or
// storage.ErrInsightNotFound.
func (a *AnalysisAdapter) RetrieveInsight(ctx context.Context, userID string) (*v1.Insight, error) {
	var insight v1.Insight
	var patternsJSON, scoresJSON, preferencesJSON, recommendationsJSON []byte

	err := a.db.QueryRowContext(ctx, queryRetrieveInsight, userID).Scan(
		&insight.UserID,
		&patternsJSON,
		&scoresJSON,
		&insight.Segment,
		&preferencesJSON,
		&recommendationsJSON,
		&insight.AnalyzedAt,
		&insight.ValidUntil,
		&insight.AnalysisVersion,
	)
	if err == sql.ErrNoRows {
		return nil, storage.ErrInsightNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query insight: %w", err)
	}

	for _, pair := range []struct {
		raw []byte
		dst interface{}
	}{
		{patternsJSON, &insight.Patterns},
		{scoresJSON, &insight.Scores},
		{preferencesJSON, &insight.Preferences},
		{recommendationsJSON, &insight.Recommendations},
	} {
		if len(pair.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(pair.raw, pair.dst); err != nil {
			return nil, fmt.Errorf("failed to unmarshal insight field: %w", err)
		}
	}

	return &insight, nil
}

// SaveAlerts appends alert rows in a single transaction.
func (a *AnalysisAdapter) SaveAlerts(ctx context.Context, alerts []*v1.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, alert := range alerts {
		var contextJSON []byte
		if len(alert.Context) > 0 {
			contextJSON, err = json.Marshal(alert.Context)
			if err != nil {
				return fmt.Errorf("failed to marshal alert context: %w", err)
			}
		}

		_, err = tx.ExecContext(ctx, querySaveAlert,
			alert.UserID,
			alert.SignalID,
			alert.AlertType,
			alert.Severity,
			alert.Message,
			contextJSON,
			alert.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to save alert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit alerts: %w", err)
	}

	slog.Debug("[Postgres] Saved alerts", "count", len(alerts))
	return nil
}

package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	v1 "github.com/sift-lab/project-sift/internal/api/v1"
	"github.com/sift-lab/project-sift/internal/core/storage"
)

func TestAnalysisAdapter_SaveInsight_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	adapter := NewAnalysisAdapter(db)
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	insight := &v1.Insight{
		UserID:          "user-1",
		Patterns:        []string{"steady_state"},
		Scores:          map[string]float64{"engagement": 0.4},
		Segment:         "core",
		Preferences:     map[string]float64{"electronics": 0.8},
		Recommendations: []string{"maintain_cadence"},
		AnalyzedAt:      now,
		ValidUntil:      now.Add(24 * time.Hour),
		AnalysisVersion: "2.0.0",
	}

	mock.ExpectExec(regexp.QuoteMeta(querySaveInsight)).
		WithArgs(
			"user-1",
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
			"core",
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
			now,
			now.Add(24*time.Hour),
			"2.0.0",
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, adapter.SaveInsight(context.Background(), insight))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisAdapter_RetrieveInsight(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	adapter := NewAnalysisAdapter(db)
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(queryRetrieveInsight)).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"user_id", "patterns", "scores", "segment", "preferences",
			"recommendations", "analyzed_at", "valid_until", "analysis_version",
		}).AddRow(
			"user-1",
			[]byte(`["power_user"]`),
			[]byte(`{"engagement":0.9}`),
			"champion",
			[]byte(`{"electronics":0.8}`),
			[]byte(`["loyalty_program"]`),
			now,
			now.Add(24*time.Hour),
			"2.0.0",
		))

	insight, err := adapter.RetrieveInsight(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, "champion", insight.Segment)
	require.Equal(t, []string{"power_user"}, insight.Patterns)
	require.Equal(t, 0.9, insight.Scores["engagement"])
	require.Equal(t, 0.8, insight.Preferences["electronics"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisAdapter_RetrieveInsight_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	adapter := NewAnalysisAdapter(db)

	mock.ExpectQuery(regexp.QuoteMeta(queryRetrieveInsight)).
		WithArgs("user-missing").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	_, err = adapter.RetrieveInsight(context.Background(), "user-missing")
	require.ErrorIs(t, err, storage.ErrInsightNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisAdapter_SaveAlerts_SingleTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	adapter := NewAnalysisAdapter(db)
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	alerts := []*v1.Alert{
		{
			UserID:    "user-1",
			SignalID:  "sig-1",
			AlertType: v1.AlertHighValue,
			Severity:  v1.SeverityCritical,
			Message:   "transaction of 5000.00 at or above threshold 1000.00",
			Context:   map[string]interface{}{"amount": 5000.0},
			CreatedAt: now,
		},
		{
			UserID:    "user-1",
			SignalID:  "sig-2",
			AlertType: v1.AlertHighVelocity,
			Severity:  v1.SeverityHigh,
			Message:   "velocity threshold exceeded",
			CreatedAt: now,
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(querySaveAlert)).
		WithArgs("user-1", "sig-1", v1.AlertHighValue, string(v1.SeverityCritical), alerts[0].Message, sqlmock.AnyArg(), now).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(querySaveAlert)).
		WithArgs("user-1", "sig-2", v1.AlertHighVelocity, string(v1.SeverityHigh), alerts[1].Message, []byte(nil), now).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	require.NoError(t, adapter.SaveAlerts(context.Background(), alerts))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisAdapter_SaveAlerts_EmptyListIsNoop(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	adapter := NewAnalysisAdapter(db)
	require.NoError(t, adapter.SaveAlerts(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

package storage

import (
	"context"
	"errors"

	v1 "github.com/sift-lab/project-sift/internal/api/v1"
)

// ErrDuplicate is returned when a signal with the same id already exists.
var ErrDuplicate = errors.New("signal already exists")

// ErrInsightNotFound is returned when a user has no stored insight.
var ErrInsightNotFound = errors.New("insight not found")

// SignalStore defines the transactional persistence interface behind the
// durable sink. Batch saves are one transaction for the whole list.
type SignalStore interface {
	SaveSignal(ctx context.Context, sig *v1.Signal) error
	SaveSignalBatch(ctx context.Context, sigs []*v1.Signal) error

	// RetrieveSignalsByUser fetches a user's signal history ordered by
	// event timestamp ascending.
	RetrieveSignalsByUser(ctx context.Context, userID string, limit int) ([]*v1.Signal, error)

	// RetrieveSignalsAfterCursor fetches signals after a cursor (ingest_seq)
	// in strict total order. cursor=0 means "from the beginning".
	RetrieveSignalsAfterCursor(ctx context.Context, cursor int64, limit int) ([]*v1.Signal, error)
}

// InsightStore persists analysis outputs: one current insight per user.
type InsightStore interface {
	// SaveInsight upserts the user's current insight, superseding any
	// previous record.
	SaveInsight(ctx context.Context, insight *v1.Insight) error

	// RetrieveInsight returns the user's current insight, or
	// ErrInsightNotFound.
	RetrieveInsight(ctx context.Context, userID string) (*v1.Insight, error)
}

// AlertStore appends anomaly alerts. Alerts are never updated or deleted.
type AlertStore interface {
	SaveAlerts(ctx context.Context, alerts []*v1.Alert) error
}

// UserQueue yields users whose signal history is newer than their last
// analysis. Returns "" when no user is pending.
type UserQueue interface {
	NextPendingUser(ctx context.Context) (string, error)
}

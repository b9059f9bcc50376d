package ingestion

import (
	"context"
	"encoding/json"
	"log/slog"

	v1 "github.com/sift-lab/project-sift/internal/api/v1"
	"github.com/sift-lab/project-sift/internal/sink"
)

// PublisherNotifier publishes a post-ingestion event for each accepted
// signal, keyed by subject so consumers observe per-user order. Publish
// failures are logged and dropped; notification is fire-and-forget and must
// never fail an ingest that already succeeded.
type PublisherNotifier struct {
	pub sink.Publisher
}

// NewPublisherNotifier wraps a publisher as a Notifier.
func NewPublisherNotifier(pub sink.Publisher) *PublisherNotifier {
	return &PublisherNotifier{pub: pub}
}

func (n *PublisherNotifier) SignalIngested(ctx context.Context, sig *v1.Signal) {
	payload, err := json.Marshal(sig)
	if err != nil {
		slog.Warn("Failed to serialize ingestion event", "signal_id", sig.ID, "error", err)
		return
	}
	if err := n.pub.Publish(ctx, sig.Subject(), payload); err != nil {
		slog.Warn("Failed to publish ingestion event", "signal_id", sig.ID, "error", err)
	}
}

package sink

import (
	"context"
	"encoding/json"

	v1 "github.com/sift-lab/project-sift/internal/api/v1"
)

// Publisher is the partitioned append-log interface behind the queue sink.
// Publishing with the same key always lands on the same partition, which is
// what preserves per-user ordering; overall delivery is at-least-once.
type Publisher interface {
	Publish(ctx context.Context, key string, payload []byte) error
}

// QueueSink serializes signals and publishes them asynchronously to a
// partitioned log, keyed by user (or session when no user is known).
type QueueSink struct {
	publisher Publisher
}

// NewQueueSink wraps a partitioned-log publisher.
func NewQueueSink(publisher Publisher) *QueueSink {
	if publisher == nil {
		panic("sink: queue sink requires a publisher")
	}
	return &QueueSink{publisher: publisher}
}

func (s *QueueSink) Accept(ctx context.Context, sig *v1.Signal) error {
	payload, err := json.Marshal(sig)
	if err != nil {
		return storageErr(TypeQueue, "serialize signal", err)
	}
	if err := s.publisher.Publish(ctx, sig.Subject(), payload); err != nil {
		return storageErr(TypeQueue, "publish", err)
	}
	return nil
}

func (s *QueueSink) AcceptBatch(ctx context.Context, sigs []*v1.Signal) error {
	for _, sig := range sigs {
		if err := s.Accept(ctx, sig); err != nil {
			return err
		}
	}
	return nil
}

func (s *QueueSink) Flush(ctx context.Context) error { return nil }

func (s *QueueSink) SinkType() string { return TypeQueue }

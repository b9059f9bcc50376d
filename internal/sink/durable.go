package sink

import (
	"context"

	v1 "github.com/sift-lab/project-sift/internal/api/v1"
	"github.com/sift-lab/project-sift/internal/core/storage"
)

// DurableStoreSink writes synchronously to the transactional signal store.
// Strongest consistency, highest latency; the reference implementation for
// default deployments.
type DurableStoreSink struct {
	store storage.SignalStore
}

// NewDurableStoreSink wraps a transactional signal store.
func NewDurableStoreSink(store storage.SignalStore) *DurableStoreSink {
	if store == nil {
		panic("sink: durable sink requires a signal store")
	}
	return &DurableStoreSink{store: store}
}

func (s *DurableStoreSink) Accept(ctx context.Context, sig *v1.Signal) error {
	if err := s.store.SaveSignal(ctx, sig); err != nil {
		return storageErr(TypeDurable, "save signal", err)
	}
	return nil
}

// AcceptBatch writes the whole list as one transaction.
func (s *DurableStoreSink) AcceptBatch(ctx context.Context, sigs []*v1.Signal) error {
	if err := s.store.SaveSignalBatch(ctx, sigs); err != nil {
		return storageErr(TypeDurable, "save signal batch", err)
	}
	return nil
}

func (s *DurableStoreSink) Flush(ctx context.Context) error { return nil }

func (s *DurableStoreSink) SinkType() string { return TypeDurable }

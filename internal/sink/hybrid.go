package sink

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dgraph-io/badger/v4"

	v1 "github.com/sift-lab/project-sift/internal/api/v1"
)

// hotKeyPrefix namespaces hot-cache entries written after a durable write.
const hotKeyPrefix = "behavior:hot:"

// HybridSink writes to the durable store first (source of truth), then
// best-effort writes the same payload to a hot cache for low-latency recent
// reads. The two-phase write is not atomic: a cache-write failure surfaces
// as a StorageError even though the durable write already succeeded.
type HybridSink struct {
	durable *DurableStoreSink
	cache   *badger.DB
	hotTTL  time.Duration
}

// NewHybridSink combines a durable sink with a hot cache.
// hotTTL is the hot-retention window for cached copies.
func NewHybridSink(durable *DurableStoreSink, cache *badger.DB, hotTTL time.Duration) *HybridSink {
	if durable == nil {
		panic("sink: hybrid sink requires a durable sink")
	}
	if cache == nil {
		panic("sink: hybrid sink requires a badger database")
	}
	if hotTTL <= 0 {
		hotTTL = time.Hour
	}
	return &HybridSink{durable: durable, cache: cache, hotTTL: hotTTL}
}

func (s *HybridSink) Accept(ctx context.Context, sig *v1.Signal) error {
	if err := s.durable.Accept(ctx, sig); err != nil {
		return err
	}
	return s.cacheWrite(sig)
}

func (s *HybridSink) AcceptBatch(ctx context.Context, sigs []*v1.Signal) error {
	if err := s.durable.AcceptBatch(ctx, sigs); err != nil {
		return err
	}
	for _, sig := range sigs {
		if err := s.cacheWrite(sig); err != nil {
			return err
		}
	}
	return nil
}

func (s *HybridSink) cacheWrite(sig *v1.Signal) error {
	payload, err := json.Marshal(sig)
	if err != nil {
		return storageErr(TypeHybrid, "serialize signal", err)
	}

	key := []byte(hotKeyPrefix + sig.ID)
	err = s.cache.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(key, payload).WithTTL(s.hotTTL)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return storageErr(TypeHybrid, "hot cache write", err)
	}
	return nil
}

func (s *HybridSink) Flush(ctx context.Context) error { return nil }

func (s *HybridSink) SinkType() string { return TypeHybrid }

package sink

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dgraph-io/badger/v4"

	v1 "github.com/sift-lab/project-sift/internal/api/v1"
)

// cacheKeyPrefix namespaces cached signals in the key/value store.
const cacheKeyPrefix = "signal:"

// CacheSink serializes signals into a TTL-capable key/value store.
// No read-after-write guarantee beyond the cache's own consistency model;
// used when durability is not required.
type CacheSink struct {
	db  *badger.DB
	ttl time.Duration
}

// NewCacheSink wraps a badger database. Entries expire after ttl.
func NewCacheSink(db *badger.DB, ttl time.Duration) *CacheSink {
	if db == nil {
		panic("sink: cache sink requires a badger database")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CacheSink{db: db, ttl: ttl}
}

func (s *CacheSink) Accept(ctx context.Context, sig *v1.Signal) error {
	return s.put(ctx, sig)
}

func (s *CacheSink) AcceptBatch(ctx context.Context, sigs []*v1.Signal) error {
	for _, sig := range sigs {
		if err := s.put(ctx, sig); err != nil {
			return err
		}
	}
	return nil
}

func (s *CacheSink) put(ctx context.Context, sig *v1.Signal) error {
	if err := ctx.Err(); err != nil {
		return storageErr(TypeCache, "context cancelled", err)
	}

	payload, err := json.Marshal(sig)
	if err != nil {
		return storageErr(TypeCache, "serialize signal", err)
	}

	key := []byte(cacheKeyPrefix + sig.ID)
	err = s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(key, payload).WithTTL(s.ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return storageErr(TypeCache, "cache write", err)
	}
	return nil
}

func (s *CacheSink) Flush(ctx context.Context) error { return nil }

func (s *CacheSink) SinkType() string { return TypeCache }

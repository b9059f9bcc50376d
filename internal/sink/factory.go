package sink

import (
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/sift-lab/project-sift/internal/core/storage"
)

// Dependencies holds the backends a sink implementation may need.
// Only the ones required by the selected sink type must be non-nil.
type Dependencies struct {
	Store     storage.SignalStore
	Cache     *badger.DB
	Publisher Publisher
	Objects   ObjectStore
}

// Options carries sink tuning resolved from configuration.
type Options struct {
	CacheTTL        time.Duration
	HotTTL          time.Duration
	ArchivePrefix   string
	ArchiveCompress bool
}

// New resolves the configured sink type to an implementation, once at
// startup. Unknown types and missing backends fail fast.
func New(sinkType string, deps Dependencies, opts Options) (SignalSink, error) {
	switch sinkType {
	case TypeDurable:
		if deps.Store == nil {
			return nil, fmt.Errorf("sink type %q requires a signal store", sinkType)
		}
		return NewDurableStoreSink(deps.Store), nil

	case TypeCache:
		if deps.Cache == nil {
			return nil, fmt.Errorf("sink type %q requires a cache database", sinkType)
		}
		return NewCacheSink(deps.Cache, opts.CacheTTL), nil

	case TypeHybrid:
		if deps.Store == nil || deps.Cache == nil {
			return nil, fmt.Errorf("sink type %q requires a signal store and a cache database", sinkType)
		}
		return NewHybridSink(NewDurableStoreSink(deps.Store), deps.Cache, opts.HotTTL), nil

	case TypeQueue:
		if deps.Publisher == nil {
			return nil, fmt.Errorf("sink type %q requires a publisher", sinkType)
		}
		return NewQueueSink(deps.Publisher), nil

	case TypeArchive:
		if deps.Objects == nil {
			return nil, fmt.Errorf("sink type %q requires an object store", sinkType)
		}
		return NewArchiveSink(deps.Objects, opts.ArchivePrefix, opts.ArchiveCompress), nil
	}

	return nil, fmt.Errorf("unknown sink type %q", sinkType)
}

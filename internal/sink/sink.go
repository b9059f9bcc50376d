// Package sink provides the pluggable persistence backends for accepted
// signals. Exactly one sink implementation is active per deployment,
// selected by configuration; the ingestion service depends only on the
// SignalSink interface.
package sink

import (
	"context"
	"fmt"

	v1 "github.com/sift-lab/project-sift/internal/api/v1"
)

// Sink type names, used for configuration-driven selection.
const (
	TypeDurable = "durable"
	TypeCache   = "cache"
	TypeHybrid  = "hybrid"
	TypeQueue   = "queue"
	TypeArchive = "archive"
)

// SignalSink is the common contract for all persistence backends.
// Implementations must be safe to call concurrently for distinct signals,
// and must never silently drop a signal: any failure surfaces as a
// *StorageError.
type SignalSink interface {
	// Accept durably records one signal, per the sink's consistency model.
	Accept(ctx context.Context, sig *v1.Signal) error

	// AcceptBatch records a list of signals. For transactional sinks the
	// whole list is one transaction.
	AcceptBatch(ctx context.Context, sigs []*v1.Signal) error

	// Flush forces any buffered writes out. No-op for unbuffered sinks.
	Flush(ctx context.Context) error

	// SinkType returns the configuration name of this implementation.
	SinkType() string
}

// StorageError is the single error family for sink-level failures:
// serialization, connectivity, capacity. Never retried inside the sink.
type StorageError struct {
	Sink string
	Op   string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s sink: %s: %v", e.Sink, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(sink, op string, err error) *StorageError {
	return &StorageError{Sink: sink, Op: op, Err: err}
}

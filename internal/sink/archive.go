package sink

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"

	v1 "github.com/sift-lab/project-sift/internal/api/v1"
)

// ArchiveSink serializes signals to JSON, optionally gzip-compresses them,
// and writes them to a date-partitioned object key. Intended for batch /
// cold-storage paths, not low-latency reads.
type ArchiveSink struct {
	objects  ObjectStore
	prefix   string
	compress bool
}

// NewArchiveSink wraps an object store. Keys take the form
// {prefix}/{yyyy/MM/dd of event timestamp, or "undated"}/{signalId}.json[.gz].
func NewArchiveSink(objects ObjectStore, prefix string, compress bool) *ArchiveSink {
	if objects == nil {
		panic("sink: archive sink requires an object store")
	}
	if prefix == "" {
		prefix = "signals"
	}
	return &ArchiveSink{objects: objects, prefix: prefix, compress: compress}
}

func (s *ArchiveSink) Accept(ctx context.Context, sig *v1.Signal) error {
	payload, err := json.Marshal(sig)
	if err != nil {
		return storageErr(TypeArchive, "serialize signal", err)
	}

	if s.compress {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		if _, err := gz.Write(payload); err != nil {
			return storageErr(TypeArchive, "compress signal", err)
		}
		if err := gz.Close(); err != nil {
			return storageErr(TypeArchive, "compress signal", err)
		}
		payload = buf.Bytes()
	}

	if err := s.objects.Put(ctx, s.objectKey(sig), payload); err != nil {
		return storageErr(TypeArchive, "object write", err)
	}
	return nil
}

func (s *ArchiveSink) AcceptBatch(ctx context.Context, sigs []*v1.Signal) error {
	for _, sig := range sigs {
		if err := s.Accept(ctx, sig); err != nil {
			return err
		}
	}
	return nil
}

// objectKey builds the date-partitioned object key from the event timestamp.
func (s *ArchiveSink) objectKey(sig *v1.Signal) string {
	datePart := "undated"
	if !sig.Timestamp.IsZero() {
		datePart = sig.Timestamp.UTC().Format("2006/01/02")
	}

	ext := ".json"
	if s.compress {
		ext = ".json.gz"
	}
	return fmt.Sprintf("%s/%s/%s%s", s.prefix, datePart, sig.ID, ext)
}

func (s *ArchiveSink) Flush(ctx context.Context) error { return nil }

func (s *ArchiveSink) SinkType() string { return TypeArchive }

package sink

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	v1 "github.com/sift-lab/project-sift/internal/api/v1"
)

func TestArchiveSink_WritesDatePartitionedJSON(t *testing.T) {
	objects := NewMemObjectStore()
	s := NewArchiveSink(objects, "archive", false)

	sig := testSignal("sig-1", "user-1")
	sig.Timestamp = time.Date(2026, 8, 30, 23, 59, 0, 0, time.UTC)
	require.NoError(t, s.Accept(context.Background(), sig))

	data, ok := objects.Get("archive/2026/08/30/sig-1.json")
	require.True(t, ok)

	var stored v1.Signal
	require.NoError(t, json.Unmarshal(data, &stored))
	require.Equal(t, "sig-1", stored.ID)
}

func TestArchiveSink_CompressedObjectsRoundTrip(t *testing.T) {
	objects := NewMemObjectStore()
	s := NewArchiveSink(objects, "archive", true)

	sig := testSignal("sig-1", "user-1")
	require.NoError(t, s.Accept(context.Background(), sig))

	data, ok := objects.Get("archive/2026/08/30/sig-1.json.gz")
	require.True(t, ok)

	gz, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	raw, err := io.ReadAll(gz)
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	var stored v1.Signal
	require.NoError(t, json.Unmarshal(raw, &stored))
	require.Equal(t, "sig-1", stored.ID)
}

func TestArchiveSink_ZeroTimestampFallsBackToUndated(t *testing.T) {
	objects := NewMemObjectStore()
	s := NewArchiveSink(objects, "archive", false)

	sig := testSignal("sig-1", "user-1")
	sig.Timestamp = time.Time{}
	require.NoError(t, s.Accept(context.Background(), sig))

	_, ok := objects.Get("archive/undated/sig-1.json")
	require.True(t, ok)
}

func TestArchiveSink_EmptyPrefixDefaults(t *testing.T) {
	objects := NewMemObjectStore()
	s := NewArchiveSink(objects, "", false)

	require.NoError(t, s.Accept(context.Background(), testSignal("sig-1", "user-1")))
	_, ok := objects.Get("signals/2026/08/30/sig-1.json")
	require.True(t, ok)
}

package sink

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	v1 "github.com/sift-lab/project-sift/internal/api/v1"
)

func TestQueueSink_PublishesKeyedBySubject(t *testing.T) {
	log := NewMemLog()
	s := NewQueueSink(log)

	require.NoError(t, s.Accept(context.Background(), testSignal("sig-1", "user-1")))

	anon := testSignal("sig-2", "")
	anon.SessionID = "session-9"
	require.NoError(t, s.Accept(context.Background(), anon))

	require.Equal(t, 2, log.Len())
	require.Equal(t, "user-1", log.Partition("user-1")[0].Key)
	require.Equal(t, "session-9", log.Partition("session-9")[0].Key)
}

func TestQueueSink_PreservesPerSubjectOrder(t *testing.T) {
	log := NewMemLog()
	s := NewQueueSink(log)

	sigs := []*v1.Signal{
		testSignal("sig-1", "user-1"),
		testSignal("sig-2", "user-1"),
		testSignal("sig-3", "user-1"),
	}
	require.NoError(t, s.AcceptBatch(context.Background(), sigs))

	msgs := log.Partition("user-1")
	require.Len(t, msgs, 3)
	for i, msg := range msgs {
		var published v1.Signal
		require.NoError(t, json.Unmarshal(msg.Payload, &published))
		require.Equal(t, sigs[i].ID, published.ID)
	}
}

func TestQueueSink_SerializationFailureIsStorageError(t *testing.T) {
	s := NewQueueSink(NewMemLog())

	sig := testSignal("sig-1", "user-1")
	sig.Attributes["bad"] = math.Inf(1)

	err := s.Accept(context.Background(), sig)
	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	require.Equal(t, TypeQueue, storageErr.Sink)
	require.Equal(t, "serialize signal", storageErr.Op)
}

func TestQueueSink_PublishFailureIsStorageError(t *testing.T) {
	s := NewQueueSink(NewMemLog())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Accept(ctx, testSignal("sig-1", "user-1"))
	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	require.Equal(t, "publish", storageErr.Op)
}

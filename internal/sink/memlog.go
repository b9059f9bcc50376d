package sink

import (
	"context"
	"sync"

	"github.com/sift-lab/project-sift/internal/core/partition"
)

// Message is one published record in the in-process log.
type Message struct {
	Key     string
	Payload []byte
}

// MemLog is an in-process partitioned append log implementing Publisher.
// It keeps the partitioned-log contract (stable key→partition mapping,
// per-partition append order) for deployments and tests that run without
// an external broker.
type MemLog struct {
	mu         sync.Mutex
	partitions [partition.Count][]Message
}

// NewMemLog creates an empty in-process log.
func NewMemLog() *MemLog {
	return &MemLog{}
}

// Publish appends the payload to the partition selected by key.
func (l *MemLog) Publish(ctx context.Context, key string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p := partition.For(key)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.partitions[p] = append(l.partitions[p], Message{Key: key, Payload: payload})
	return nil
}

// Partition returns a copy of the messages appended to the partition the
// given key maps to, in publish order.
func (l *MemLog) Partition(key string) []Message {
	p := partition.For(key)
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Message, len(l.partitions[p]))
	copy(out, l.partitions[p])
	return out
}

// Len returns the total number of published messages across all partitions.
func (l *MemLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for i := range l.partitions {
		n += len(l.partitions[i])
	}
	return n
}

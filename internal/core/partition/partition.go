package partition

import "hash/fnv"

// Count is the fixed number of logical partitions for queue-backed sinks.
// Never changes after initial deployment.
const Count = 256

// For returns the partition ID for a given subject (user or session ID).
// Stable and deterministic: the same subject always maps to the same
// partition, which is what preserves per-user ordering.
// Uses FNV-32a (stdlib, fast, well-distributed).
func For(subject string) int {
	h := fnv.New32a()
	h.Write([]byte(subject))
	return int(h.Sum32()) % Count
}

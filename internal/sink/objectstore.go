package sink

import (
	"context"
	"fmt"
	"sync"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// ObjectStore is the put-only object storage interface behind the archive
// sink.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte) error
}

// GCSObjectStore writes archive objects to a Google Cloud Storage bucket.
type GCSObjectStore struct {
	client *gcs.Client
	bucket string
}

// NewGCSObjectStore creates a GCS-backed object store. If credentialsFile is
// empty, application default credentials are used.
func NewGCSObjectStore(ctx context.Context, bucket, credentialsFile string) (*GCSObjectStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}

	return &GCSObjectStore{client: client, bucket: bucket}, nil
}

// Put writes one object under the given key.
func (s *GCSObjectStore) Put(ctx context.Context, key string, data []byte) error {
	writer := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	writer.ContentType = "application/octet-stream"

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write object %s: %w", key, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close writer for %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *GCSObjectStore) Close() error {
	return s.client.Close()
}

// MemObjectStore is an in-memory object store for tests and local runs.
type MemObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

// NewMemObjectStore creates an empty in-memory object store.
func NewMemObjectStore() *MemObjectStore {
	return &MemObjectStore{objects: make(map[string][]byte)}
}

func (s *MemObjectStore) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[key] = buf
	return nil
}

// Get returns the stored object and whether it exists.
func (s *MemObjectStore) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	return data, ok
}

// Keys returns all stored object keys.
func (s *MemObjectStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	return keys
}

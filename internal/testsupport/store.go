package testsupport

import (
	"context"
	"fmt"
	"os"
	"sync"

	"dashpress/internal/objectstore"
)

// MemoryStore is an in-memory object store for tests. It counts every
// operation so tests can assert, for example, that a rejected fetch never
// transferred a byte, and it records upload order so manifest-last
// publication is verifiable.
type MemoryStore struct {
	mu sync.Mutex

	objects map[string][]byte
	types   map[string]string

	StatCalls     int
	DownloadCalls int
	UploadCalls   int
	UploadOrder   []string

	// FailUploadKey makes the upload of the matching bucket/key fail.
	FailUploadKey string
	// FailDownload makes every download fail.
	FailDownload bool
	// FailStat makes every probe fail.
	FailStat bool
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func objectKey(bucket, key string) string {
	return bucket + "/" + key
}

// Put seeds an object.
func (m *MemoryStore) Put(bucket, key string, data []byte, contentType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectKey(bucket, key)] = append([]byte(nil), data...)
	m.types[objectKey(bucket, key)] = contentType
}

// Keys returns every stored object key in bucket.
func (m *MemoryStore) Keys(bucket string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := bucket + "/"
	var keys []string
	for full := range m.objects {
		if len(full) > len(prefix) && full[:len(prefix)] == prefix {
			keys = append(keys, full[len(prefix):])
		}
	}
	return keys
}

// Object returns a stored object's bytes.
func (m *MemoryStore) Object(bucket, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[objectKey(bucket, key)]
	return data, ok
}

// Stat implements objectstore.Store.
func (m *MemoryStore) Stat(ctx context.Context, bucket, key string) (objectstore.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StatCalls++
	if m.FailStat {
		return objectstore.ObjectInfo{}, fmt.Errorf("stat %s/%s: injected failure", bucket, key)
	}
	data, ok := m.objects[objectKey(bucket, key)]
	if !ok {
		return objectstore.ObjectInfo{}, fmt.Errorf("stat %s/%s: not found", bucket, key)
	}
	return objectstore.ObjectInfo{
		Key:         key,
		Size:        int64(len(data)),
		ContentType: m.types[objectKey(bucket, key)],
	}, nil
}

// Download implements objectstore.Store.
func (m *MemoryStore) Download(ctx context.Context, bucket, key, localPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DownloadCalls++
	if m.FailDownload {
		return fmt.Errorf("download %s/%s: injected failure", bucket, key)
	}
	data, ok := m.objects[objectKey(bucket, key)]
	if !ok {
		return fmt.Errorf("download %s/%s: not found", bucket, key)
	}
	return os.WriteFile(localPath, data, 0o644)
}

// Upload implements objectstore.Store.
func (m *MemoryStore) Upload(ctx context.Context, bucket, key, localPath, contentType string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("upload %s/%s: %w", bucket, key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.UploadCalls++
	if m.FailUploadKey != "" && m.FailUploadKey == key {
		return fmt.Errorf("upload %s/%s: injected failure", bucket, key)
	}
	m.objects[objectKey(bucket, key)] = data
	m.types[objectKey(bucket, key)] = contentType
	m.UploadOrder = append(m.UploadOrder, key)
	return nil
}

var _ objectstore.Store = (*MemoryStore)(nil)

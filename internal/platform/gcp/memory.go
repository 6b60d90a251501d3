package gcp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/yungbote/studypath-backend/internal/platform/dbctx"
)

// MemoryBucket is an in-process BucketService.
type MemoryBucket struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryBucket() *MemoryBucket {
	return &MemoryBucket{objects: map[string][]byte{}}
}

func (m *MemoryBucket) UploadFile(_ dbctx.Context, category BucketCategory, key string, file io.Reader) error {
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.objects[objectName(category, key)] = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryBucket) DeleteFile(_ dbctx.Context, category BucketCategory, key string) error {
	name := objectName(category, key)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[name]; !ok {
		return fmt.Errorf("object %q not found", name)
	}
	delete(m.objects, name)
	return nil
}

func (m *MemoryBucket) DownloadFile(_ context.Context, category BucketCategory, key string) (io.ReadCloser, error) {
	name := objectName(category, key)
	m.mu.RLock()
	data, ok := m.objects[name]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("object %q not found", name)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MemoryBucket) GetPublicURL(category BucketCategory, key string) string {
	return "memory://" + objectName(category, key)
}

// Has reports whether an object exists.
func (m *MemoryBucket) Has(category BucketCategory, key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[objectName(category, key)]
	return ok
}

func (m *MemoryBucket) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

package storage

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charliek/objstore/internal/domain"
)

// Compile-time assertion that MemoryBackend implements Backend
var _ Backend = (*MemoryBackend)(nil)

type memoryObject struct {
	data    []byte
	updated time.Time
}

// MemoryBackend keeps objects in process memory. It backs the "memory"
// backend kind and the facade tests.
type MemoryBackend struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	now     func() time.Time

	// For error injection
	PutError    error
	GetError    error
	ListError   error
	DeleteError error
	ExistsError error
}

// NewMemoryBackend creates an empty in-memory bucket
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		objects: make(map[string]memoryObject),
		now:     time.Now,
	}
}

// Put implements Backend.Put
func (m *MemoryBackend) Put(ctx context.Context, path string, r io.Reader, size int64) (domain.ObjectMetadata, error) {
	if m.PutError != nil {
		return domain.ObjectMetadata{}, m.PutError
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return domain.ObjectMetadata{}, domain.Errorf(domain.ErrBackend, "failed to read upload body: %v", err)
	}

	obj := memoryObject{data: data, updated: m.now().UTC()}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[path] = obj

	return domain.ObjectMetadata{Path: path, Size: int64(len(data)), Updated: obj.updated}, nil
}

// Get implements Backend.Get
func (m *MemoryBackend) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[path]
	if !ok {
		return nil, domain.Errorf(domain.ErrNotFound, "object not found: %s", path)
	}

	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// Delete implements Backend.Delete
func (m *MemoryBackend) Delete(ctx context.Context, path string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, path)
	return nil
}

// Exists implements Backend.Exists
func (m *MemoryBackend) Exists(ctx context.Context, path string) (bool, error) {
	if m.ExistsError != nil {
		return false, m.ExistsError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[path]
	return ok, nil
}

// List implements Backend.List
func (m *MemoryBackend) List(ctx context.Context, prefix string) ([]domain.ObjectMetadata, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var objects []domain.ObjectMetadata
	for path, obj := range m.objects {
		if strings.HasPrefix(path, prefix) {
			objects = append(objects, domain.ObjectMetadata{
				Path:    path,
				Size:    int64(len(obj.data)),
				Updated: obj.updated,
			})
		}
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Path < objects[j].Path })
	return objects, nil
}

// Close implements Backend.Close
func (m *MemoryBackend) Close() error {
	return nil
}

// Describe implements Describer
func (m *MemoryBackend) Describe() string {
	return "memory://"
}

// GetData returns the raw data for a path (for testing)
func (m *MemoryBackend) GetData(path string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[path]
	return obj.data, ok
}

// SetData sets the raw data for a path (for testing)
func (m *MemoryBackend) SetData(path string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[path] = memoryObject{data: data, updated: m.now().UTC()}
}

// Count returns the number of objects (for testing)
func (m *MemoryBackend) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

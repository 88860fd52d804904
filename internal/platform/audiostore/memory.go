package audiostore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memObject
}

type memObject struct {
	data    []byte
	updated time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: map[string]memObject{}}
}

func (s *MemoryStore) Put(ref string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[ref] = memObject{data: buf, updated: time.Now().UTC()}
}

func (s *MemoryStore) Reader(ctx context.Context, ref string) (io.ReadCloser, error) {
	s.mu.RLock()
	obj, ok := s.objects[ref]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("audio object %q does not exist", ref)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (s *MemoryStore) Exists(ctx context.Context, ref string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[ref]
	return ok, nil
}

func (s *MemoryStore) Attrs(ctx context.Context, ref string) (*ObjectAttrs, error) {
	s.mu.RLock()
	obj, ok := s.objects[ref]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("audio object %q does not exist", ref)
	}
	return &ObjectAttrs{Size: int64(len(obj.data)), Updated: obj.updated}, nil
}

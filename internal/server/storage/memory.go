package storage

import (
	"context"
	"sync"

	"github.com/indiarose/sync-server/internal/common"
)

// MemoryBlobStore is an in-process BlobStore used in tests and local runs.
type MemoryBlobStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{objects: make(map[string][]byte)}
}

func (s *MemoryBlobStore) Upload(_ context.Context, bucket, key string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := bucket + "/" + key
	if _, ok := s.objects[k]; ok {
		return common.ErrorConflict
	}
	cp := make([]byte, len(content))
	copy(cp, content)
	s.objects[k] = cp
	return nil
}

func (s *MemoryBlobStore) Download(_ context.Context, bucket, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	content, ok := s.objects[bucket+"/"+key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return content, nil
}

package store

import (
	"context"
	"strings"
	"sync"
)

// MemStore is an in-memory DocStore. It backs tests and ephemeral runs.
type MemStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemStore creates an empty in-memory document store.
func NewMemStore() *MemStore {
	return &MemStore{docs: make(map[string][]byte)}
}

func (s *MemStore) Get(_ context.Context, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.docs[path]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *MemStore) Set(_ context.Context, path string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[path] = append([]byte(nil), value...)
	return nil
}

func (s *MemStore) Remove(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[path]; !ok {
		return ErrNotFound
	}
	delete(s.docs, path)
	return nil
}

func (s *MemStore) List(_ context.Context, prefix string) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]byte)
	for path, data := range s.docs {
		if strings.HasPrefix(path, prefix+"/") {
			out[path] = append([]byte(nil), data...)
		}
	}
	return out, nil
}

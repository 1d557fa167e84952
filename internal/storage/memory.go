package storage

import (
	"context"
	"sync"
)

// MemoryStorage is the in-process fallback and the test double.
type MemoryStorage struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		items: make(map[string][]byte),
	}
}

func (s *MemoryStorage) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.items[key]

	if !ok {
		return nil, ErrKeyNotFound
	}

	// copy so callers cannot mutate the stored slice
	out := make([]byte, len(val))
	copy(out, val)

	return out, nil
}

func (s *MemoryStorage) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	val := make([]byte, len(value))
	copy(val, value)
	s.items[key] = val

	return nil
}

func (s *MemoryStorage) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)

	return nil
}

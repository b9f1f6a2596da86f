package mapping

import (
	"context"
	"sync"

	"stock-mirror/feature/mirror/models"
)

// MemoryStore is a map-backed Store for tests and dry runs.
type MemoryStore struct {
	mu       sync.RWMutex
	mappings map[string]models.ProductMapping
}

// NewMemoryStore creates an empty in-memory mapping store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{mappings: make(map[string]models.ProductMapping)}
}

func (s *MemoryStore) Get(ctx context.Context, barcode string) (*models.ProductMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.mappings[barcode]
	if !ok {
		return nil, nil
	}
	copied := m
	return &copied, nil
}

func (s *MemoryStore) Put(ctx context.Context, m *models.ProductMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mappings[m.Barcode] = *m
	return nil
}

func (s *MemoryStore) Invalidate(ctx context.Context, barcode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.mappings, barcode)
	return nil
}

// Len returns the number of stored mappings.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.mappings)
}

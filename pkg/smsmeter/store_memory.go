package smsmeter

import (
	"context"
	"sync"
)

type usageKey struct {
	TenantID string
	Month    string
}

// MemoryStore is an in-memory Store, suitable for tests and single-instance
// deployments.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[usageKey]int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[usageKey]int64)}
}

func (s *MemoryStore) GetUsage(ctx context.Context, tenantID, month string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[usageKey{tenantID, month}], nil
}

func (s *MemoryStore) IncrementUsage(ctx context.Context, tenantID, month string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := usageKey{tenantID, month}
	s.data[key]++
	return s.data[key], nil
}

// SetUsage seeds a counter. Test helper.
func (s *MemoryStore) SetUsage(tenantID, month string, count int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[usageKey{tenantID, month}] = count
}

var _ Store = (*MemoryStore)(nil)

package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrNotFound is returned by ObjectStore implementations when a key does not
// exist. The store treats it as a resolution miss rather than a fault.
var ErrNotFound = errors.New("object not found")

// ObjectStore reads tenant config objects. Implementations must return
// ErrNotFound (possibly wrapped) for missing keys.
type ObjectStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

const defaultTTL = 5 * time.Minute

type cacheEntry struct {
	cfg     *Config
	expires time.Time
}

// Store is a read-through cache over the config object layout:
//
//	mappings/<tenant_hash>                  → {"tenant_id": ...}
//	tenants/<tenant_id>/<tenant_id>-config  → config document
//	tenants/<tenant_id>/config              → config document (second candidate)
//
// Entries are cached by tenant hash for a bounded TTL. Readers always receive
// a snapshot; a refresh replaces the entry atomically and never mutates a
// config a caller may still hold.
type Store struct {
	objects ObjectStore
	ttl     time.Duration
	now     func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithTTL overrides the cache TTL.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a Store backed by the given object store.
func NewStore(objects ObjectStore, opts ...StoreOption) *Store {
	s := &Store{
		objects: objects,
		ttl:     defaultTTL,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load resolves a tenant hash to its config. It returns nil on any retrieval
// failure; callers substitute DefaultConfig. Failures are logged, never
// propagated.
func (s *Store) Load(ctx context.Context, tenantHash string) *Config {
	if tenantHash == "" {
		return nil
	}

	s.mu.RLock()
	entry, ok := s.entries[tenantHash]
	s.mu.RUnlock()
	if ok && s.now().Before(entry.expires) {
		return entry.cfg
	}

	cfg, err := s.fetch(ctx, tenantHash)
	if err != nil {
		slog.Warn("Tenant config load failed", "tenant_hash", tenantHash, "error", err)
		return nil
	}

	s.mu.Lock()
	s.entries[tenantHash] = cacheEntry{cfg: cfg, expires: s.now().Add(s.ttl)}
	s.mu.Unlock()

	return cfg
}

// Invalidate drops the cached entry for a tenant hash.
func (s *Store) Invalidate(tenantHash string) {
	s.mu.Lock()
	delete(s.entries, tenantHash)
	s.mu.Unlock()
}

func (s *Store) fetch(ctx context.Context, tenantHash string) (*Config, error) {
	mappingData, err := s.objects.Get(ctx, "mappings/"+tenantHash)
	if err != nil {
		return nil, fmt.Errorf("mapping lookup: %w", err)
	}

	var mapping struct {
		TenantID string `json:"tenant_id"`
	}
	if err := json.Unmarshal(mappingData, &mapping); err != nil {
		return nil, fmt.Errorf("mapping parse: %w", err)
	}
	if mapping.TenantID == "" {
		return nil, fmt.Errorf("mapping for %s has no tenant_id", tenantHash)
	}

	candidates := []string{
		fmt.Sprintf("tenants/%s/%s-config", mapping.TenantID, mapping.TenantID),
		fmt.Sprintf("tenants/%s/config", mapping.TenantID),
	}

	var data []byte
	for _, key := range candidates {
		data, err = s.objects.Get(ctx, key)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("config read %s: %w", key, err)
		}
	}
	if data == nil {
		return nil, fmt.Errorf("no config object for tenant %s: %w", mapping.TenantID, ErrNotFound)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	cfg.TenantHash = tenantHash
	if cfg.TenantID == "" {
		cfg.TenantID = mapping.TenantID
	}
	return cfg, nil
}

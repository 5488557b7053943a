// Package knowledge retrieves tenant-scoped context passages for a query.
package knowledge

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const (
	defaultTopK = 5
	defaultTTL  = 5 * time.Minute

	passageSeparator = "\n\n---\n\n"
)

// KnowledgeBase is the upstream retrieval interface.
type KnowledgeBase interface {
	Retrieve(ctx context.Context, knowledgeBaseID, query string, topK int) ([]string, error)
}

type cacheEntry struct {
	context string
	expires time.Time
}

// Retriever fetches top passages for a query and formats them into a single
// context block. Results are cached by (kb id, md5 of query). All failure
// modes yield an empty string; the prompt composer substitutes the tenant
// fallback message downstream.
type Retriever struct {
	kb   KnowledgeBase
	ttl  time.Duration
	topK int
	now  func() time.Time

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithTTL overrides the cache TTL.
func WithTTL(ttl time.Duration) Option {
	return func(r *Retriever) { r.ttl = ttl }
}

// WithTopK overrides the number of passages requested.
func WithTopK(k int) Option {
	return func(r *Retriever) { r.topK = k }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(r *Retriever) { r.now = now }
}

// NewRetriever creates a Retriever over the given knowledge base.
func NewRetriever(kb KnowledgeBase, opts ...Option) *Retriever {
	r := &Retriever{
		kb:    kb,
		ttl:   defaultTTL,
		topK:  defaultTopK,
		now:   time.Now,
		cache: make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve returns the formatted context block for a query, or "" when no
// knowledge base is configured, the call fails, or nothing matches.
func (r *Retriever) Retrieve(ctx context.Context, query, knowledgeBaseID string) string {
	if knowledgeBaseID == "" || strings.TrimSpace(query) == "" {
		return ""
	}

	key := cacheKey(knowledgeBaseID, query)

	r.mu.RLock()
	entry, ok := r.cache[key]
	r.mu.RUnlock()
	if ok && r.now().Before(entry.expires) {
		return entry.context
	}

	passages, err := r.kb.Retrieve(ctx, knowledgeBaseID, query, r.topK)
	if err != nil {
		slog.Warn("Knowledge retrieval failed", "kb_id", knowledgeBaseID, "error", err)
		return ""
	}

	formatted := formatPassages(passages)

	r.mu.Lock()
	r.cache[key] = cacheEntry{context: formatted, expires: r.now().Add(r.ttl)}
	r.mu.Unlock()

	return formatted
}

func cacheKey(knowledgeBaseID, query string) string {
	sum := md5.Sum([]byte(query))
	return knowledgeBaseID + ":" + hex.EncodeToString(sum[:])
}

// formatPassages renders passages as numbered context blocks joined by a
// stable separator, so downstream prompt sections can reference them.
func formatPassages(passages []string) string {
	var blocks []string
	n := 0
	for _, p := range passages {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n++
		blocks = append(blocks, fmt.Sprintf("**Context %d:**\n%s", n, p))
	}
	return strings.Join(blocks, passageSeparator)
}

package knowledge

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKB struct {
	mu       sync.Mutex
	passages []string
	err      error
	calls    int
}

func (f *fakeKB) Retrieve(ctx context.Context, kbID, query string, topK int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.passages, nil
}

func (f *fakeKB) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestRetrieve_FormatsPassages(t *testing.T) {
	kb := &fakeKB{passages: []string{"Love Box pairs families.", "Dare to Dream mentors teens."}}
	r := NewRetriever(kb)

	got := r.Retrieve(context.Background(), "what programs do you have", "KB123")

	want := "**Context 1:**\nLove Box pairs families.\n\n---\n\n**Context 2:**\nDare to Dream mentors teens."
	assert.Equal(t, want, got)
}

func TestRetrieve_SkipsBlankPassages(t *testing.T) {
	kb := &fakeKB{passages: []string{"  ", "Only real content."}}
	r := NewRetriever(kb)

	got := r.Retrieve(context.Background(), "q", "KB123")
	assert.Equal(t, "**Context 1:**\nOnly real content.", got)
}

func TestRetrieve_EmptyCases(t *testing.T) {
	kb := &fakeKB{passages: []string{"x"}}
	r := NewRetriever(kb)

	assert.Empty(t, r.Retrieve(context.Background(), "q", ""), "no kb configured")
	assert.Empty(t, r.Retrieve(context.Background(), "   ", "KB123"), "blank query")
	assert.Equal(t, 0, kb.callCount())

	kb2 := &fakeKB{}
	r2 := NewRetriever(kb2)
	assert.Empty(t, r2.Retrieve(context.Background(), "q", "KB123"), "zero results")
}

func TestRetrieve_FailureReturnsEmpty(t *testing.T) {
	kb := &fakeKB{err: errors.New("kb unreachable")}
	r := NewRetriever(kb)

	assert.Empty(t, r.Retrieve(context.Background(), "q", "KB123"))
}

func TestRetrieve_CachesByKBAndQueryHash(t *testing.T) {
	kb := &fakeKB{passages: []string{"cached"}}
	now := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	r := NewRetriever(kb, WithClock(func() time.Time { return now }))

	first := r.Retrieve(context.Background(), "q", "KB123")
	second := r.Retrieve(context.Background(), "q", "KB123")
	require.Equal(t, first, second)
	assert.Equal(t, 1, kb.callCount(), "second call served from cache")

	r.Retrieve(context.Background(), "different query", "KB123")
	assert.Equal(t, 2, kb.callCount(), "different query misses")

	r.Retrieve(context.Background(), "q", "KB999")
	assert.Equal(t, 3, kb.callCount(), "different kb misses")

	now = now.Add(6 * time.Minute)
	r.Retrieve(context.Background(), "q", "KB123")
	assert.Equal(t, 4, kb.callCount(), "expired entry refetched")
}

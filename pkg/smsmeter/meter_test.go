package smsmeter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(s string) func() time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func TestCheckAndIncrement_UnderLimit(t *testing.T) {
	store := NewMemoryStore()
	meter := New(store, WithClock(fixedClock("2025-10-15")))

	d := meter.CheckAndIncrement(context.Background(), "tenant_a", 100)
	assert.True(t, d.Allowed)
	assert.Equal(t, int64(0), d.UsageBefore)
	assert.Equal(t, int64(1), d.UsageAfter)
	assert.Equal(t, int64(100), d.Limit)
}

func TestCheckAndIncrement_AtLimit(t *testing.T) {
	store := NewMemoryStore()
	store.SetUsage("tenant_a", "2025-10", 100)
	meter := New(store, WithClock(fixedClock("2025-10-15")))

	d := meter.CheckAndIncrement(context.Background(), "tenant_a", 100)
	assert.False(t, d.Allowed)
	assert.Equal(t, int64(100), d.UsageBefore)
	assert.Equal(t, int64(100), d.UsageAfter, "skipped sends do not count")
	assert.Equal(t, int64(100), d.Limit)
}

func TestCheckAndIncrement_Monotonic(t *testing.T) {
	store := NewMemoryStore()
	meter := New(store, WithClock(fixedClock("2025-10-15")))

	var prev int64
	for i := 0; i < 5; i++ {
		d := meter.CheckAndIncrement(context.Background(), "tenant_a", 100)
		require.True(t, d.Allowed)
		assert.GreaterOrEqual(t, d.UsageAfter, d.UsageBefore+1)
		assert.GreaterOrEqual(t, d.UsageBefore, prev)
		prev = d.UsageAfter
	}
}

func TestCheckAndIncrement_MonthRollover(t *testing.T) {
	store := NewMemoryStore()
	store.SetUsage("tenant_a", "2025-10", 100)
	meter := New(store, WithClock(fixedClock("2025-11-01")))

	d := meter.CheckAndIncrement(context.Background(), "tenant_a", 100)
	assert.True(t, d.Allowed, "a new month is a fresh counter")
	assert.Equal(t, int64(0), d.UsageBefore)
}

func TestCheckAndIncrement_PerTenantCounters(t *testing.T) {
	store := NewMemoryStore()
	store.SetUsage("tenant_a", "2025-10", 100)
	meter := New(store, WithClock(fixedClock("2025-10-15")))

	assert.False(t, meter.CheckAndIncrement(context.Background(), "tenant_a", 100).Allowed)
	assert.True(t, meter.CheckAndIncrement(context.Background(), "tenant_b", 100).Allowed)
}

type failingStore struct {
	getErr error
	incErr error
}

func (s *failingStore) GetUsage(context.Context, string, string) (int64, error) {
	return 0, s.getErr
}

func (s *failingStore) IncrementUsage(context.Context, string, string) (int64, error) {
	if s.incErr != nil {
		return 0, s.incErr
	}
	return 1, nil
}

func TestCheckAndIncrement_ReadFailureFailsOpen(t *testing.T) {
	meter := New(&failingStore{getErr: errors.New("throttled")})

	d := meter.CheckAndIncrement(context.Background(), "tenant_a", 100)
	assert.True(t, d.Allowed)
	assert.Equal(t, int64(0), d.UsageBefore)
}

func TestCheckAndIncrement_IncrementFailureStillAllows(t *testing.T) {
	meter := New(&failingStore{incErr: errors.New("throttled")})

	d := meter.CheckAndIncrement(context.Background(), "tenant_a", 100)
	assert.True(t, d.Allowed)
	assert.Equal(t, int64(1), d.UsageAfter)
}

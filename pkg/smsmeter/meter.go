// Package smsmeter enforces the per-tenant monthly SMS budget. The meter is a
// read followed by an atomic increment; the pair is deliberately not atomic
// across operations, so a small over-count under extreme concurrency is
// accepted in exchange for fail-open behavior on storage errors.
package smsmeter

import (
	"context"
	"log/slog"
	"time"
)

// Decision is the outcome of one meter check.
type Decision struct {
	Allowed     bool
	UsageBefore int64
	UsageAfter  int64
	Limit       int64
}

// Store is the persistence layer for usage counters. Implementations must be
// safe for concurrent use. The counter key is (tenant id, month); a new month
// is simply a new key.
type Store interface {
	// GetUsage returns the current count for the key, 0 when absent.
	GetUsage(ctx context.Context, tenantID, month string) (int64, error)

	// IncrementUsage atomically adds one to the counter and returns the new
	// count.
	IncrementUsage(ctx context.Context, tenantID, month string) (int64, error)
}

// Meter meters SMS sends against a monthly limit.
type Meter struct {
	store Store
	now   func() time.Time
}

// Option configures a Meter.
type Option func(*Meter)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Meter) { m.now = now }
}

// New creates a Meter on top of a Store.
func New(store Store, opts ...Option) *Meter {
	m := &Meter{store: store, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CheckAndIncrement checks the tenant's usage for the current UTC month and,
// when under the limit, records one send. A read failure fails open so that
// storage issues never block notifications.
func (m *Meter) CheckAndIncrement(ctx context.Context, tenantID string, monthlyLimit int64) Decision {
	month := m.now().UTC().Format("2006-01")

	usage, err := m.store.GetUsage(ctx, tenantID, month)
	if err != nil {
		slog.Warn("SMS usage read failed, failing open",
			"tenant_id", tenantID, "month", month, "error", err)
		usage = 0
	}

	if usage >= monthlyLimit {
		return Decision{Allowed: false, UsageBefore: usage, UsageAfter: usage, Limit: monthlyLimit}
	}

	after, err := m.store.IncrementUsage(ctx, tenantID, month)
	if err != nil {
		slog.Warn("SMS usage increment failed",
			"tenant_id", tenantID, "month", month, "error", err)
		after = usage + 1
	}
	return Decision{Allowed: true, UsageBefore: usage, UsageAfter: after, Limit: monthlyLimit}
}

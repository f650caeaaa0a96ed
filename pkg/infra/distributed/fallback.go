package distributed

import (
	"context"
	"time"

	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/domain/ratelimit"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/infra/auditlogs"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/infra/prometheus"
)

type degrader struct {
	events auditlogs.Service
}

func (d degrader) degrade(ctx context.Context, key ratelimit.Key, op string, event bool) {
	prometheus.RateLimitDegraded.WithLabelValues(op).Inc()
	if !event || d.events == nil {
		return
	}
	d.events.Emit(ctx, auditlogs.Event{
		Event: auditlogs.EventInfo{
			Type:        auditlogs.EventTypeDegradedMode,
			Description: "shared counter store unavailable, request decided by local store",
			Status:      auditlogs.StatusDegraded,
		},
		Target: auditlogs.Target{
			Type: auditlogs.TargetTypeRateLimitKey,
			ID:   string(key),
			Name: op,
		},
	})
}

type fallbackCounter struct {
	degrader
	backend Backend
	local   ratelimit.WindowCounter
}

// NewFallbackCounter counts in the shared store and falls back to local for
// any request the shared store cannot serve. Fallback decisions are marked
// degraded and reported; errors never reach the caller.
func NewFallbackCounter(backend Backend, local ratelimit.WindowCounter, events auditlogs.Service) ratelimit.WindowCounter {
	return &fallbackCounter{degrader: degrader{events: events}, backend: backend, local: local}
}

func (f *fallbackCounter) Increment(
	ctx context.Context,
	key ratelimit.Key,
	window time.Duration,
	ceiling int64,
	now time.Time,
) (ratelimit.WindowEntry, bool, error) {
	if inc, ok := f.backend.TryAtomicIncrement(ctx, key, window, ceiling); ok {
		reset := now.Add(inc.TTL)
		return ratelimit.WindowEntry{
			Count:       inc.Count,
			WindowStart: reset.Add(-window),
			ResetTime:   reset,
		}, false, nil
	}
	f.degrade(ctx, key, "increment", true)
	entry, _, err := f.local.Increment(ctx, key, window, ceiling, now)
	return entry, true, err
}

func (f *fallbackCounter) Decrement(ctx context.Context, key ratelimit.Key, windowStart time.Time) error {
	if f.backend.TryDecrement(ctx, key) {
		return nil
	}
	f.degrade(ctx, key, "decrement", false)
	return f.local.Decrement(ctx, key, windowStart)
}

type fallbackRecorder struct {
	degrader
	backend Backend
	local   ratelimit.LogRecorder
}

func NewFallbackRecorder(backend Backend, local ratelimit.LogRecorder, events auditlogs.Service) ratelimit.LogRecorder {
	return &fallbackRecorder{degrader: degrader{events: events}, backend: backend, local: local}
}

func (f *fallbackRecorder) Record(
	ctx context.Context,
	key ratelimit.Key,
	window time.Duration,
	limit int,
	now time.Time,
) (ratelimit.LogResult, bool, error) {
	if res, ok := f.backend.TryAtomicRecord(ctx, key, window, limit, now); ok {
		return res, false, nil
	}
	f.degrade(ctx, key, "record", true)
	res, _, err := f.local.Record(ctx, key, window, limit, now)
	return res, true, err
}

// Remove refunds wherever the receipt came from: local receipts are unix
// nanos, shared ones are uuids.
func (f *fallbackRecorder) Remove(ctx context.Context, key ratelimit.Key, receipt string) error {
	if isLocalReceipt(receipt) {
		return f.local.Remove(ctx, key, receipt)
	}
	if f.backend.TryRemove(ctx, key, receipt) {
		return nil
	}
	f.degrade(ctx, key, "remove", false)
	return nil
}

func isLocalReceipt(receipt string) bool {
	if receipt == "" {
		return false
	}
	for _, r := range receipt {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

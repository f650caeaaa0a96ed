package ratelimit

import (
	"context"
	"time"
)

// WindowEntry is the fixed-window state of one key.
type WindowEntry struct {
	Count       int64
	WindowStart time.Time
	ResetTime   time.Time
}

func (e WindowEntry) Expired(now time.Time) bool {
	return !now.Before(e.ResetTime)
}

// TokenBucket is the token-bucket state of one key.
// 0 <= Tokens <= Capacity holds after every mutation.
type TokenBucket struct {
	Tokens     float64
	Capacity   float64
	RefillRate float64
	LastRefill time.Time
}

// LogResult is the outcome of recording into a sliding log.
type LogResult struct {
	// Count is the number of live entries after the operation.
	Count   int
	Allowed bool
	// Oldest is the timestamp of the oldest live entry, zero when empty.
	Oldest  time.Time
	Receipt string
}

// WindowCounter counts requests in fixed windows. The increment (and window
// rollover) must be atomic per key. Implementations stop incrementing once
// the count reaches ceiling. The boolean result reports a degraded decision,
// taken locally because the shared store was unreachable.
//
//go:generate mockery --name=WindowCounter --dir=. --output=./mocks --filename=window_counter_mock.go --case=underscore --with-expecter
type WindowCounter interface {
	Increment(ctx context.Context, key Key, window time.Duration, ceiling int64, now time.Time) (WindowEntry, bool, error)
	Decrement(ctx context.Context, key Key, windowStart time.Time) error
}

// LogRecorder keeps per-key request timestamps for the sliding window. Record
// prunes entries older than the window, and appends now only if fewer than
// limit entries are live. The boolean result has the same meaning as for
// WindowCounter.
type LogRecorder interface {
	Record(ctx context.Context, key Key, window time.Duration, limit int, now time.Time) (LogResult, bool, error)
	Remove(ctx context.Context, key Key, receipt string) error
}

// Limiter decides one request against a policy.
//
//go:generate mockery --name=Limiter --dir=. --output=./mocks --filename=limiter_mock.go --case=underscore --with-expecter
type Limiter interface {
	Check(ctx context.Context, key Key, policy Policy) (Decision, error)
	Refund(ctx context.Context, decision Decision) error
}

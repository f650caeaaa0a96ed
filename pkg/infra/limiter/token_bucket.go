package limiter

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/domain/ratelimit"
)

// BucketStore gives locked read-modify-write access to token buckets.
type BucketStore interface {
	UpdateBucket(key ratelimit.Key, fn func(b *ratelimit.TokenBucket, exists bool)) ratelimit.TokenBucket
}

type tokenBucket struct {
	store BucketStore
	now   Clock
}

// NewTokenBucket refills lazily on each check. A cold bucket starts full.
func NewTokenBucket(store BucketStore, now Clock) ratelimit.Limiter {
	return &tokenBucket{store: store, now: clockOrNow(now)}
}

func (t *tokenBucket) Check(_ context.Context, key ratelimit.Key, policy ratelimit.Policy) (ratelimit.Decision, error) {
	lim, ok := policy.Limit.(ratelimit.TokenBucketLimit)
	if !ok {
		return ratelimit.Decision{}, wrongLimit(ratelimit.AlgorithmTokenBucket, policy)
	}
	if err := lim.Validate(); err != nil {
		return ratelimit.Decision{}, fmt.Errorf("%w %q: %w", ratelimit.ErrInvalidPolicy, policy.Name, err)
	}

	now := t.now()
	var allowed bool
	bucket := t.store.UpdateBucket(key, func(b *ratelimit.TokenBucket, exists bool) {
		if !exists {
			b.Tokens = lim.Capacity
			b.LastRefill = now
		}
		b.Capacity = lim.Capacity
		b.RefillRate = lim.RefillRate
		refill(b, now)
		if b.Tokens >= 1 {
			b.Tokens--
			allowed = true
		}
	})

	d := ratelimit.Decision{
		Blocked:   !allowed,
		Limit:     lim.MaxRequests(),
		Remaining: int(math.Floor(bucket.Tokens)),
		ResetTime: now.Add(untilNextToken(bucket)),
		Algorithm: ratelimit.AlgorithmTokenBucket,
		Key:       key,
		Policy:    policy.Name,
		Counted:   allowed,
	}
	if d.Blocked {
		d.RetryAfter = untilNextToken(bucket)
	}
	return d, nil
}

// Refund puts the consumed token back, capped at capacity.
func (t *tokenBucket) Refund(_ context.Context, d ratelimit.Decision) error {
	if !d.Counted || d.Blocked {
		return nil
	}
	t.store.UpdateBucket(d.Key, func(b *ratelimit.TokenBucket, exists bool) {
		if !exists {
			return
		}
		b.Tokens = math.Min(b.Capacity, b.Tokens+1)
	})
	return nil
}

func refill(b *ratelimit.TokenBucket, now time.Time) {
	if elapsed := now.Sub(b.LastRefill).Seconds(); elapsed > 0 {
		b.Tokens += elapsed * b.RefillRate
		b.LastRefill = now
	}
	b.Tokens = math.Max(0, math.Min(b.Capacity, b.Tokens))
}

func untilNextToken(b ratelimit.TokenBucket) time.Duration {
	if b.Tokens >= 1 || b.RefillRate <= 0 {
		return 0
	}
	secs := (1 - b.Tokens) / b.RefillRate
	return time.Duration(math.Ceil(secs * float64(time.Second)))
}

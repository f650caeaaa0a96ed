package limiter

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/domain/ratelimit"
)

type fixedWindow struct {
	counter ratelimit.WindowCounter
	now     Clock
}

// NewFixedWindow counts requests in discrete windows. The request that takes
// the count past the limit is still recorded, so a window holds at most
// limit+1 and later requests in the same window are rejected without being
// counted.
func NewFixedWindow(counter ratelimit.WindowCounter, now Clock) ratelimit.Limiter {
	return &fixedWindow{counter: counter, now: clockOrNow(now)}
}

func (f *fixedWindow) Check(ctx context.Context, key ratelimit.Key, policy ratelimit.Policy) (ratelimit.Decision, error) {
	lim, ok := policy.Limit.(ratelimit.FixedWindowLimit)
	if !ok {
		return ratelimit.Decision{}, wrongLimit(ratelimit.AlgorithmFixedWindow, policy)
	}
	if err := lim.Validate(); err != nil {
		return ratelimit.Decision{}, fmt.Errorf("%w %q: %w", ratelimit.ErrInvalidPolicy, policy.Name, err)
	}

	now := f.now()
	entry, degraded, err := f.counter.Increment(ctx, key, lim.Window, int64(lim.Requests)+1, now)
	if err != nil {
		return ratelimit.Decision{}, err
	}

	d := ratelimit.Decision{
		Blocked:   entry.Count > int64(lim.Requests),
		Limit:     lim.Requests,
		Remaining: ratelimit.Remaining(lim.Requests, entry.Count),
		ResetTime: entry.ResetTime,
		Algorithm: ratelimit.AlgorithmFixedWindow,
		Key:       key,
		Policy:    policy.Name,
		Degraded:  degraded,
	}
	if d.Blocked {
		d.RetryAfter = nonNegative(entry.ResetTime.Sub(now))
		return d, nil
	}
	d.Counted = true
	d.Receipt = strconv.FormatInt(entry.WindowStart.UnixNano(), 10)
	return d, nil
}

func (f *fixedWindow) Refund(ctx context.Context, d ratelimit.Decision) error {
	if !d.Counted || d.Blocked {
		return nil
	}
	nanos, err := strconv.ParseInt(d.Receipt, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid fixed window receipt %q: %w", d.Receipt, err)
	}
	return f.counter.Decrement(ctx, d.Key, time.Unix(0, nanos))
}

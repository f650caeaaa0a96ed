package limiter

import (
	"context"
	"fmt"

	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/domain/ratelimit"
)

type slidingWindow struct {
	recorder ratelimit.LogRecorder
	now      Clock
}

// NewSlidingWindow admits a request only while fewer than the limit requests
// were admitted in the trailing window. Rejected requests are not logged.
func NewSlidingWindow(recorder ratelimit.LogRecorder, now Clock) ratelimit.Limiter {
	return &slidingWindow{recorder: recorder, now: clockOrNow(now)}
}

func (s *slidingWindow) Check(ctx context.Context, key ratelimit.Key, policy ratelimit.Policy) (ratelimit.Decision, error) {
	lim, ok := policy.Limit.(ratelimit.SlidingWindowLimit)
	if !ok {
		return ratelimit.Decision{}, wrongLimit(ratelimit.AlgorithmSlidingWindow, policy)
	}
	if err := lim.Validate(); err != nil {
		return ratelimit.Decision{}, fmt.Errorf("%w %q: %w", ratelimit.ErrInvalidPolicy, policy.Name, err)
	}

	now := s.now()
	res, degraded, err := s.recorder.Record(ctx, key, lim.Window, lim.Requests, now)
	if err != nil {
		return ratelimit.Decision{}, err
	}

	reset := now.Add(lim.Window)
	if !res.Oldest.IsZero() {
		reset = res.Oldest.Add(lim.Window)
	}
	d := ratelimit.Decision{
		Blocked:   !res.Allowed,
		Limit:     lim.Requests,
		Remaining: ratelimit.Remaining(lim.Requests, int64(res.Count)),
		ResetTime: reset,
		Algorithm: ratelimit.AlgorithmSlidingWindow,
		Key:       key,
		Policy:    policy.Name,
		Degraded:  degraded,
		Counted:   res.Allowed,
		Receipt:   res.Receipt,
	}
	if d.Blocked {
		d.RetryAfter = nonNegative(reset.Sub(now))
	}
	return d, nil
}

func (s *slidingWindow) Refund(ctx context.Context, d ratelimit.Decision) error {
	if !d.Counted || d.Blocked || d.Receipt == "" {
		return nil
	}
	return s.recorder.Remove(ctx, d.Key, d.Receipt)
}

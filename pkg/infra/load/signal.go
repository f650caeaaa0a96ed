package load

import "sync/atomic"

// Signal reports system load in [0, 1]. Values outside the range are clamped
// by the consumer.
type Signal interface {
	Load() float64
}

// Static is a fixed load value, used when adaptive limiting is driven by an
// operator setting instead of live traffic.
type Static float64

func (s Static) Load() float64 { return float64(s) }

// InflightTracker measures load as requests in flight over a ceiling. Unlike
// a semaphore it never refuses an Acquire; saturation is just load 1.
type InflightTracker struct {
	max      int64
	inflight atomic.Int64
}

func NewInflightTracker(maxInflight int) *InflightTracker {
	if maxInflight < 1 {
		maxInflight = 1
	}
	return &InflightTracker{max: int64(maxInflight)}
}

func (t *InflightTracker) Acquire() {
	t.inflight.Add(1)
}

func (t *InflightTracker) Release() {
	for {
		cur := t.inflight.Load()
		if cur <= 0 {
			return
		}
		if t.inflight.CompareAndSwap(cur, cur-1) {
			return
		}
	}
}

func (t *InflightTracker) Current() int {
	return int(t.inflight.Load())
}

func (t *InflightTracker) Load() float64 {
	l := float64(t.inflight.Load()) / float64(t.max)
	if l > 1 {
		return 1
	}
	return l
}

package ratelimit

import (
	"fmt"
	"math"
	"time"
)

// Limit is the algorithm-specific part of a policy. Exactly one of
// FixedWindowLimit, SlidingWindowLimit or TokenBucketLimit.
type Limit interface {
	Algorithm() Algorithm
	// MaxRequests is the nominal admission budget: requests per window for
	// window algorithms, bucket capacity for the token bucket.
	MaxRequests() int
	// WithMaxRequests returns a copy of the limit rescaled to n.
	WithMaxRequests(n int) Limit
	Validate() error
}

type FixedWindowLimit struct {
	Window   time.Duration
	Requests int
}

func (l FixedWindowLimit) Algorithm() Algorithm { return AlgorithmFixedWindow }
func (l FixedWindowLimit) MaxRequests() int     { return l.Requests }

func (l FixedWindowLimit) WithMaxRequests(n int) Limit {
	l.Requests = n
	return l
}

func (l FixedWindowLimit) Validate() error {
	return validateWindow(l.Window, l.Requests)
}

type SlidingWindowLimit struct {
	Window   time.Duration
	Requests int
}

func (l SlidingWindowLimit) Algorithm() Algorithm { return AlgorithmSlidingWindow }
func (l SlidingWindowLimit) MaxRequests() int     { return l.Requests }

func (l SlidingWindowLimit) WithMaxRequests(n int) Limit {
	l.Requests = n
	return l
}

func (l SlidingWindowLimit) Validate() error {
	return validateWindow(l.Window, l.Requests)
}

// TokenBucketLimit allows bursts up to Capacity and a steady state of
// RefillRate requests per second.
type TokenBucketLimit struct {
	Capacity   float64
	RefillRate float64
}

// NewTokenBucketLimit derives a bucket from a window budget: capacity equals
// the budget and the bucket refills completely once per window.
func NewTokenBucketLimit(window time.Duration, requests int) TokenBucketLimit {
	l := TokenBucketLimit{Capacity: float64(requests)}
	if window > 0 {
		l.RefillRate = float64(requests) / window.Seconds()
	}
	return l
}

func (l TokenBucketLimit) Algorithm() Algorithm { return AlgorithmTokenBucket }
func (l TokenBucketLimit) MaxRequests() int     { return int(math.Floor(l.Capacity)) }

// WithMaxRequests scales capacity and refill rate by the same ratio so the
// burst-to-rate relationship is preserved.
func (l TokenBucketLimit) WithMaxRequests(n int) Limit {
	if l.Capacity > 0 {
		l.RefillRate *= float64(n) / l.Capacity
	}
	l.Capacity = float64(n)
	return l
}

func (l TokenBucketLimit) Validate() error {
	if l.Capacity < 1 {
		return ErrInvalidCapacity
	}
	if l.RefillRate <= 0 || math.IsInf(l.RefillRate, 0) || math.IsNaN(l.RefillRate) {
		return ErrInvalidRefillRate
	}
	return nil
}

func validateWindow(window time.Duration, requests int) error {
	if window <= 0 {
		return ErrInvalidWindow
	}
	if requests <= 0 {
		return ErrInvalidMaxRequests
	}
	return nil
}

// NewLimit builds the typed limit for an algorithm from the window/budget pair
// every policy table carries. capacity and refillRate override the derived
// bucket parameters when positive.
func NewLimit(algorithm Algorithm, window time.Duration, requests int, capacity, refillRate float64) (Limit, error) {
	var l Limit
	switch algorithm {
	case AlgorithmFixedWindow:
		l = FixedWindowLimit{Window: window, Requests: requests}
	case AlgorithmSlidingWindow:
		l = SlidingWindowLimit{Window: window, Requests: requests}
	case AlgorithmTokenBucket:
		b := NewTokenBucketLimit(window, requests)
		if capacity > 0 {
			b.Capacity = capacity
		}
		if refillRate > 0 {
			b.RefillRate = refillRate
		}
		l = b
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownAlgorithm, int(algorithm))
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

package ratelimit

import (
	"math"
	"time"
)

// Key identifies one counting subject (window, log or bucket).
type Key string

// Decision is produced fresh for every check and never persisted.
type Decision struct {
	Blocked    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration

	Algorithm Algorithm
	Key       Key
	Policy    string
	// Counted is set when the check consumed budget that Refund can return.
	Counted bool
	// Degraded is set when the shared store was unreachable and the local
	// store decided instead.
	Degraded bool
	// Receipt is an opaque handle the limiter uses to refund this request.
	Receipt string
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds, never below 1 for
// a blocked decision.
func (d Decision) RetryAfterSeconds() int {
	if !d.Blocked {
		return 0
	}
	secs := int(math.Ceil(d.RetryAfter.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// Remaining computes max(0, limit-count).
func Remaining(limit int, count int64) int {
	r := int64(limit) - count
	if r < 0 {
		return 0
	}
	return int(r)
}

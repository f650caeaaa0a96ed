package limiter

import (
	"fmt"
	"time"

	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/domain/ratelimit"
)

type Clock func() time.Time

func clockOrNow(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}

func wrongLimit(want ratelimit.Algorithm, policy ratelimit.Policy) error {
	return fmt.Errorf("%w %q: %s limiter cannot enforce a %s limit",
		ratelimit.ErrInvalidPolicy, policy.Name, want, policy.Algorithm())
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}

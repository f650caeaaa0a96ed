package limiter

import (
	"context"
	"math"

	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/domain/ratelimit"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/infra/load"
)

const DefaultMinLimit = 1

type adaptive struct {
	base     ratelimit.Limiter
	signal   load.Signal
	minLimit int
}

// NewAdaptive shrinks the policy budget as load rises, down to half the
// configured budget at full load but never below minLimit.
func NewAdaptive(base ratelimit.Limiter, signal load.Signal, minLimit int) ratelimit.Limiter {
	if minLimit < 1 {
		minLimit = DefaultMinLimit
	}
	return &adaptive{base: base, signal: signal, minLimit: minLimit}
}

func (a *adaptive) Check(ctx context.Context, key ratelimit.Key, policy ratelimit.Policy) (ratelimit.Decision, error) {
	if policy.Limit == nil || a.signal == nil {
		return a.base.Check(ctx, key, policy)
	}
	baseLimit := policy.Limit.MaxRequests()
	if adjusted := AdjustedLimit(baseLimit, a.minLimit, a.signal.Load()); adjusted != baseLimit {
		policy = policy.WithMaxRequests(adjusted)
	}
	return a.base.Check(ctx, key, policy)
}

func (a *adaptive) Refund(ctx context.Context, d ratelimit.Decision) error {
	return a.base.Refund(ctx, d)
}

// AdjustedLimit is floor(base * (1 - load/2)) clamped to [minLimit, base].
// It never exceeds base, even when minLimit does.
func AdjustedLimit(base, minLimit int, systemLoad float64) int {
	if math.IsNaN(systemLoad) || systemLoad < 0 {
		systemLoad = 0
	}
	if systemLoad > 1 {
		systemLoad = 1
	}
	adjusted := int(math.Floor(float64(base) * (1 - systemLoad*0.5)))
	if adjusted < minLimit {
		adjusted = minLimit
	}
	if adjusted > base {
		adjusted = base
	}
	return adjusted
}

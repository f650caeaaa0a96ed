package config

import (
	"fmt"

	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/app/policy"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/domain/ratelimit"
)

// Policy converts the loose table entry into a typed policy.
func (p PolicyConfig) Policy(fallbackName string) (ratelimit.Policy, error) {
	name := p.Name
	if name == "" {
		name = fallbackName
	}
	limit, err := ratelimit.NewLimit(p.Algorithm, p.Window, p.MaxRequests, p.Capacity, p.RefillRate)
	if err != nil {
		return ratelimit.Policy{}, fmt.Errorf("%w %q: %w", ratelimit.ErrInvalidPolicy, name, err)
	}
	pol := ratelimit.Policy{
		Name:                   name,
		Limit:                  limit,
		KeyStrategy:            ratelimit.KeyStrategy(p.KeyStrategy),
		SkipSuccessfulRequests: p.SkipSuccessfulRequests,
		SkipFailedRequests:     p.SkipFailedRequests,
		Adaptive:               p.Adaptive,
	}
	if pol.KeyStrategy == "" {
		pol.KeyStrategy = ratelimit.KeyByIP
	}
	if err := pol.Validate(); err != nil {
		return ratelimit.Policy{}, err
	}
	return pol, nil
}

// PolicyTable builds the resolver table. Endpoint policies without a name
// are named after their pattern.
func (c RateLimitConfig) PolicyTable() (policy.Table, error) {
	def, err := c.Default.Policy("default")
	if err != nil {
		return policy.Table{}, fmt.Errorf("rate_limit.default: %w", err)
	}
	table := policy.Table{Default: def, Tiers: c.Tiers}
	for i, e := range c.Endpoints {
		if e.Pattern == "" {
			return policy.Table{}, fmt.Errorf("rate_limit.endpoints[%d]: missing pattern", i)
		}
		p, err := e.Policy(e.Pattern)
		if err != nil {
			return policy.Table{}, fmt.Errorf("rate_limit.endpoints[%d]: %w", i, err)
		}
		table.Rules = append(table.Rules, policy.Rule{
			Pattern: e.Pattern,
			Methods: e.Methods,
			Policy:  p,
		})
	}
	for name, mult := range c.Tiers {
		if mult <= 0 {
			return policy.Table{}, fmt.Errorf("rate_limit.tiers.%s: multiplier must be positive", name)
		}
	}
	return table, nil
}

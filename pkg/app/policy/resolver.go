package policy

import (
	"fmt"
	"math"
	"strings"

	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/app/keygen"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/domain/ratelimit"
)

type MatchKind int

const (
	MatchDefault MatchKind = iota
	MatchPrefix
	MatchExact
)

func (k MatchKind) String() string {
	switch k {
	case MatchExact:
		return "exact"
	case MatchPrefix:
		return "prefix"
	default:
		return "default"
	}
}

// Rule binds an endpoint pattern to a policy. A pattern ending in "/*" or
// "/" is a prefix rule, anything else must match the whole path. Segments
// written as {name} or :name match any single segment. Empty Methods means
// every method.
type Rule struct {
	Pattern string
	Methods []string
	Policy  ratelimit.Policy
}

type Table struct {
	Default ratelimit.Policy
	Rules   []Rule
	// Tiers maps a caller tier to a budget multiplier.
	Tiers map[string]float64
}

type Resolution struct {
	Policy     ratelimit.Policy
	Match      MatchKind
	Pattern    string
	Multiplier float64
}

//go:generate mockery --name=Resolver --dir=. --output=./mocks --filename=resolver_mock.go --case=underscore --with-expecter
type Resolver interface {
	Resolve(path, method, tier string) Resolution
}

type segment struct {
	literal string
	param   bool
}

type compiledRule struct {
	pattern  string
	segments []segment
	prefix   bool
	literals int
	methods  map[string]struct{}
	policy   ratelimit.Policy
}

type resolver struct {
	defaultPolicy ratelimit.Policy
	rules         []compiledRule
	tiers         map[string]float64
}

// NewResolver validates every policy in the table up front, so resolving can
// never fail at request time.
func NewResolver(table Table) (Resolver, error) {
	if err := table.Default.Validate(); err != nil {
		return nil, fmt.Errorf("default policy: %w", err)
	}
	r := &resolver{
		defaultPolicy: table.Default,
		tiers:         make(map[string]float64, len(table.Tiers)),
	}
	for name, mult := range table.Tiers {
		if mult <= 0 || math.IsNaN(mult) || math.IsInf(mult, 0) {
			return nil, fmt.Errorf("tier %q: multiplier must be positive, got %v", name, mult)
		}
		r.tiers[strings.ToLower(name)] = mult
	}
	for i, rule := range table.Rules {
		if err := rule.Policy.Validate(); err != nil {
			return nil, fmt.Errorf("endpoint rule %d (%s): %w", i, rule.Pattern, err)
		}
		r.rules = append(r.rules, compile(rule))
	}
	return r, nil
}

func compile(rule Rule) compiledRule {
	pattern := strings.TrimSpace(rule.Pattern)
	c := compiledRule{pattern: pattern, policy: rule.Policy}

	switch {
	case pattern == "*" || pattern == "/*":
		pattern, c.prefix = "/", true
	case strings.HasSuffix(pattern, "/*"):
		pattern, c.prefix = strings.TrimSuffix(pattern, "/*"), true
	case len(pattern) > 1 && strings.HasSuffix(pattern, "/"):
		c.prefix = true
	}

	for _, s := range splitPath(keygen.NormalizePath(pattern)) {
		switch {
		case s == "*",
			strings.HasPrefix(s, ":"),
			strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}"):
			c.segments = append(c.segments, segment{param: true})
		default:
			c.segments = append(c.segments, segment{literal: s})
			c.literals += len(s)
		}
	}

	if len(rule.Methods) > 0 {
		c.methods = make(map[string]struct{}, len(rule.Methods))
		for _, m := range rule.Methods {
			c.methods[strings.ToUpper(strings.TrimSpace(m))] = struct{}{}
		}
	}
	return c
}

func (r *resolver) Resolve(path, method, tier string) Resolution {
	segs := splitPath(keygen.NormalizePath(path))
	method = strings.ToUpper(method)

	var exact, prefix *compiledRule
	for i := range r.rules {
		rule := &r.rules[i]
		if !rule.allows(method) {
			continue
		}
		if !rule.prefix {
			if rule.matchesExact(segs) && (exact == nil || rule.literals > exact.literals) {
				exact = rule
			}
			continue
		}
		if rule.matchesPrefix(segs) && (prefix == nil || rule.outranks(prefix)) {
			prefix = rule
		}
	}

	res := Resolution{Policy: r.defaultPolicy, Match: MatchDefault}
	switch {
	case exact != nil:
		res = Resolution{Policy: exact.policy, Match: MatchExact, Pattern: exact.pattern}
	case prefix != nil:
		res = Resolution{Policy: prefix.policy, Match: MatchPrefix, Pattern: prefix.pattern}
	}

	res.Multiplier = r.multiplier(tier)
	res.Policy = ApplyMultiplier(res.Policy, res.Multiplier)
	return res
}

func (r *resolver) multiplier(tier string) float64 {
	if mult, ok := r.tiers[strings.ToLower(strings.TrimSpace(tier))]; ok {
		return mult
	}
	return 1
}

// ApplyMultiplier scales the policy budget to floor(max*mult), never below 1.
func ApplyMultiplier(p ratelimit.Policy, mult float64) ratelimit.Policy {
	if mult == 1 || p.Limit == nil {
		return p
	}
	n := int(math.Floor(float64(p.Limit.MaxRequests()) * mult))
	if n < 1 {
		n = 1
	}
	return p.WithMaxRequests(n)
}

func (c *compiledRule) allows(method string) bool {
	if c.methods == nil {
		return true
	}
	_, ok := c.methods[method]
	return ok
}

func (c *compiledRule) matchesExact(segs []string) bool {
	return len(segs) == len(c.segments) && c.matchesPrefix(segs)
}

func (c *compiledRule) matchesPrefix(segs []string) bool {
	if len(segs) < len(c.segments) {
		return false
	}
	for i, s := range c.segments {
		if !s.param && s.literal != segs[i] {
			return false
		}
	}
	return true
}

// outranks orders prefix rules: more segments first, then more literal
// characters. Earlier rules win ties.
func (c *compiledRule) outranks(other *compiledRule) bool {
	if len(c.segments) != len(other.segments) {
		return len(c.segments) > len(other.segments)
	}
	return c.literals > other.literals
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

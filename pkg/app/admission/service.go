package admission

import (
	"context"
	"fmt"
	"time"

	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/app/keygen"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/app/policy"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/domain/ratelimit"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/infra/auditlogs"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/infra/limiter"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/infra/load"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/infra/prometheus"
	"github.com/sirupsen/logrus"
)

const (
	StorageKeyPrefix = "rl:"

	outcomeAllowed = "allowed"
	outcomeBlocked = "blocked"
	outcomeError   = "error"
)

// Limiters holds one limiter per algorithm.
type Limiters struct {
	FixedWindow   ratelimit.Limiter
	SlidingWindow ratelimit.Limiter
	TokenBucket   ratelimit.Limiter
}

func (l Limiters) For(a ratelimit.Algorithm) ratelimit.Limiter {
	switch a {
	case ratelimit.AlgorithmSlidingWindow:
		return l.SlidingWindow
	case ratelimit.AlgorithmTokenBucket:
		return l.TokenBucket
	default:
		return l.FixedWindow
	}
}

type Options struct {
	Enabled bool
	// AdaptiveAll applies load shedding to every policy, not only those
	// flagged adaptive.
	AdaptiveAll bool
	Signal      load.Signal
	MinLimit    int
	Now         limiter.Clock
}

// Result carries a decision from Check to Complete.
type Result struct {
	Decision ratelimit.Decision
	Policy   ratelimit.Policy
	Match    policy.MatchKind
	// Enforced is false when limiting is disabled or the check failed open.
	Enforced bool
}

//go:generate mockery --name=Service --dir=. --output=./mocks --filename=service_mock.go --case=underscore --with-expecter
type Service interface {
	Check(ctx context.Context, d ratelimit.Descriptor) Result
	Complete(ctx context.Context, res Result, status int)
}

type service struct {
	resolver  policy.Resolver
	generator keygen.Generator
	limiters  Limiters
	adaptive  Limiters
	events    auditlogs.Service
	logger    *logrus.Logger
	opts      Options
}

func NewService(
	resolver policy.Resolver,
	generator keygen.Generator,
	limiters Limiters,
	events auditlogs.Service,
	logger *logrus.Logger,
	opts Options,
) Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &service{
		resolver:  resolver,
		generator: generator,
		limiters:  limiters,
		events:    events,
		logger:    logger,
		opts:      opts,
	}
	if opts.Signal != nil {
		s.adaptive = Limiters{
			FixedWindow:   limiter.NewAdaptive(limiters.FixedWindow, opts.Signal, opts.MinLimit),
			SlidingWindow: limiter.NewAdaptive(limiters.SlidingWindow, opts.Signal, opts.MinLimit),
			TokenBucket:   limiter.NewAdaptive(limiters.TokenBucket, opts.Signal, opts.MinLimit),
		}
	}
	return s
}

// StorageKey namespaces a subject by policy so two policies never share a
// counter.
func StorageKey(policyName string, subject ratelimit.Key) ratelimit.Key {
	return ratelimit.Key(StorageKeyPrefix + policyName + ":" + string(subject))
}

func (s *service) Check(ctx context.Context, d ratelimit.Descriptor) (res Result) {
	if !s.opts.Enabled {
		return Result{}
	}
	start := time.Now()
	var key ratelimit.Key
	defer func() {
		if r := recover(); r != nil {
			res = s.failOpen(res, key, fmt.Errorf("admission check panicked: %v", r))
		}
	}()

	resolution := s.resolver.Resolve(d.Path, d.Method, d.Tier)
	res = Result{Policy: resolution.Policy, Match: resolution.Match}
	key = StorageKey(res.Policy.Name, s.generator.Generate(d, res.Policy.KeyStrategy))

	decision, err := s.limiterFor(res.Policy).Check(ctx, key, res.Policy)
	prometheus.RateLimitCheckLatency.WithLabelValues(res.Policy.Algorithm().String()).
		Observe(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		return s.failOpen(res, key, err)
	}

	res.Decision = decision
	res.Enforced = true
	if decision.Blocked {
		s.recordDecision(res.Policy, outcomeBlocked)
		s.emitBlocked(ctx, d, res)
		return res
	}
	s.recordDecision(res.Policy, outcomeAllowed)
	return res
}

// Complete refunds an admitted request when its policy skips the final
// status.
func (s *service) Complete(ctx context.Context, res Result, status int) {
	if !res.Enforced || res.Decision.Blocked || !res.Decision.Counted {
		return
	}
	if !res.Policy.Skips(status) {
		return
	}
	if err := s.limiters.For(res.Decision.Algorithm).Refund(ctx, res.Decision); err != nil {
		s.logger.WithFields(logrus.Fields{
			"policy": res.Policy.Name,
			"key":    string(res.Decision.Key),
			"status": status,
		}).WithError(err).Warn("failed to refund rate limit budget")
	}
}

func (s *service) limiterFor(p ratelimit.Policy) ratelimit.Limiter {
	if s.opts.Signal != nil && (p.Adaptive || s.opts.AdaptiveAll) {
		return s.adaptive.For(p.Algorithm())
	}
	return s.limiters.For(p.Algorithm())
}

func (s *service) failOpen(res Result, key ratelimit.Key, err error) Result {
	s.logger.WithFields(logrus.Fields{
		"policy":    res.Policy.Name,
		"algorithm": res.Policy.Algorithm().String(),
		"key":       string(key),
	}).WithError(err).Error("rate limit check failed, allowing request")
	s.recordDecision(res.Policy, outcomeError)

	limit := 0
	if res.Policy.Limit != nil {
		limit = res.Policy.Limit.MaxRequests()
	}
	res.Enforced = false
	res.Decision = ratelimit.Decision{
		Limit:     limit,
		Remaining: limit,
		ResetTime: s.opts.Now(),
		Algorithm: res.Policy.Algorithm(),
		Key:       key,
		Policy:    res.Policy.Name,
	}
	return res
}

func (s *service) recordDecision(p ratelimit.Policy, outcome string) {
	prometheus.RateLimitDecisions.WithLabelValues(p.Name, p.Algorithm().String(), outcome).Inc()
}

func (s *service) emitBlocked(ctx context.Context, d ratelimit.Descriptor, res Result) {
	if s.events == nil {
		return
	}
	s.events.Emit(ctx, auditlogs.Event{
		Event: auditlogs.EventInfo{
			Type:        auditlogs.EventTypeRateLimitBlocked,
			Description: fmt.Sprintf("rate limit exceeded for policy %s", res.Policy.Name),
			Status:      auditlogs.StatusBlocked,
		},
		Target: auditlogs.Target{
			Type: auditlogs.TargetTypeRateLimitKey,
			ID:   string(res.Decision.Key),
			Name: res.Policy.Name,
		},
		Context: auditlogs.Context{
			IPAddress: s.generator.ClientIP(d),
			UserAgent: d.Header("User-Agent"),
			CallerID:  d.CallerID,
			Tier:      d.Tier,
			Method:    d.Method,
			Path:      d.Path,
			RequestID: d.Header("X-Request-ID"),
		},
	})
}

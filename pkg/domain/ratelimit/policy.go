package ratelimit

import "fmt"

type KeyStrategy string

const (
	KeyByIP        KeyStrategy = "ip"
	KeyByUser      KeyStrategy = "user"
	KeyByEndpoint  KeyStrategy = "endpoint"
	KeyByComposite KeyStrategy = "composite"
)

func (s KeyStrategy) Valid() bool {
	switch s {
	case "", KeyByIP, KeyByUser, KeyByEndpoint, KeyByComposite:
		return true
	}
	return false
}

// Policy is the resolved admission configuration for one request.
// Treat it as immutable once returned by the resolver.
type Policy struct {
	Name                   string
	Limit                  Limit
	KeyStrategy            KeyStrategy
	SkipSuccessfulRequests bool
	SkipFailedRequests     bool
	Adaptive               bool
}

func (p Policy) Algorithm() Algorithm {
	if p.Limit == nil {
		return AlgorithmFixedWindow
	}
	return p.Limit.Algorithm()
}

func (p Policy) Validate() error {
	if p.Limit == nil {
		return fmt.Errorf("%w %q: missing limit", ErrInvalidPolicy, p.Name)
	}
	if err := p.Limit.Validate(); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidPolicy, p.Name, err)
	}
	if !p.KeyStrategy.Valid() {
		return fmt.Errorf("%w %q: unknown key strategy %q", ErrInvalidPolicy, p.Name, p.KeyStrategy)
	}
	return nil
}

// WithMaxRequests returns a copy of the policy with its limit rescaled.
func (p Policy) WithMaxRequests(n int) Policy {
	if p.Limit != nil {
		p.Limit = p.Limit.WithMaxRequests(n)
	}
	return p
}

// Skips reports whether a request that finished with status should be
// excluded from the count.
func (p Policy) Skips(status int) bool {
	if status < 400 {
		return p.SkipSuccessfulRequests
	}
	return p.SkipFailedRequests
}

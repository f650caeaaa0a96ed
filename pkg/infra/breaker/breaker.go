package breaker

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

const (
	DefaultMaxFailures = 5
	DefaultOpenTimeout = 10 * time.Second
)

// CircuitBreaker short-circuits calls to the shared store once it keeps
// failing, so an outage costs one local fallback per request instead of one
// timeout per request.
type CircuitBreaker interface {
	Execute(fn func() error) error
	State() string
}

type circuitBreakerWrapper struct {
	breaker *gobreaker.CircuitBreaker
}

// NewCircuitBreaker opens after maxFailures consecutive failures and lets a
// single trial call through after timeout. Zero values fall back to
// DefaultMaxFailures and DefaultOpenTimeout. logger may be nil.
func NewCircuitBreaker(name string, timeout time.Duration, maxFailures uint32, logger *logrus.Logger) CircuitBreaker {
	return &circuitBreakerWrapper{
		breaker: gobreaker.NewCircuitBreaker(newSettings(name, timeout, maxFailures, logger)),
	}
}

func newSettings(name string, timeout time.Duration, maxFailures uint32, logger *logrus.Logger) gobreaker.Settings {
	if maxFailures == 0 {
		maxFailures = DefaultMaxFailures
	}
	if timeout <= 0 {
		timeout = DefaultOpenTimeout
	}
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
	}
	if logger != nil {
		settings.OnStateChange = func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		}
	}
	return settings
}

func (g *circuitBreakerWrapper) Execute(fn func() error) error {
	_, err := g.breaker.Execute(func() (res interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic recovered: %v", r)
			}
		}()
		return nil, fn()
	})
	if err != nil {
		return fmt.Errorf("breaker (%s): %w", g.breaker.Name(), err)
	}
	return nil
}

func (g *circuitBreakerWrapper) State() string {
	return g.breaker.State().String()
}

// IsOpen reports whether err was returned without calling the protected
// function.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

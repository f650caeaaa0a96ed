package distributed

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/domain/ratelimit"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/infra/breaker"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultTimeout   = 50 * time.Millisecond
	DefaultKeyPrefix = "gate:"

	logKeySuffix = ":log"
)

// Increment is the shared counter state after an atomic increment.
type Increment struct {
	Count int64
	TTL   time.Duration
}

// Backend talks to the shared counter store. Every method reports ok=false
// instead of an error; callers decide locally when the store is unavailable.
//
//go:generate mockery --name=Backend --dir=. --output=./mocks --filename=backend_mock.go --case=underscore --with-expecter
type Backend interface {
	TryAtomicIncrement(ctx context.Context, key ratelimit.Key, window time.Duration, ceiling int64) (Increment, bool)
	TryDecrement(ctx context.Context, key ratelimit.Key) bool
	TryAtomicRecord(ctx context.Context, key ratelimit.Key, window time.Duration, limit int, now time.Time) (ratelimit.LogResult, bool)
	TryRemove(ctx context.Context, key ratelimit.Key, receipt string) bool
}

type Options struct {
	Timeout   time.Duration
	KeyPrefix string
	Breaker   breaker.CircuitBreaker
	// NewMember generates sorted-set member ids; defaults to uuid v4.
	NewMember func() string
}

type redisBackend struct {
	client    redis.UniversalClient
	logger    *logrus.Logger
	timeout   time.Duration
	prefix    string
	breaker   breaker.CircuitBreaker
	newMember func() string
}

func NewRedisBackend(client redis.UniversalClient, logger *logrus.Logger, opts Options) Backend {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.NewMember == nil {
		opts.NewMember = func() string { return uuid.New().String() }
	}
	return &redisBackend{
		client:    client,
		logger:    logger,
		timeout:   opts.Timeout,
		prefix:    opts.KeyPrefix,
		breaker:   opts.Breaker,
		newMember: opts.NewMember,
	}
}

func (b *redisBackend) TryAtomicIncrement(
	ctx context.Context,
	key ratelimit.Key,
	window time.Duration,
	ceiling int64,
) (Increment, bool) {
	var inc Increment
	err := b.call(ctx, "increment", key, func(ctx context.Context) error {
		res, err := incrementScript.Run(ctx, b.client, []string{b.counterKey(key)},
			window.Milliseconds(), ceiling).Result()
		if err != nil {
			return err
		}
		vals, err := int64Slice(res, 2)
		if err != nil {
			return err
		}
		inc = Increment{Count: vals[0], TTL: time.Duration(vals[1]) * time.Millisecond}
		return nil
	})
	return inc, err == nil
}

func (b *redisBackend) TryDecrement(ctx context.Context, key ratelimit.Key) bool {
	err := b.call(ctx, "decrement", key, func(ctx context.Context) error {
		return decrementScript.Run(ctx, b.client, []string{b.counterKey(key)}).Err()
	})
	return err == nil
}

func (b *redisBackend) TryAtomicRecord(
	ctx context.Context,
	key ratelimit.Key,
	window time.Duration,
	limit int,
	now time.Time,
) (ratelimit.LogResult, bool) {
	var out ratelimit.LogResult
	member := b.newMember()
	err := b.call(ctx, "record", key, func(ctx context.Context) error {
		res, err := recordScript.Run(ctx, b.client, []string{b.logKey(key)},
			now.UnixMilli(), window.Milliseconds(), int64(limit), member).Result()
		if err != nil {
			return err
		}
		vals, err := int64Slice(res, 3)
		if err != nil {
			return err
		}
		out.Count = int(vals[0])
		out.Allowed = vals[1] == 1
		if vals[2] >= 0 {
			out.Oldest = time.UnixMilli(vals[2])
		}
		if out.Allowed {
			out.Receipt = member
		}
		return nil
	})
	return out, err == nil
}

func (b *redisBackend) TryRemove(ctx context.Context, key ratelimit.Key, receipt string) bool {
	err := b.call(ctx, "remove", key, func(ctx context.Context) error {
		return b.client.ZRem(ctx, b.logKey(key), receipt).Err()
	})
	return err == nil
}

func (b *redisBackend) call(ctx context.Context, op string, key ratelimit.Key, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	run := func() error { return fn(ctx) }
	var err error
	if b.breaker != nil {
		err = b.breaker.Execute(run)
	} else {
		err = run()
	}
	if err == nil {
		return nil
	}

	entry := b.logger.WithFields(logrus.Fields{
		"operation": op,
		"key":       string(key),
	}).WithError(err)
	if breaker.IsOpen(err) {
		entry.Debug("shared counter store skipped, breaker open")
	} else {
		entry.Warn("shared counter store call failed")
	}
	return err
}

func (b *redisBackend) counterKey(key ratelimit.Key) string {
	return b.prefix + string(key)
}

func (b *redisBackend) logKey(key ratelimit.Key) string {
	return b.prefix + string(key) + logKeySuffix
}

func int64Slice(res interface{}, n int) ([]int64, error) {
	raw, ok := res.([]interface{})
	if !ok || len(raw) != n {
		return nil, fmt.Errorf("unexpected script reply %v", res)
	}
	out := make([]int64, n)
	for i, v := range raw {
		switch x := v.(type) {
		case int64:
			out[i] = x
		case string:
			parsed, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("unexpected script reply element %q: %w", x, err)
			}
			out[i] = parsed
		default:
			return nil, errors.New("unexpected script reply element type")
		}
	}
	return out, nil
}

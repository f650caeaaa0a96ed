package limiter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/domain/ratelimit"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/infra/counter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bucketPolicy(capacity, rate float64) ratelimit.Policy {
	return ratelimit.Policy{
		Name:  "bucket",
		Limit: ratelimit.TokenBucketLimit{Capacity: capacity, RefillRate: rate},
	}
}

func TestTokenBucket_BurstThenRefill(t *testing.T) {
	clock := newFakeClock()
	l := NewTokenBucket(counter.NewMemoryStore(), clock.Now)
	ctx := context.Background()
	policy := bucketPolicy(10, 1)

	for i := 0; i < 10; i++ {
		d, err := l.Check(ctx, "k", policy)
		require.NoError(t, err)
		assert.False(t, d.Blocked, "request %d", i+1)
	}
	d, err := l.Check(ctx, "k", policy)
	require.NoError(t, err)
	assert.True(t, d.Blocked)
	assert.Equal(t, time.Second, d.RetryAfter)
	assert.Equal(t, clock.Now().Add(time.Second), d.ResetTime)

	clock.Advance(5 * time.Second)
	for i := 0; i < 5; i++ {
		d, err := l.Check(ctx, "k", policy)
		require.NoError(t, err)
		assert.False(t, d.Blocked, "refilled request %d", i+1)
	}
	d, err = l.Check(ctx, "k", policy)
	require.NoError(t, err)
	assert.True(t, d.Blocked)
}

func TestTokenBucket_TokensStayInRange(t *testing.T) {
	clock := newFakeClock()
	store := counter.NewMemoryStore()
	l := NewTokenBucket(store, clock.Now)
	policy := bucketPolicy(3, 2)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = l.Check(context.Background(), "k", policy)
		}()
	}
	wg.Wait()

	check := func(b *ratelimit.TokenBucket, _ bool) {
		assert.GreaterOrEqual(t, b.Tokens, 0.0)
		assert.LessOrEqual(t, b.Tokens, b.Capacity)
	}
	store.UpdateBucket("k", check)

	clock.Advance(time.Hour)
	_, _ = l.Check(context.Background(), "k", policy)
	b := store.UpdateBucket("k", check)
	assert.Equal(t, 2.0, b.Tokens)
}

func TestTokenBucket_ShrinkingCapacityClampsTokens(t *testing.T) {
	clock := newFakeClock()
	store := counter.NewMemoryStore()
	l := NewTokenBucket(store, clock.Now)

	_, err := l.Check(context.Background(), "k", bucketPolicy(10, 1))
	require.NoError(t, err)

	d, err := l.Check(context.Background(), "k", bucketPolicy(4, 1))
	require.NoError(t, err)
	assert.False(t, d.Blocked)
	assert.Equal(t, 3, d.Remaining)
	assert.Equal(t, 4, d.Limit)
}

func TestTokenBucket_Refund(t *testing.T) {
	clock := newFakeClock()
	l := NewTokenBucket(counter.NewMemoryStore(), clock.Now)
	ctx := context.Background()
	policy := bucketPolicy(1, 0.001)

	d, _ := l.Check(ctx, "k", policy)
	require.False(t, d.Blocked)
	require.NoError(t, l.Refund(ctx, d))

	d, _ = l.Check(ctx, "k", policy)
	assert.False(t, d.Blocked)
	d, _ = l.Check(ctx, "k", policy)
	assert.True(t, d.Blocked)
}

func TestTokenBucket_InvalidLimit(t *testing.T) {
	l := NewTokenBucket(counter.NewMemoryStore(), nil)
	_, err := l.Check(context.Background(), "k", bucketPolicy(0, 1))
	assert.ErrorIs(t, err, ratelimit.ErrInvalidCapacity)
	_, err = l.Check(context.Background(), "k", bucketPolicy(1, 0))
	assert.ErrorIs(t, err, ratelimit.ErrInvalidRefillRate)
}

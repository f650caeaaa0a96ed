package counter

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/domain/ratelimit"
	"github.com/cespare/xxhash/v2"
)

const shardCount = 256

type shard struct {
	mu      sync.Mutex
	windows map[ratelimit.Key]*ratelimit.WindowEntry
	buckets map[ratelimit.Key]*ratelimit.TokenBucket
	logs    map[ratelimit.Key]*slidingLog
}

// MemoryStore is the in-process counter store. Keys are spread over sharded
// locks, so a check only ever contends with keys hashing to the same shard.
// Only the limiters and the janitor touch it.
type MemoryStore struct {
	shards [shardCount]*shard
}

type SweepStats struct {
	Windows int
	Buckets int
	Logs    int
}

func (s SweepStats) Total() int {
	return s.Windows + s.Buckets + s.Logs
}

type Sizes struct {
	Windows int
	Buckets int
	Logs    int
}

var (
	_ ratelimit.WindowCounter = (*MemoryStore)(nil)
	_ ratelimit.LogRecorder   = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	for i := range s.shards {
		s.shards[i] = &shard{
			windows: make(map[ratelimit.Key]*ratelimit.WindowEntry),
			buckets: make(map[ratelimit.Key]*ratelimit.TokenBucket),
			logs:    make(map[ratelimit.Key]*slidingLog),
		}
	}
	return s
}

func (s *MemoryStore) shardFor(key ratelimit.Key) *shard {
	return s.shards[xxhash.Sum64String(string(key))%shardCount]
}

// Increment starts a new window when none is live, then counts the request
// unless the window already holds ceiling requests (ceiling <= 0 disables
// the cap).
func (s *MemoryStore) Increment(
	_ context.Context,
	key ratelimit.Key,
	window time.Duration,
	ceiling int64,
	now time.Time,
) (ratelimit.WindowEntry, bool, error) {
	if window <= 0 {
		return ratelimit.WindowEntry{}, false, ratelimit.ErrInvalidWindow
	}
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	entry, ok := sh.windows[key]
	if !ok || entry.Expired(now) {
		entry = &ratelimit.WindowEntry{
			WindowStart: now,
			ResetTime:   now.Add(window),
		}
		sh.windows[key] = entry
	}
	if ceiling <= 0 || entry.Count < ceiling {
		entry.Count++
	}
	return *entry, false, nil
}

// Decrement returns one request to the window that started at windowStart.
// A rolled-over window is left alone.
func (s *MemoryStore) Decrement(_ context.Context, key ratelimit.Key, windowStart time.Time) error {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	entry, ok := sh.windows[key]
	if !ok || !entry.WindowStart.Equal(windowStart) || entry.Count == 0 {
		return nil
	}
	entry.Count--
	return nil
}

// Window returns a copy of the live window for key.
func (s *MemoryStore) Window(key ratelimit.Key) (ratelimit.WindowEntry, bool) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	entry, ok := sh.windows[key]
	if !ok {
		return ratelimit.WindowEntry{}, false
	}
	return *entry, true
}

func (s *MemoryStore) Record(
	_ context.Context,
	key ratelimit.Key,
	window time.Duration,
	limit int,
	now time.Time,
) (ratelimit.LogResult, bool, error) {
	if window <= 0 {
		return ratelimit.LogResult{}, false, ratelimit.ErrInvalidWindow
	}
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	log, ok := sh.logs[key]
	if !ok {
		log = newSlidingLog(window)
		sh.logs[key] = log
	}
	log.window = window
	log.evict(now.Add(-window).UnixNano())

	var res ratelimit.LogResult
	if log.len() < limit {
		ts := now.UnixNano()
		log.insert(ts)
		res.Allowed = true
		res.Receipt = strconv.FormatInt(ts, 10)
	}
	res.Count = log.len()
	if oldest, ok := log.oldest(); ok {
		res.Oldest = time.Unix(0, oldest)
	}
	return res, false, nil
}

func (s *MemoryStore) Remove(_ context.Context, key ratelimit.Key, receipt string) error {
	ts, err := strconv.ParseInt(receipt, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid sliding log receipt %q: %w", receipt, err)
	}
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if log, ok := sh.logs[key]; ok {
		log.remove(ts)
	}
	return nil
}

// UpdateBucket runs fn on the bucket for key while holding the key's lock.
// exists is false for a cold bucket, which fn is expected to initialise.
func (s *MemoryStore) UpdateBucket(key ratelimit.Key, fn func(b *ratelimit.TokenBucket, exists bool)) ratelimit.TokenBucket {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	bucket, ok := sh.buckets[key]
	if !ok {
		bucket = &ratelimit.TokenBucket{}
		sh.buckets[key] = bucket
	}
	fn(bucket, ok)
	return *bucket
}

// Sweep removes windows past their reset time, buckets untouched for longer
// than bucketRetention and sliding logs with no live entries. It locks one
// shard at a time.
func (s *MemoryStore) Sweep(now time.Time, bucketRetention time.Duration) SweepStats {
	var stats SweepStats
	for _, sh := range s.shards {
		sh.mu.Lock()
		for key, entry := range sh.windows {
			if entry.Expired(now) {
				delete(sh.windows, key)
				stats.Windows++
			}
		}
		for key, bucket := range sh.buckets {
			if now.Sub(bucket.LastRefill) > bucketRetention {
				delete(sh.buckets, key)
				stats.Buckets++
			}
		}
		for key, log := range sh.logs {
			newest, ok := log.newest()
			if !ok || newest < now.Add(-log.window).UnixNano() {
				delete(sh.logs, key)
				stats.Logs++
			}
		}
		sh.mu.Unlock()
	}
	return stats
}

func (s *MemoryStore) Len() Sizes {
	var sizes Sizes
	for _, sh := range s.shards {
		sh.mu.Lock()
		sizes.Windows += len(sh.windows)
		sizes.Buckets += len(sh.buckets)
		sizes.Logs += len(sh.logs)
		sh.mu.Unlock()
	}
	return sizes
}

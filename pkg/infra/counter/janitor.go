package counter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/infra/auditlogs"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/infra/prometheus"
	"github.com/sirupsen/logrus"
)

const (
	DefaultCleanupInterval = time.Minute
	DefaultBucketRetention = time.Hour
)

// Sweeper is the part of the store the janitor drives.
type Sweeper interface {
	Sweep(now time.Time, bucketRetention time.Duration) SweepStats
	Len() Sizes
}

type JanitorOptions struct {
	Interval        time.Duration
	BucketRetention time.Duration
	Now             func() time.Time
}

type Janitor interface {
	Start(ctx context.Context)
	Stop()
	RunOnce() (SweepStats, error)
}

type janitor struct {
	sweeper Sweeper
	logger  *logrus.Logger
	events  auditlogs.Service
	opts    JanitorOptions

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewJanitor(sweeper Sweeper, logger *logrus.Logger, events auditlogs.Service, opts JanitorOptions) Janitor {
	if opts.Interval <= 0 {
		opts.Interval = DefaultCleanupInterval
	}
	if opts.BucketRetention <= 0 {
		opts.BucketRetention = DefaultBucketRetention
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &janitor{
		sweeper: sweeper,
		logger:  logger,
		events:  events,
		opts:    opts,
	}
}

// Start launches the sweep loop. Calling Start on a running janitor is a
// no-op.
func (j *janitor) Start(ctx context.Context) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.done = make(chan struct{})

	j.logger.WithFields(logrus.Fields{
		"interval":         j.opts.Interval.String(),
		"bucket_retention": j.opts.BucketRetention.String(),
	}).Info("starting rate limit cleanup task")

	go j.loop(ctx, j.done)
}

func (j *janitor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(j.opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := j.RunOnce(); err != nil {
				j.logger.WithError(err).Error("rate limit cleanup failed, retrying on next tick")
			}
		}
	}
}

// Stop cancels the loop and waits for an in-flight sweep to finish.
func (j *janitor) Stop() {
	j.mu.Lock()
	cancel, done := j.cancel, j.done
	j.cancel, j.done = nil, nil
	j.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	j.logger.Info("rate limit cleanup task stopped")
}

// RunOnce performs one sweep. A panic inside the store is reported as an
// error and a cleanup_failed event instead of killing the loop.
func (j *janitor) RunOnce() (stats SweepStats, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sweep panicked: %v", r)
			j.events.Emit(context.Background(), auditlogs.Event{
				Event: auditlogs.EventInfo{
					Type:         auditlogs.EventTypeCleanupFailed,
					Description:  "rate limit cleanup sweep failed",
					Status:       auditlogs.StatusFailed,
					ErrorMessage: err.Error(),
				},
				Target: auditlogs.Target{
					Type: auditlogs.TargetTypeCounterStore,
					ID:   "memory",
				},
			})
		}
	}()

	stats = j.sweeper.Sweep(j.opts.Now(), j.opts.BucketRetention)

	prometheus.RateLimitCleanupRemoved.WithLabelValues("window").Add(float64(stats.Windows))
	prometheus.RateLimitCleanupRemoved.WithLabelValues("bucket").Add(float64(stats.Buckets))
	prometheus.RateLimitCleanupRemoved.WithLabelValues("log").Add(float64(stats.Logs))

	sizes := j.sweeper.Len()
	prometheus.RateLimitStoreEntries.WithLabelValues("window").Set(float64(sizes.Windows))
	prometheus.RateLimitStoreEntries.WithLabelValues("bucket").Set(float64(sizes.Buckets))
	prometheus.RateLimitStoreEntries.WithLabelValues("log").Set(float64(sizes.Logs))

	if stats.Total() > 0 {
		j.logger.WithFields(logrus.Fields{
			"windows": stats.Windows,
			"buckets": stats.Buckets,
			"logs":    stats.Logs,
		}).Debug("rate limit cleanup removed stale entries")
	}
	return stats, nil
}

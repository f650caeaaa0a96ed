package distributed

import (
	"context"
	"fmt"
	"time"

	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/domain/ratelimit"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/infra/auditlogs"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/infra/prometheus"
	"github.com/sirupsen/logrus"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// CheckStore pings the shared store once at startup. An unreachable store is
// logged, counted and reported as degraded; the returned error wraps
// ratelimit.ErrStoreUnavailable and is informational only. Requests keep
// being served from the local store until the store answers again.
func CheckStore(ctx context.Context, store Pinger, timeout time.Duration, logger *logrus.Logger, events auditlogs.Service) error {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := store.Ping(pingCtx)
	if err == nil {
		return nil
	}

	logger.WithError(err).Warn("shared counter store unreachable at startup, deciding locally until it recovers")
	prometheus.RateLimitDegraded.WithLabelValues("startup").Inc()
	if events != nil {
		events.Emit(ctx, auditlogs.Event{
			Event: auditlogs.EventInfo{
				Type:         auditlogs.EventTypeDegradedMode,
				Description:  "shared counter store unreachable at startup",
				Status:       auditlogs.StatusDegraded,
				ErrorMessage: err.Error(),
			},
			Target: auditlogs.Target{
				Type: auditlogs.TargetTypeCounterStore,
				ID:   "shared-counter-store",
				Name: "startup",
			},
		})
	}
	return fmt.Errorf("%w: %w", ratelimit.ErrStoreUnavailable, err)
}

package middleware

import (
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/infra/load"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/infra/prometheus"
	"github.com/gofiber/fiber/v2"
)

type loadMiddleware struct {
	tracker *load.InflightTracker
}

// NewLoadMiddleware counts requests in flight; the tracker doubles as the
// load signal of adaptive policies.
func NewLoadMiddleware(tracker *load.InflightTracker) Middleware {
	return &loadMiddleware{tracker: tracker}
}

func (m *loadMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		m.tracker.Acquire()
		prometheus.InflightRequests.Set(float64(m.tracker.Current()))
		defer func() {
			m.tracker.Release()
			prometheus.InflightRequests.Set(float64(m.tracker.Current()))
		}()
		return c.Next()
	}
}

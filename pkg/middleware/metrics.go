package middleware

import (
	"errors"
	"fmt"

	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/infra/prometheus"
	"github.com/gofiber/fiber/v2"
)

type metricsMiddleware struct {
	enabled bool
}

func NewMetricsMiddleware(enabled bool) Middleware {
	return &metricsMiddleware{enabled: enabled}
}

func (m *metricsMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !m.enabled {
			return c.Next()
		}
		err := c.Next()
		prometheus.RequestTotal.WithLabelValues(c.Method(), statusClass(responseStatus(c, err))).Inc()
		return err
	}
}

// responseStatus is the status the client will see once the error handler
// has run.
func responseStatus(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}

func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "5xx"
	}
	return fmt.Sprintf("%dxx", code/100)
}

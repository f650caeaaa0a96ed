package middleware

import "github.com/gofiber/fiber/v2"

type Middleware interface {
	Middleware() fiber.Handler
}

// Transport lists the middlewares of the proxy surface, in the order the
// server mounts them.
type Transport struct {
	PanicRecoverMiddleware Middleware
	MetricsMiddleware      Middleware
	LoadMiddleware         Middleware
	IdentityMiddleware     Middleware
	RateLimitMiddleware    Middleware
}

// Handlers returns the configured middlewares in mount order, skipping the
// ones left nil.
func (t Transport) Handlers() []fiber.Handler {
	ordered := []Middleware{
		t.PanicRecoverMiddleware,
		t.MetricsMiddleware,
		t.LoadMiddleware,
		t.IdentityMiddleware,
		t.RateLimitMiddleware,
	}
	handlers := make([]fiber.Handler, 0, len(ordered))
	for _, m := range ordered {
		if m == nil {
			continue
		}
		handlers = append(handlers, m.Middleware())
	}
	return handlers
}

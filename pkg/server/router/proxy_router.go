package router

import (
	"net/http"
	"time"

	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/common"
	handlers "github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/handlers/http"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/middleware"
	"github.com/gofiber/fiber/v2"
)

const (
	VersionPath       = "/__/version"
	ResolvePolicyPath = "/__/rate-limit/resolve"
)

type proxyRouter struct {
	middlewareTransport *middleware.Transport
	handlerTransport    handlers.HandlerTransport
}

func NewProxyRouter(
	middlewareTransport *middleware.Transport,
	handlerTransport handlers.HandlerTransport,
) ServerRouter {
	return &proxyRouter{
		middlewareTransport: middlewareTransport,
		handlerTransport:    handlerTransport,
	}
}

// BuildRoutes registers the system routes ahead of the middleware chain, so
// they are never counted, then sends every other request through the chain
// to the upstream.
func (r *proxyRouter) BuildRoutes(router *fiber.App) error {
	if r.handlerTransport.ForwardedHandler == nil {
		return ErrInvalidHandlerTransport
	}

	router.Get(common.HealthPath, func(ctx *fiber.Ctx) error {
		return ctx.Status(http.StatusOK).JSON(fiber.Map{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	router.Get(common.PingPath, func(ctx *fiber.Ctx) error {
		return ctx.Status(http.StatusOK).JSON(fiber.Map{
			"message": "pong",
		})
	})

	if r.handlerTransport.GetVersionHandler != nil {
		router.Get(VersionPath, r.handlerTransport.GetVersionHandler.Handle)
	}
	if r.handlerTransport.ResolvePolicyHandler != nil {
		router.Get(ResolvePolicyPath, r.handlerTransport.ResolvePolicyHandler.Handle)
	}

	if r.middlewareTransport != nil {
		for _, h := range r.middlewareTransport.Handlers() {
			router.Use(h)
		}
	}
	router.Use(r.handlerTransport.ForwardedHandler.Handle)
	return nil
}

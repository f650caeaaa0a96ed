package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	handlers "github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/handlers/http"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handlerFunc func(c *fiber.Ctx) error

func (f handlerFunc) Handle(c *fiber.Ctx) error { return f(c) }

type countingMiddleware struct {
	calls *int
}

func (m countingMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		*m.calls++
		return c.Next()
	}
}

func TestProxyRouter_SystemRoutesSkipMiddlewares(t *testing.T) {
	var calls int
	transport := &middleware.Transport{RateLimitMiddleware: countingMiddleware{calls: &calls}}
	app := fiber.New()
	err := NewProxyRouter(transport, handlers.HandlerTransport{
		ForwardedHandler: handlerFunc(func(c *fiber.Ctx) error {
			return c.Status(http.StatusAccepted).SendString("forwarded")
		}),
		GetVersionHandler: handlerFunc(func(c *fiber.Ctx) error { return c.SendString("v") }),
	}).BuildRoutes(app)
	require.NoError(t, err)

	for _, path := range []string{"/health", "/__/ping", VersionPath} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
	assert.Equal(t, 0, calls)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, 1, calls)
}

func TestProxyRouter_RequiresForwardedHandler(t *testing.T) {
	err := NewProxyRouter(&middleware.Transport{}, handlers.HandlerTransport{}).BuildRoutes(fiber.New())
	assert.ErrorIs(t, err, ErrInvalidHandlerTransport)
}

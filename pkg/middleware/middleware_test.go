package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/infra/load"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeJSON(resp *http.Response, v interface{}) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

type orderMiddleware struct {
	name  string
	trace *[]string
}

func (m orderMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		*m.trace = append(*m.trace, m.name)
		return c.Next()
	}
}

func TestTransport_HandlersKeepMountOrder(t *testing.T) {
	var trace []string
	transport := Transport{
		PanicRecoverMiddleware: orderMiddleware{name: "recover", trace: &trace},
		LoadMiddleware:         orderMiddleware{name: "load", trace: &trace},
		RateLimitMiddleware:    orderMiddleware{name: "ratelimit", trace: &trace},
	}

	app := fiber.New()
	for _, h := range transport.Handlers() {
		app.Use(h)
	}
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusNoContent) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, []string{"recover", "load", "ratelimit"}, trace)
}

func TestLoadMiddleware_TracksInflight(t *testing.T) {
	tracker := load.NewInflightTracker(4)
	var seen int
	var seenLoad float64

	app := fiber.New()
	app.Use(NewLoadMiddleware(tracker).Middleware())
	app.Get("/", func(c *fiber.Ctx) error {
		seen = tracker.Current()
		seenLoad = tracker.Load()
		return c.SendStatus(http.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, seen)
	assert.InDelta(t, 0.25, seenLoad, 1e-9)
	assert.Equal(t, 0, tracker.Current())
}

func TestPanicRecoverMiddleware(t *testing.T) {
	logger, hook := test.NewNullLogger()
	app := fiber.New()
	app.Use(NewPanicRecoverMiddleware(logger).Middleware())
	app.Get("/boom", func(c *fiber.Ctx) error { panic("boom") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "/boom", entry.Data["path"])
}

func TestResponseStatus(t *testing.T) {
	app := fiber.New()
	var statuses []int
	app.Use(func(c *fiber.Ctx) error {
		err := c.Next()
		statuses = append(statuses, responseStatus(c, err))
		return err
	})
	app.Get("/fiber-error", func(c *fiber.Ctx) error { return fiber.NewError(http.StatusBadGateway, "upstream") })
	app.Get("/plain-error", func(c *fiber.Ctx) error { return errors.New("plain") })
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusAccepted) })

	for _, path := range []string{"/fiber-error", "/plain-error", "/ok"} {
		_, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
	}
	assert.Equal(t, []int{http.StatusBadGateway, http.StatusInternalServerError, http.StatusAccepted}, statuses)
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(204))
	assert.Equal(t, "4xx", statusClass(429))
	assert.Equal(t, "5xx", statusClass(503))
	assert.Equal(t, "5xx", statusClass(0))
}

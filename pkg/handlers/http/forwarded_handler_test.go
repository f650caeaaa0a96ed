package http

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

func startUpstream(t *testing.T, handler fasthttp.RequestHandler) *fasthttp.Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: handler}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() {
		_ = srv.Shutdown()
		_ = ln.Close()
	})
	return &fasthttp.Client{
		Dial: func(addr string) (net.Conn, error) { return ln.Dial() },
	}
}

func TestForwardedHandler_RelaysRequestAndResponse(t *testing.T) {
	var (
		gotURI     string
		gotMethod  string
		gotBody    string
		gotXFF     string
		gotVia     string
		gotUpgrade string
	)
	client := startUpstream(t, func(ctx *fasthttp.RequestCtx) {
		gotURI = string(ctx.RequestURI())
		gotMethod = string(ctx.Method())
		gotBody = string(ctx.PostBody())
		gotXFF = string(ctx.Request.Header.Peek(fiber.HeaderXForwardedFor))
		gotVia = string(ctx.Request.Header.Peek(fiber.HeaderVia))
		gotUpgrade = string(ctx.Request.Header.Peek("Upgrade"))
		ctx.Response.Header.Set("X-Upstream", "yes")
		ctx.SetStatusCode(fasthttp.StatusCreated)
		ctx.SetBodyString(`{"id":1}`)
	})

	logger, _ := test.NewNullLogger()
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-RateLimit-Limit", "10")
		return c.Next()
	})
	app.Use(NewForwardedHandler(logger, "http://backend.internal/", time.Second, client).Handle)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders?page=2", strings.NewReader("payload"))
	req.Header.Set(fiber.HeaderXForwardedFor, "198.51.100.1")
	req.Header.Set("Upgrade", "h2c")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "yes", resp.Header.Get("X-Upstream"))
	assert.Equal(t, "10", resp.Header.Get("X-RateLimit-Limit"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"id":1}`, string(body))

	assert.Equal(t, "/api/v1/orders?page=2", gotURI)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "payload", gotBody)
	assert.True(t, strings.HasPrefix(gotXFF, "198.51.100.1, "))
	assert.Contains(t, gotVia, "ratelimit-gateway/")
	assert.Empty(t, gotUpgrade)
}

func TestForwardedHandler_NoUpstream(t *testing.T) {
	logger, _ := test.NewNullLogger()
	app := fiber.New()
	app.Use(NewForwardedHandler(logger, "", 0, nil).Handle)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/anything", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestForwardedHandler_UpstreamDown(t *testing.T) {
	ln := fasthttputil.NewInmemoryListener()
	require.NoError(t, ln.Close())
	client := &fasthttp.Client{
		Dial: func(addr string) (net.Conn, error) { return ln.Dial() },
	}

	logger, hook := test.NewNullLogger()
	app := fiber.New()
	app.Use(NewForwardedHandler(logger, "http://backend.internal", time.Second, client).Handle)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "upstream request failed", hook.LastEntry().Message)
}

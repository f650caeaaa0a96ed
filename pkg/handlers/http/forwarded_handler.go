package http

import (
	"errors"
	"strings"
	"time"

	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/version"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
)

const DefaultProxyTimeout = 30 * time.Second

var ErrNoUpstream = errors.New("no upstream configured")

// hopHeaders are connection scoped and never forwarded.
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

type forwardedHandler struct {
	logger   *logrus.Logger
	client   *fasthttp.Client
	upstream string
	timeout  time.Duration
}

// NewForwardedHandler relays admitted requests to upstreamURL. A nil client
// gets the default pooled client.
func NewForwardedHandler(
	logger *logrus.Logger,
	upstreamURL string,
	timeout time.Duration,
	client *fasthttp.Client,
) Handler {
	if client == nil {
		client = &fasthttp.Client{
			ReadTimeout:                   60 * time.Second,
			WriteTimeout:                  60 * time.Second,
			MaxConnsPerHost:               16384,
			MaxIdleConnDuration:           120 * time.Second,
			ReadBufferSize:                32768,
			WriteBufferSize:               32768,
			NoDefaultUserAgentHeader:      true,
			DisableHeaderNamesNormalizing: true,
			DisablePathNormalizing:        true,
		}
	}
	if timeout <= 0 {
		timeout = DefaultProxyTimeout
	}
	return &forwardedHandler{
		logger:   logger,
		client:   client,
		upstream: strings.TrimSuffix(upstreamURL, "/"),
		timeout:  timeout,
	}
}

func (h *forwardedHandler) Handle(c *fiber.Ctx) error {
	if h.upstream == "" {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": ErrNoUpstream.Error()})
	}

	targetURL := h.upstream + c.OriginalURL()
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	h.buildRequest(c, req, targetURL)
	h.logger.Debug("sending request to " + targetURL)

	if err := h.client.DoTimeout(req, resp, h.timeout); err != nil {
		h.logger.WithFields(logrus.Fields{
			"target": targetURL,
			"method": c.Method(),
		}).WithError(err).Error("upstream request failed")
		status := fiber.StatusBadGateway
		if errors.Is(err, fasthttp.ErrTimeout) {
			status = fiber.StatusGatewayTimeout
		}
		return c.Status(status).JSON(fiber.Map{"error": "upstream unavailable"})
	}

	h.copyResponse(c, resp)
	return nil
}

func (h *forwardedHandler) buildRequest(c *fiber.Ctx, req *fasthttp.Request, targetURL string) {
	c.Request().Header.CopyTo(&req.Header)
	req.SetRequestURI(targetURL)
	req.Header.SetMethod(c.Method())
	req.Header.Del(fiber.HeaderHost)
	for _, hh := range hopHeaders {
		req.Header.Del(hh)
	}
	if body := c.Body(); len(body) > 0 {
		req.SetBodyRaw(body)
	}

	clientIP := c.IP()
	if prior := c.Get(fiber.HeaderXForwardedFor); prior != "" {
		clientIP = prior + ", " + clientIP
	}
	req.Header.Set(fiber.HeaderXForwardedFor, clientIP)
	req.Header.Add(fiber.HeaderVia, version.Via())
}

func (h *forwardedHandler) copyResponse(c *fiber.Ctx, resp *fasthttp.Response) {
	c.Status(resp.StatusCode())
	resp.Header.VisitAll(func(key, value []byte) {
		k := string(key)
		if isHopHeader(k) || strings.EqualFold(k, fiber.HeaderContentLength) {
			return
		}
		c.Response().Header.Add(k, string(value))
	})
	c.Response().SetBodyRaw(append([]byte(nil), resp.Body()...))
}

func isHopHeader(name string) bool {
	for _, hh := range hopHeaders {
		if strings.EqualFold(hh, name) {
			return true
		}
	}
	return false
}

package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/app/admission"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/app/keygen"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/common"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/domain/ratelimit"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// descriptorHeaders are copied from the request into the descriptor; the
// rest of the headers are of no interest to admission.
var descriptorHeaders = append([]string{
	fiber.HeaderUserAgent,
	common.HeaderRequestID,
}, keygen.ClientIPHeaders...)

type rateLimitMiddleware struct {
	logger    *logrus.Logger
	admission admission.Service
	exempt    map[string]struct{}
}

func NewRateLimitMiddleware(logger *logrus.Logger, svc admission.Service, exemptPaths []string) Middleware {
	exempt := make(map[string]struct{}, len(exemptPaths))
	for _, p := range exemptPaths {
		exempt[keygen.NormalizePath(p)] = struct{}{}
	}
	return &rateLimitMiddleware{
		logger:    logger,
		admission: svc,
		exempt:    exempt,
	}
}

func (m *rateLimitMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := m.exempt[keygen.NormalizePath(c.Path())]; ok {
			return c.Next()
		}

		res := m.admission.Check(c.UserContext(), descriptorFrom(c))
		c.Locals(common.AdmissionResultKey, res)
		if res.Enforced {
			setRateLimitHeaders(c, res)
		}

		if res.Decision.Blocked {
			retryAfter := res.Decision.RetryAfterSeconds()
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
			m.logger.WithFields(logrus.Fields{
				"policy": res.Policy.Name,
				"key":    string(res.Decision.Key),
				"path":   c.Path(),
			}).Debug("request rate limited")
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "rate limit exceeded",
				"retry_after": retryAfter,
			})
		}

		err := c.Next()
		m.admission.Complete(c.UserContext(), res, responseStatus(c, err))
		return err
	}
}

func descriptorFrom(c *fiber.Ctx) ratelimit.Descriptor {
	headers := make(http.Header, len(descriptorHeaders))
	for _, name := range descriptorHeaders {
		if v := c.Get(name); v != "" {
			headers.Set(name, v)
		}
	}
	return ratelimit.Descriptor{
		Method:     strings.ToUpper(c.Method()),
		Path:       c.Path(),
		RemoteAddr: c.Context().RemoteAddr().String(),
		Headers:    headers,
		CallerID:   localString(c, common.CallerIDContextKey),
		Tier:       localString(c, common.CallerTierContextKey),
	}
}

func setRateLimitHeaders(c *fiber.Ctx, res admission.Result) {
	d := res.Decision
	c.Set(common.HeaderRateLimitLimit, strconv.Itoa(d.Limit))
	c.Set(common.HeaderRateLimitRemaining, strconv.Itoa(d.Remaining))
	c.Set(common.HeaderRateLimitReset, strconv.FormatInt(d.ResetTime.Unix(), 10))
	if res.Policy.Name != "" {
		c.Set(common.HeaderRateLimitPolicy, res.Policy.Name)
	}
}

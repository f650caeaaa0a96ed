package middleware

import (
	"strings"

	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/common"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/infra/auth/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const bearerPrefix = "Bearer "

type identityMiddleware struct {
	logger       *logrus.Logger
	jwtManager   jwt.Manager
	trustHeaders bool
}

// NewIdentityMiddleware attaches the caller id and tier to the request. A
// valid bearer token wins; identity headers are honoured only when
// trustHeaders is set, i.e. when an upstream authenticator sets them.
// Requests without an identity continue anonymously.
func NewIdentityMiddleware(logger *logrus.Logger, jwtManager jwt.Manager, trustHeaders bool) Middleware {
	return &identityMiddleware{
		logger:       logger,
		jwtManager:   jwtManager,
		trustHeaders: trustHeaders,
	}
}

func (m *identityMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id, tier, ok := m.fromToken(c); ok {
			setCaller(c, id, tier)
			return c.Next()
		}
		if m.trustHeaders {
			setCaller(c, strings.TrimSpace(c.Get(common.HeaderUserID)), strings.TrimSpace(c.Get(common.HeaderUserTier)))
		}
		return c.Next()
	}
}

func (m *identityMiddleware) fromToken(c *fiber.Ctx) (string, string, bool) {
	if m.jwtManager == nil {
		return "", "", false
	}
	authHeader := c.Get(fiber.HeaderAuthorization)
	if len(authHeader) <= len(bearerPrefix) || !strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
		return "", "", false
	}
	claims, err := m.jwtManager.DecodeToken(strings.TrimSpace(authHeader[len(bearerPrefix):]))
	if err != nil {
		m.logger.WithFields(logrus.Fields{
			"path":  c.Path(),
			"error": err.Error(),
		}).Debug("ignoring invalid bearer token")
		return "", "", false
	}
	return claims.UserID, claims.Tier, claims.UserID != ""
}

func setCaller(c *fiber.Ctx, id, tier string) {
	if id != "" {
		c.Locals(common.CallerIDContextKey, id)
	}
	if tier != "" {
		c.Locals(common.CallerTierContextKey, tier)
	}
}

func localString(c *fiber.Ctx, key interface{}) string {
	if v, ok := c.Locals(key).(string); ok {
		return v
	}
	return ""
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/common"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/infra/auth/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identityApp(t *testing.T, manager jwt.Manager, trustHeaders bool) *fiber.App {
	t.Helper()
	logger, _ := test.NewNullLogger()
	app := fiber.New()
	app.Use(NewIdentityMiddleware(logger, manager, trustHeaders).Middleware())
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"id":   localString(c, common.CallerIDContextKey),
			"tier": localString(c, common.CallerTierContextKey),
		})
	})
	return app
}

func whoami(t *testing.T, app *fiber.App, headers map[string]string) (string, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		ID   string `json:"id"`
		Tier string `json:"tier"`
	}
	require.NoError(t, decodeJSON(resp, &body))
	return body.ID, body.Tier
}

func TestIdentityMiddleware_BearerToken(t *testing.T) {
	manager := jwt.NewJwtManager("test-secret")
	token, err := manager.CreateToken("user-7", "premium", time.Hour)
	require.NoError(t, err)

	app := identityApp(t, manager, false)
	id, tier := whoami(t, app, map[string]string{fiber.HeaderAuthorization: "Bearer " + token})
	assert.Equal(t, "user-7", id)
	assert.Equal(t, "premium", tier)
}

func TestIdentityMiddleware_TokenWinsOverHeaders(t *testing.T) {
	manager := jwt.NewJwtManager("test-secret")
	token, err := manager.CreateToken("user-7", "", time.Hour)
	require.NoError(t, err)

	app := identityApp(t, manager, true)
	id, tier := whoami(t, app, map[string]string{
		fiber.HeaderAuthorization: "bearer " + token,
		common.HeaderUserID:       "spoofed",
		common.HeaderUserTier:     "enterprise",
	})
	assert.Equal(t, "user-7", id)
	assert.Empty(t, tier)
}

func TestIdentityMiddleware_InvalidTokenIsAnonymous(t *testing.T) {
	app := identityApp(t, jwt.NewJwtManager("test-secret"), false)

	other, err := jwt.NewJwtManager("other-secret").CreateToken("user-7", "premium", time.Hour)
	require.NoError(t, err)

	id, tier := whoami(t, app, map[string]string{fiber.HeaderAuthorization: "Bearer " + other})
	assert.Empty(t, id)
	assert.Empty(t, tier)
}

func TestIdentityMiddleware_Headers(t *testing.T) {
	headers := map[string]string{
		common.HeaderUserID:   " user-9 ",
		common.HeaderUserTier: "basic",
	}

	t.Run("trusted", func(t *testing.T) {
		id, tier := whoami(t, identityApp(t, nil, true), headers)
		assert.Equal(t, "user-9", id)
		assert.Equal(t, "basic", tier)
	})

	t.Run("untrusted", func(t *testing.T) {
		id, tier := whoami(t, identityApp(t, nil, false), headers)
		assert.Empty(t, id)
		assert.Empty(t, tier)
	})
}

package auth_test

import (
	"net/http/httptest"
	"testing"

	"stock-mirror/core/middleware/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(apiKey string) *fiber.App {
	app := fiber.New()
	app.Use(auth.New(auth.Config{ApiKey: apiKey}))
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestAuth(t *testing.T) {
	t.Run("ValidKey", func(t *testing.T) {
		app := newApp("secret")
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-API-Key", "secret")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("WrongKey", func(t *testing.T) {
		app := newApp("secret")
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-API-Key", "nope")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("MissingKey", func(t *testing.T) {
		app := newApp("secret")
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("AuthDisabled", func(t *testing.T) {
		app := newApp("")
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(handlers ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	chain := append([]fiber.Handler{GatewayAuthMiddleware("secret", zerolog.Nop()), PlayerContextMiddleware()}, handlers...)
	chain = append(chain, func(c *fiber.Ctx) error {
		roles, _ := c.Locals(RolesKey).([]string)
		return c.JSON(fiber.Map{"discord_id": DiscordID(c), "roles": roles})
	})
	app.Get("/", chain...)
	return app
}

func status(t *testing.T, app *fiber.App, headers map[string]string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestGatewayAuth(t *testing.T) {
	app := newApp()
	cases := []struct {
		name    string
		headers map[string]string
		want    int
	}{
		{"service token header", map[string]string{"X-Service-Token": "secret"}, http.StatusOK},
		{"bearer", map[string]string{"Authorization": "Bearer secret"}, http.StatusOK},
		{"raw authorization", map[string]string{"Authorization": "secret"}, http.StatusOK},
		{"missing", nil, http.StatusUnauthorized},
		{"wrong", map[string]string{"X-Service-Token": "nope"}, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, status(t, app, tc.headers))
		})
	}
}

func TestRequirePlayer(t *testing.T) {
	app := newApp(RequirePlayer())
	assert.Equal(t, http.StatusUnauthorized, status(t, app, map[string]string{"X-Service-Token": "secret"}))
	assert.Equal(t, http.StatusOK, status(t, app, map[string]string{"X-Service-Token": "secret", "X-Discord-ID": "42"}))
}

func TestRequireAdmin(t *testing.T) {
	app := newApp(RequireAdmin())
	base := map[string]string{"X-Service-Token": "secret", "X-Discord-ID": "42"}
	assert.Equal(t, http.StatusForbidden, status(t, app, base))

	base["X-Discord-Roles"] = "Moderator, Admin"
	assert.Equal(t, http.StatusOK, status(t, app, base))
}

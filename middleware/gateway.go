// middleware/gateway.go
package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// GatewayAuthMiddleware admits only callers presenting the service token,
// either as "Bearer <token>" or raw in Authorization, or in X-Service-Token.
func GatewayAuthMiddleware(expectedToken string, log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get("X-Service-Token")
		if token == "" {
			token = strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		}
		if token == "" {
			log.Debug().Str("path", c.Path()).Msg("missing service token")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "service token missing",
			})
		}
		if token != expectedToken {
			log.Warn().Str("path", c.Path()).Str("ip", c.IP()).Msg("invalid service token")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid service token",
			})
		}
		return c.Next()
	}
}

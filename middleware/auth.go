// middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"golang.org/x/text/cases"
)

const (
	DiscordIDKey = "discord_id"
	RolesKey     = "roles"

	AdminRole = "admin"
)

// PlayerContextMiddleware copies the acting player's identity, as set by the
// chat front-end, into the request locals.
func PlayerContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		fold := cases.Fold()
		var roles []string
		for _, r := range strings.Split(c.Get("X-Discord-Roles"), ",") {
			if r = strings.TrimSpace(r); r != "" {
				roles = append(roles, fold.String(r))
			}
		}
		// Header values alias the request buffer, which fiber reuses.
		c.Locals(DiscordIDKey, utils.CopyString(strings.TrimSpace(c.Get("X-Discord-ID"))))
		c.Locals(RolesKey, roles)
		return c.Next()
	}
}

// DiscordID returns the acting player, or "" when none was sent.
func DiscordID(c *fiber.Ctx) string {
	id, _ := c.Locals(DiscordIDKey).(string)
	return id
}

func hasRole(c *fiber.Ctx, role string) bool {
	roles, _ := c.Locals(RolesKey).([]string)
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// RequirePlayer rejects requests without an acting player.
func RequirePlayer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if DiscordID(c) == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-Discord-ID",
			})
		}
		return c.Next()
	}
}

// RequireAdmin rejects requests whose player lacks the admin role.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !hasRole(c, AdminRole) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "admin only",
			})
		}
		return c.Next()
	}
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"league-orchestrator/middleware"
)

func SetupAdminRoutes(app *fiber.App, api *API) {
	admin := app.Group("/admin", middleware.RequireAdmin())
	admin.Post("/ratings/recompute", api.recompute)
	admin.Post("/league/reset", api.resetLeague)
}

func (a *API) recompute(c *fiber.Ctx) error {
	n, err := a.Ratings.Recompute(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"games": n})
}

func (a *API) resetLeague(c *fiber.Ctx) error {
	location, err := a.Reset.Reset(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"archive": location})
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"league-orchestrator/middleware"
)

type vouchRequest struct {
	DiscordID string `json:"discord_id"`
	SteamID   int64  `json:"steam_id"`
}

type rolesRequest struct {
	Roles string `json:"roles"`
}

func SetupPlayerRoutes(app *fiber.App, api *API) {
	admin := middleware.RequireAdmin()
	player := middleware.RequirePlayer()

	app.Post("/players", admin, api.vouch)
	app.Post("/players/:discord_id/captain", admin, api.markCaptain)
	app.Put("/players/me/roles", player, api.setRoles)
	app.Get("/players/me/stats", player, api.stats)
	app.Get("/leaderboard", api.leaderboard)
}

func (a *API) vouch(c *fiber.Ctx) error {
	var req vouchRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid body")
	}
	p, err := a.Players.Vouch(c.UserContext(), req.DiscordID, req.SteamID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (a *API) markCaptain(c *fiber.Ctx) error {
	id := c.Params("discord_id")
	if err := a.Players.MarkCaptain(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"discord_id": id, "captain": true})
}

func (a *API) setRoles(c *fiber.Ctx) error {
	var req rolesRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid body")
	}
	roles, err := a.Players.SetRoles(c.UserContext(), middleware.DiscordID(c), req.Roles)
	if err != nil {
		return err
	}
	if roles == nil {
		roles = []int{}
	}
	return c.JSON(fiber.Map{"roles": roles})
}

func (a *API) stats(c *fiber.Ctx) error {
	stats, err := a.Players.Stats(c.UserContext(), middleware.DiscordID(c))
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

func (a *API) leaderboard(c *fiber.Ctx) error {
	board, err := a.Players.Leaderboard(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"standings": board})
}

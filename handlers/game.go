// handlers/game.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"league-orchestrator/middleware"
	"league-orchestrator/models"
)

type scoreRequest struct {
	Winner       string `json:"winner"`
	SteamMatchID int64  `json:"steam_match_id"`
}

func SetupGameRoutes(app *fiber.App, api *API) {
	admin := middleware.RequireAdmin()

	app.Post("/games/autoscore", api.autoscore)
	app.Post("/games/:id/score", admin, api.score)
	app.Post("/games/:id/rehost", admin, api.rehost)
	app.Post("/games/:id/cancel", admin, api.cancel)
}

func (a *API) score(c *fiber.Ctx) error {
	id, err := gameID(c)
	if err != nil {
		return err
	}
	var req scoreRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid body")
	}
	winner, ok := models.ParseSide(req.Winner)
	if !ok {
		return badRequest("winner must be radiant or dire")
	}
	delta, err := a.Games.Score(c.UserContext(), id, winner, req.SteamMatchID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"game_id": id, "winner": winner.String(), "delta": delta})
}

func (a *API) rehost(c *fiber.Ctx) error {
	id, err := gameID(c)
	if err != nil {
		return err
	}
	if err := a.Matchmaker.Rehost(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"game_id": id, "status": models.StatusRehost})
}

func (a *API) cancel(c *fiber.Ctx) error {
	id, err := gameID(c)
	if err != nil {
		return err
	}
	formed, err := a.Matchmaker.Cancel(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"game_id": id, "status": models.StatusCancel, "match": formed})
}

func (a *API) autoscore(c *fiber.Ctx) error {
	report, err := a.Autoscore.Run(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(report)
}

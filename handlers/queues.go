package handlers

import (
	"github.com/gofiber/fiber/v2"

	"league-orchestrator/middleware"
	"league-orchestrator/services"
)

type pickRequest struct {
	PlayerID uint `json:"player_id"`
}

func SetupQueueRoutes(app *fiber.App, api *API) {
	admin := middleware.RequireAdmin()
	player := middleware.RequirePlayer()

	app.Get("/queues", api.queues)
	app.Post("/queues/:kind/join", player, api.joinQueue)
	app.Delete("/queues", player, api.leaveQueues)
	app.Delete("/queues/:kind", admin, api.clearQueue)

	app.Get("/drafts/:id", api.draft)
	app.Post("/drafts/:id/picks", player, api.pick)
	app.Post("/drafts/:id/handoff", player, api.handoff)
	app.Post("/drafts/:id/finish", player, api.finishDraft)
}

func (a *API) queues(c *fiber.Ctx) error {
	snap, err := a.Matchmaker.Snapshot(c.UserContext())
	if err != nil {
		return err
	}
	out := fiber.Map{}
	for kind, members := range snap {
		if members == nil {
			members = []string{}
		}
		out[string(kind)] = members
	}
	return c.JSON(out)
}

func (a *API) joinQueue(c *fiber.Ctx) error {
	kind, err := services.ParseQueueKind(c.Params("kind"))
	if err != nil {
		return err
	}
	formed, err := a.Matchmaker.Join(c.UserContext(), middleware.DiscordID(c), kind)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"queued": kind, "match": formed})
}

func (a *API) leaveQueues(c *fiber.Ctx) error {
	left, err := a.Matchmaker.LeaveAll(c.UserContext(), middleware.DiscordID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"left": left})
}

func (a *API) clearQueue(c *fiber.Ctx) error {
	kind, err := services.ParseQueueKind(c.Params("kind"))
	if err != nil {
		return err
	}
	if err := a.Matchmaker.Clear(c.UserContext(), kind); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (a *API) draft(c *fiber.Ctx) error {
	snap, err := a.Drafts.Snapshot(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(snap)
}

func (a *API) pick(c *fiber.Ctx) error {
	var req pickRequest
	if err := c.BodyParser(&req); err != nil || req.PlayerID == 0 {
		return badRequest("player_id is required")
	}
	snap, err := a.Drafts.Pick(c.UserContext(), c.Params("id"), middleware.DiscordID(c), req.PlayerID)
	if err != nil {
		return err
	}
	return c.JSON(snap)
}

func (a *API) handoff(c *fiber.Ctx) error {
	snap, err := a.Drafts.ToggleHandoff(c.Params("id"), middleware.DiscordID(c))
	if err != nil {
		return err
	}
	return c.JSON(snap)
}

func (a *API) finishDraft(c *fiber.Ctx) error {
	snap, err := a.Drafts.Finish(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(snap)
}

package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog"

	"league-orchestrator/middleware"
	"league-orchestrator/services"
	"league-orchestrator/store"
)

// API bundles the services the HTTP routes call into.
type API struct {
	Players    *services.PlayerService
	Games      *services.GameService
	Matchmaker *services.Matchmaker
	Drafts     *services.DraftService
	Ratings    *services.RatingEngine
	Autoscore  *services.Autoscorer
	Reset      *services.LeagueReset
	Log        zerolog.Logger
}

type AppConfig struct {
	ServiceToken   string
	AllowedOrigins string // comma separated; empty disables CORS
}

// NewApp builds the fiber app with every route behind the service token.
func NewApp(api *API, cfg AppConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          api.errorHandler,
		DisableStartupMessage: true,
	})

	if cfg.AllowedOrigins != "" {
		origins := strings.Split(cfg.AllowedOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		app.Use(cors.New(cors.Config{
			AllowOrigins: strings.Join(origins, ","),
			AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
			AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Service-Token, X-Discord-ID, X-Discord-Roles",
			MaxAge:       86400,
		}))
	}

	app.Use(middleware.GatewayAuthMiddleware(cfg.ServiceToken, api.Log))
	app.Use(middleware.PlayerContextMiddleware())

	SetupPlayerRoutes(app, api)
	SetupQueueRoutes(app, api)
	SetupGameRoutes(app, api)
	SetupAdminRoutes(app, api)
	return app
}

// errorHandler turns service errors into status codes. Rejections carry
// their reason to the user.
func (a *API) errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	body := fiber.Map{"error": "internal error"}

	var fe *fiber.Error
	var turn *services.TurnError
	reason, rejected := services.RejectionReason(err)
	switch {
	case errors.As(err, &fe):
		status, body["error"] = fe.Code, fe.Message
	case errors.As(err, &turn):
		status = fiber.StatusConflict
		body["error"], body["expected"] = turn.Error(), turn.Expected
	case rejected:
		status, body["error"] = fiber.StatusConflict, reason
	case errors.Is(err, services.ErrTransitionLost):
		status, body["error"] = fiber.StatusConflict, "the game changed while processing, try again"
	case errors.Is(err, store.ErrStoreBusy):
		status, body["error"] = fiber.StatusServiceUnavailable, "the league database is busy, try again"
	case errors.Is(err, services.ErrResourceExhausted):
		status, body["error"] = fiber.StatusServiceUnavailable, "no free bot available"
	case errors.Is(err, store.ErrNotFound):
		status, body["error"] = fiber.StatusNotFound, "not found"
	}

	if status >= fiber.StatusInternalServerError {
		a.Log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")
	}
	return c.Status(status).JSON(body)
}

func badRequest(msg string) error {
	return fiber.NewError(fiber.StatusBadRequest, msg)
}

func gameID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, badRequest("game id must be a positive integer")
	}
	return uint(id), nil
}

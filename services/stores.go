package services

import (
	"context"

	"league-orchestrator/models"
	"league-orchestrator/store"
)

// The store interfaces below are satisfied by *store.Store and by the
// in-memory memstore.Store used in tests.

type PlayerStore interface {
	CreatePlayer(ctx context.Context, p *models.Player) error
	PlayerByDiscordID(ctx context.Context, discordID string) (models.Player, error)
	PlayersByDiscordIDs(ctx context.Context, discordIDs []string) ([]models.Player, error)
	AllPlayers(ctx context.Context) ([]models.Player, error)
	MarkCaptain(ctx context.Context, playerID uint) error
	DeleteRoles(ctx context.Context, playerID uint) error
	AddRole(ctx context.Context, playerID uint, role int) error
	Roles(ctx context.Context, playerID uint) ([]int, error)
	PlayerRecord(ctx context.Context, playerID uint) (models.PlayerRecord, error)
	Leaderboard(ctx context.Context) ([]models.Standing, error)
}

type RatingStore interface {
	AdjustRatings(ctx context.Context, playerIDs []uint, delta int) error
	ResetRatings(ctx context.Context, baseline int) error
	GamesWithStatus(ctx context.Context, status models.GameStatus) ([]models.Game, error)
	Roster(ctx context.Context, gameID uint) ([]models.RosterEntry, error)
}

type GameStore interface {
	CreateGame(ctx context.Context, game *models.Game, newArgs func(gameID uint) models.GameArgs, seats []models.GamePlayer) (models.GameArgs, error)
	Game(ctx context.Context, id uint) (models.Game, error)
	GameArgs(ctx context.Context, gameID uint) (models.GameArgs, error)
	Roster(ctx context.Context, gameID uint) ([]models.RosterEntry, error)
	ArrivedPlayers(ctx context.Context, gameID uint) ([]models.RosterEntry, error)
	FirstGameWithStatus(ctx context.Context, status models.GameStatus) (models.Game, error)
	GamesWithStatus(ctx context.Context, status models.GameStatus) ([]models.Game, error)
	UpdateGameStatus(ctx context.Context, id uint, from, to models.GameStatus) error
	ScoreGame(ctx context.Context, id uint, result models.Side, steamMatchID int64) error
	SetArrived(ctx context.Context, gameID, playerID uint, arrived bool) error
	ResetArrivals(ctx context.Context, gameID uint) error
	ScoredMatchIDs(ctx context.Context) ([]int64, error)
	ResetLeague(ctx context.Context, baseline int) error
	ExportHistory(ctx context.Context) (models.LeagueSnapshot, error)
}

type BotStore interface {
	AddBot(ctx context.Context, bot *models.SteamBot) error
	FreeBot(ctx context.Context) (models.SteamBot, error)
	Bot(ctx context.Context, id uint) (models.SteamBot, error)
	ReserveBot(ctx context.Context, id, gameID uint) error
	ClaimFreeBot(ctx context.Context, gameID uint) (models.SteamBot, error)
	ReleaseBot(ctx context.Context, username string) error
}

// Store is everything the league needs from persistence.
type Store interface {
	PlayerStore
	RatingStore
	GameStore
	BotStore
}

var _ Store = (*store.Store)(nil)

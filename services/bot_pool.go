package services

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"league-orchestrator/models"
	"league-orchestrator/store"
	"league-orchestrator/utils"
)

// BotPool hands out session-host credentials. A bot belongs to at most one
// game between Claim (or Reserve) and Release.
type BotPool struct {
	store BotStore
	log   zerolog.Logger
}

func NewBotPool(s BotStore, log zerolog.Logger) *BotPool {
	return &BotPool{store: s, log: log}
}

// GetFree returns some free bot without reserving it.
func (p *BotPool) GetFree(ctx context.Context) (models.SteamBot, error) {
	bot, err := p.store.FreeBot(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return bot, ErrResourceExhausted
	}
	return bot, err
}

// Reserve takes a specific bot for gameID. Losing the race to another
// claimant reports ErrResourceExhausted.
func (p *BotPool) Reserve(ctx context.Context, botID, gameID uint) error {
	err := p.store.ReserveBot(ctx, botID, gameID)
	if errors.Is(err, store.ErrNoRowsModified) {
		return eris.Wrapf(ErrResourceExhausted, "bot %d already reserved", botID)
	}
	return err
}

// Claim finds and reserves a free bot in one step.
func (p *BotPool) Claim(ctx context.Context, gameID uint) (models.SteamBot, error) {
	bot, err := p.store.ClaimFreeBot(ctx, gameID)
	if errors.Is(err, store.ErrNotFound) {
		return bot, ErrResourceExhausted
	}
	if err != nil {
		return bot, err
	}
	p.log.Info().Str("bot", bot.Username).Uint("game_id", gameID).Msg("bot reserved")
	return bot, nil
}

// Release frees the bot. Releasing an already free bot is a no-op.
func (p *BotPool) Release(ctx context.Context, username string) error {
	err := p.store.ReleaseBot(ctx, username)
	if errors.Is(err, store.ErrNoRowsModified) {
		p.log.Warn().Str("bot", username).Msg("release of a bot that was not reserved")
		return nil
	}
	if err != nil {
		return err
	}
	p.log.Info().Str("bot", username).Msg("bot released")
	return nil
}

// Bot loads one credential by id.
func (p *BotPool) Bot(ctx context.Context, id uint) (models.SteamBot, error) {
	return p.store.Bot(ctx, id)
}

// Register imports credentials from a JSON array of {"username","password"}.
// Usernames already present are skipped. It returns how many were added.
func (p *BotPool) Register(ctx context.Context, path string) (int, error) {
	var creds []models.BotCredential
	if err := utils.ReadJSONFile(path, &creds); err != nil {
		return 0, err
	}
	if len(creds) == 0 {
		return 0, eris.Errorf("no steam accounts in %s", path)
	}

	added := 0
	for _, c := range creds {
		if c.Username == "" {
			return added, eris.Errorf("account without username in %s", path)
		}
		err := p.store.AddBot(ctx, &models.SteamBot{Username: c.Username, Password: c.Password})
		switch {
		case errors.Is(err, store.ErrNoRowsModified):
			p.log.Debug().Str("bot", c.Username).Msg("bot already registered")
		case err != nil:
			return added, err
		default:
			added++
		}
	}
	p.log.Info().Int("added", added).Int("total", len(creds)).Msg("steam bots registered")
	return added, nil
}

package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"league-orchestrator/models"
)

// claimSQL reserves the lowest free bot in a single statement. SKIP LOCKED
// keeps two claimants from ever landing on the same row.
const claimSQL = `
UPDATE steam_bots
SET status = @reserved, reserved_for = @game, updated_at = NOW()
WHERE id = (
	SELECT id FROM steam_bots
	WHERE status = @free
	ORDER BY id ASC
	LIMIT 1
	FOR UPDATE SKIP LOCKED
)
RETURNING *`

// AddBot inserts a credential. An existing username yields ErrNoRowsModified.
func (s *Store) AddBot(ctx context.Context, bot *models.SteamBot) error {
	return s.exec(ctx, "bots.add", func(tx *gorm.DB) *gorm.DB {
		bot.ID = 0
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "username"}},
			DoNothing: true,
		}).Create(bot)
	})
}

func (s *Store) FreeBot(ctx context.Context) (models.SteamBot, error) {
	return one[models.SteamBot](ctx, s, "bots.free", func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&models.SteamBot{}).Where("status = ?", models.BotFree).Order("id ASC").Limit(1)
	})
}

func (s *Store) Bot(ctx context.Context, id uint) (models.SteamBot, error) {
	return one[models.SteamBot](ctx, s, "bots.get", func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&models.SteamBot{}).Where("id = ?", id).Limit(1)
	})
}

// ReserveBot reserves a specific bot only if it is still free.
func (s *Store) ReserveBot(ctx context.Context, id, gameID uint) error {
	return s.exec(ctx, "bots.reserve", func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&models.SteamBot{}).
			Where("id = ? AND status = ?", id, models.BotFree).
			Updates(map[string]interface{}{
				"status":       models.BotReserved,
				"reserved_for": gameID,
			})
	})
}

// ClaimFreeBot atomically finds and reserves a free bot for gameID.
func (s *Store) ClaimFreeBot(ctx context.Context, gameID uint) (models.SteamBot, error) {
	return one[models.SteamBot](ctx, s, "bots.claim", func(tx *gorm.DB) *gorm.DB {
		return tx.Raw(claimSQL, map[string]interface{}{
			"reserved": models.BotReserved,
			"free":     models.BotFree,
			"game":     gameID,
		})
	})
}

// ReleaseBot frees a reserved bot. Releasing a free bot yields ErrNoRowsModified.
func (s *Store) ReleaseBot(ctx context.Context, username string) error {
	return s.exec(ctx, "bots.release", func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&models.SteamBot{}).
			Where("username = ? AND status = ?", username, models.BotReserved).
			Updates(map[string]interface{}{
				"status":       models.BotFree,
				"reserved_for": nil,
			})
	})
}

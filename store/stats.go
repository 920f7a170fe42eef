package store

import (
	"context"

	"gorm.io/gorm"

	"league-orchestrator/models"
)

const playerRecordSQL = `
SELECT
	(SELECT COUNT(*) FROM game_players gp JOIN games g ON g.id = gp.game_id
		WHERE gp.player_id = @id AND g.status = @over) AS played,
	(SELECT COUNT(*) FROM game_players gp JOIN games g ON g.id = gp.game_id
		WHERE gp.player_id = @id AND g.status = @over AND gp.team = g.result) AS wins,
	(SELECT COUNT(*) FROM game_players gp JOIN games g ON g.id = gp.game_id
		WHERE gp.player_id = @id AND g.status = @over AND gp.team <> g.result) AS losses,
	(SELECT COUNT(*) FROM players p
		WHERE p.mmr > me.mmr AND EXISTS (
			SELECT 1 FROM game_players gp JOIN games g ON g.id = gp.game_id
			WHERE gp.player_id = p.id AND g.status = @over)) + 1 AS rank
FROM players me
WHERE me.id = @id`

const leaderboardSQL = `
SELECT p.discord_id, p.mmr
FROM players p
WHERE EXISTS (
	SELECT 1 FROM game_players gp JOIN games g ON g.id = gp.game_id
	WHERE gp.player_id = p.id AND g.status = @over)
ORDER BY p.mmr DESC, p.id ASC`

// PlayerRecord counts scored games for one player. Rank is meaningful only when Played > 0.
func (s *Store) PlayerRecord(ctx context.Context, playerID uint) (models.PlayerRecord, error) {
	return one[models.PlayerRecord](ctx, s, "stats.player_record", func(tx *gorm.DB) *gorm.DB {
		return tx.Raw(playerRecordSQL, map[string]interface{}{
			"id":   playerID,
			"over": models.StatusOver,
		})
	})
}

// Leaderboard lists players with at least one scored game, best first.
func (s *Store) Leaderboard(ctx context.Context) ([]models.Standing, error) {
	return many[models.Standing](ctx, s, "stats.leaderboard", func(tx *gorm.DB) *gorm.DB {
		return tx.Raw(leaderboardSQL, map[string]interface{}{"over": models.StatusOver})
	})
}

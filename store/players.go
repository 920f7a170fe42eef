package store

import (
	"context"

	"gorm.io/gorm"

	"league-orchestrator/models"
)

func (s *Store) CreatePlayer(ctx context.Context, p *models.Player) error {
	_, err := s.insert(ctx, "players.create", func(tx *gorm.DB) (uint, error) {
		p.ID = 0
		err := tx.Create(p).Error
		return p.ID, err
	})
	return err
}

func (s *Store) PlayerByDiscordID(ctx context.Context, discordID string) (models.Player, error) {
	return one[models.Player](ctx, s, "players.by_discord_id", func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&models.Player{}).Where("discord_id = ?", discordID).Limit(1)
	})
}

func (s *Store) PlayersByDiscordIDs(ctx context.Context, discordIDs []string) ([]models.Player, error) {
	if len(discordIDs) == 0 {
		return nil, ErrNotFound
	}
	return many[models.Player](ctx, s, "players.by_discord_ids", func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&models.Player{}).Where("discord_id IN ?", discordIDs).Order("id ASC")
	})
}

func (s *Store) AllPlayers(ctx context.Context) ([]models.Player, error) {
	return many[models.Player](ctx, s, "players.all", func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&models.Player{}).Order("id ASC")
	})
}

func (s *Store) MarkCaptain(ctx context.Context, playerID uint) error {
	return s.exec(ctx, "players.mark_captain", func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&models.Player{}).Where("id = ?", playerID).Update("captain", true)
	})
}

// DeleteRoles fails with ErrNoRowsModified when the player had no roles.
func (s *Store) DeleteRoles(ctx context.Context, playerID uint) error {
	return s.exec(ctx, "roles.delete", func(tx *gorm.DB) *gorm.DB {
		return tx.Where("player_id = ?", playerID).Delete(&models.PlayerRole{})
	})
}

func (s *Store) AddRole(ctx context.Context, playerID uint, role int) error {
	_, err := s.insert(ctx, "roles.add", func(tx *gorm.DB) (uint, error) {
		row := models.PlayerRole{PlayerID: playerID, Role: role}
		err := tx.Omit("Player").Create(&row).Error
		return row.ID, err
	})
	return err
}

func (s *Store) Roles(ctx context.Context, playerID uint) ([]int, error) {
	rows, err := many[models.PlayerRole](ctx, s, "roles.list", func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&models.PlayerRole{}).Where("player_id = ?", playerID).Order("role ASC")
	})
	if err != nil {
		return nil, err
	}
	roles := make([]int, 0, len(rows))
	for _, r := range rows {
		roles = append(roles, r.Role)
	}
	return roles, nil
}

// AdjustRatings adds delta to every listed player's mmr in one statement.
func (s *Store) AdjustRatings(ctx context.Context, playerIDs []uint, delta int) error {
	if len(playerIDs) == 0 {
		return ErrNoRowsModified
	}
	return s.exec(ctx, "players.adjust_ratings", func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&models.Player{}).
			Where("id IN ?", playerIDs).
			Update("mmr", gorm.Expr("mmr + ?", delta))
	})
}

func (s *Store) ResetRatings(ctx context.Context, baseline int) error {
	return s.exec(ctx, "players.reset_ratings", func(tx *gorm.DB) *gorm.DB {
		return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Model(&models.Player{}).
			Update("mmr", baseline)
	})
}

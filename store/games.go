package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"league-orchestrator/models"
)

const rosterSQL = `
SELECT p.id AS player_id, p.discord_id, p.steam_id, p.mmr, gp.team, gp.arrived
FROM game_players gp
JOIN players p ON p.id = gp.player_id
WHERE gp.game_id = ?`

// CreateGame writes the game, its lobby arguments and every seat in one
// transaction. newArgs receives the generated game id.
func (s *Store) CreateGame(ctx context.Context, game *models.Game, newArgs func(gameID uint) models.GameArgs, seats []models.GamePlayer) (models.GameArgs, error) {
	var args models.GameArgs
	err := s.run(ctx, "games.create", func(tx *gorm.DB) error {
		game.ID = 0
		if err := tx.Create(game).Error; err != nil {
			return err
		}
		if game.ID == 0 {
			return ErrNotFound
		}

		args = newArgs(game.ID)
		args.ID = 0
		args.GameID = game.ID
		if err := tx.Omit(clause.Associations).Create(&args).Error; err != nil {
			return err
		}

		if len(seats) == 0 {
			return nil
		}
		rows := make([]models.GamePlayer, len(seats))
		for i, seat := range seats {
			rows[i] = models.GamePlayer{GameID: game.ID, PlayerID: seat.PlayerID, Team: seat.Team}
		}
		return tx.Omit(clause.Associations).Create(&rows).Error
	})
	return args, err
}

func (s *Store) Game(ctx context.Context, id uint) (models.Game, error) {
	return one[models.Game](ctx, s, "games.get", func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&models.Game{}).Where("id = ?", id).Limit(1)
	})
}

func (s *Store) GameArgs(ctx context.Context, gameID uint) (models.GameArgs, error) {
	return one[models.GameArgs](ctx, s, "game_args.get", func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&models.GameArgs{}).Where("game_id = ?", gameID).Limit(1)
	})
}

// Roster lists every seat of the game in seating order.
func (s *Store) Roster(ctx context.Context, gameID uint) ([]models.RosterEntry, error) {
	return many[models.RosterEntry](ctx, s, "games.roster", func(tx *gorm.DB) *gorm.DB {
		return tx.Raw(rosterSQL+" ORDER BY gp.id ASC", gameID)
	})
}

func (s *Store) ArrivedPlayers(ctx context.Context, gameID uint) ([]models.RosterEntry, error) {
	return many[models.RosterEntry](ctx, s, "games.arrived", func(tx *gorm.DB) *gorm.DB {
		return tx.Raw(rosterSQL+" AND gp.arrived = TRUE ORDER BY gp.id ASC", gameID)
	})
}

// FirstGameWithStatus returns the oldest game in the given status.
func (s *Store) FirstGameWithStatus(ctx context.Context, status models.GameStatus) (models.Game, error) {
	return one[models.Game](ctx, s, "games.first_with_status", func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&models.Game{}).Where("status = ?", status).Order("id ASC").Limit(1)
	})
}

func (s *Store) GamesWithStatus(ctx context.Context, status models.GameStatus) ([]models.Game, error) {
	return many[models.Game](ctx, s, "games.with_status", func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&models.Game{}).Where("status = ?", status).Order("id ASC")
	})
}

// UpdateGameStatus moves a game from one status to another. ErrNoRowsModified
// means the game was no longer in from.
func (s *Store) UpdateGameStatus(ctx context.Context, id uint, from, to models.GameStatus) error {
	return s.exec(ctx, "games.update_status", func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&models.Game{}).
			Where("id = ? AND status = ?", id, from).
			Update("status", to)
	})
}

// ScoreGame closes a STARTED game as OVER with its result.
func (s *Store) ScoreGame(ctx context.Context, id uint, result models.Side, steamMatchID int64) error {
	updates := map[string]interface{}{
		"status":         models.StatusOver,
		"result":         result,
		"steam_match_id": nil,
	}
	if steamMatchID != 0 {
		updates["steam_match_id"] = steamMatchID
	}
	return s.exec(ctx, "games.score", func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&models.Game{}).
			Where("id = ? AND status = ?", id, models.StatusStarted).
			Updates(updates)
	})
}

func (s *Store) SetArrived(ctx context.Context, gameID, playerID uint, arrived bool) error {
	return s.exec(ctx, "game_players.set_arrived", func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&models.GamePlayer{}).
			Where("game_id = ? AND player_id = ?", gameID, playerID).
			Update("arrived", arrived)
	})
}

func (s *Store) ResetArrivals(ctx context.Context, gameID uint) error {
	return s.exec(ctx, "game_players.reset_arrivals", func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&models.GamePlayer{}).
			Where("game_id = ?", gameID).
			Update("arrived", false)
	})
}

// ScoredMatchIDs returns the external match ids already recorded on OVER games.
func (s *Store) ScoredMatchIDs(ctx context.Context) ([]int64, error) {
	games, err := many[models.Game](ctx, s, "games.scored_match_ids", func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&models.Game{}).
			Where("status = ? AND steam_match_id IS NOT NULL", models.StatusOver).
			Order("id ASC")
	})
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(games))
	for _, g := range games {
		ids = append(ids, *g.SteamMatchID)
	}
	return ids, nil
}

// ResetLeague deletes every game and seat and resets all ratings to baseline.
func (s *Store) ResetLeague(ctx context.Context, baseline int) error {
	return s.run(ctx, "league.reset", func(tx *gorm.DB) error {
		for _, stmt := range []string{
			"DELETE FROM game_players",
			"DELETE FROM game_args",
			"DELETE FROM games",
		} {
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Model(&models.Player{}).
			Update("mmr", baseline).Error
	})
}

// ExportHistory reads the whole league in one transaction.
func (s *Store) ExportHistory(ctx context.Context) (models.LeagueSnapshot, error) {
	var snap models.LeagueSnapshot
	err := s.run(ctx, "league.export", func(tx *gorm.DB) error {
		snap = models.LeagueSnapshot{}
		if err := tx.Order("id ASC").Find(&snap.Players).Error; err != nil {
			return err
		}
		if err := tx.Order("id ASC").Find(&snap.Games).Error; err != nil {
			return err
		}
		if err := tx.Order("id ASC").Find(&snap.GamePlayers).Error; err != nil {
			return err
		}
		return tx.Order("id ASC").Find(&snap.GameArgs).Error
	})
	return snap, err
}

// services/users.go
package services

import (
	"context"
	"errors"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"league-orchestrator/models"
	"league-orchestrator/store"
)

const maxRoles = 5

// PlayerService covers vouching, captains, preferred roles and standings.
type PlayerService struct {
	store       PlayerStore
	startingMMR int
	log         zerolog.Logger
}

func NewPlayerService(s PlayerStore, startingMMR int, log zerolog.Logger) *PlayerService {
	return &PlayerService{store: s, startingMMR: startingMMR, log: log}
}

// PlayerStats is a player's record as shown to them.
type PlayerStats struct {
	DiscordID string `json:"discord_id"`
	MMR       int    `json:"mmr"`
	Wins      int64  `json:"wins"`
	Losses    int64  `json:"losses"`
	Rank      *int64 `json:"rank"` // nil while unranked
	Roles     []int  `json:"roles"`
}

// Player looks a player up, rejecting unknown accounts.
func (s *PlayerService) Player(ctx context.Context, discordID string) (models.Player, error) {
	p, err := s.store.PlayerByDiscordID(ctx, discordID)
	if errors.Is(err, store.ErrNotFound) {
		return p, reject("<@%s> is not vouched", discordID)
	}
	return p, err
}

// Vouch registers a player at the starting rating.
func (s *PlayerService) Vouch(ctx context.Context, discordID string, steamID int64) (models.Player, error) {
	if discordID == "" || steamID == 0 {
		return models.Player{}, reject("discord id and steam id are required")
	}
	_, err := s.store.PlayerByDiscordID(ctx, discordID)
	if err == nil {
		return models.Player{}, reject("<@%s> is already vouched", discordID)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return models.Player{}, err
	}

	p := models.Player{DiscordID: discordID, SteamID: steamID, MMR: s.startingMMR}
	if err := s.store.CreatePlayer(ctx, &p); err != nil {
		return p, eris.Wrap(err, "failed to vouch player")
	}
	s.log.Info().Str("player", discordID).Int64("steam_id", steamID).Msg("player vouched")
	return p, nil
}

func (s *PlayerService) MarkCaptain(ctx context.Context, discordID string) error {
	p, err := s.Player(ctx, discordID)
	if err != nil {
		return err
	}
	if err := s.store.MarkCaptain(ctx, p.ID); err != nil {
		return eris.Wrapf(err, "failed to mark %s as captain", discordID)
	}
	return nil
}

// ParseRoles reads a digit string such as "153". "0" means no roles.
func ParseRoles(digits string) ([]int, error) {
	if digits == "0" {
		return nil, nil
	}
	if digits == "" {
		return nil, reject("give your roles as digits 1-5, or 0 to clear them")
	}
	var roles []int
	seen := map[int]bool{}
	for _, c := range digits {
		if c < '1' || c > '5' {
			return nil, reject("roles must be digits 1-5, got %q", digits)
		}
		r := int(c - '0')
		if !seen[r] {
			seen[r] = true
			roles = append(roles, r)
		}
	}
	if len(roles) > maxRoles {
		return nil, reject("at most %d roles", maxRoles)
	}
	return roles, nil
}

// SetRoles replaces the player's preferred roles.
func (s *PlayerService) SetRoles(ctx context.Context, discordID, digits string) ([]int, error) {
	roles, err := ParseRoles(digits)
	if err != nil {
		return nil, err
	}
	p, err := s.Player(ctx, discordID)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteRoles(ctx, p.ID); err != nil && !errors.Is(err, store.ErrNoRowsModified) {
		return nil, eris.Wrap(err, "failed to clear roles")
	}
	for _, r := range roles {
		if err := s.store.AddRole(ctx, p.ID, r); err != nil {
			return nil, eris.Wrapf(err, "failed to add role %d", r)
		}
	}
	return roles, nil
}

func (s *PlayerService) Stats(ctx context.Context, discordID string) (PlayerStats, error) {
	p, err := s.Player(ctx, discordID)
	if err != nil {
		return PlayerStats{}, err
	}
	stats := PlayerStats{DiscordID: p.DiscordID, MMR: p.MMR, Roles: []int{}}

	rec, err := s.store.PlayerRecord(ctx, p.ID)
	if err != nil {
		return stats, eris.Wrap(err, "failed to load record")
	}
	if rec.Played > 0 {
		stats.Wins, stats.Losses = rec.Wins, rec.Losses
		rank := rec.Rank
		stats.Rank = &rank
	}

	roles, err := s.store.Roles(ctx, p.ID)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return stats, eris.Wrap(err, "failed to load roles")
	default:
		stats.Roles = roles
	}
	return stats, nil
}

// Leaderboard ranks players with a scored game. Early in a season, when no
// game is scored yet, everyone is listed.
func (s *PlayerService) Leaderboard(ctx context.Context) ([]models.Standing, error) {
	board, err := s.store.Leaderboard(ctx)
	if err == nil {
		return board, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	players, err := s.store.AllPlayers(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return []models.Standing{}, nil
	}
	if err != nil {
		return nil, err
	}
	sort.SliceStable(players, func(i, j int) bool { return players[i].MMR > players[j].MMR })
	board = make([]models.Standing, len(players))
	for i, p := range players {
		board[i] = models.Standing{DiscordID: p.DiscordID, MMR: p.MMR}
	}
	return board, nil
}

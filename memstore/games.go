package memstore

import (
	"context"
	"time"

	"league-orchestrator/models"
	"league-orchestrator/store"
)

func (s *Store) game(id uint) (*models.Game, bool) {
	for i := range s.games {
		if s.games[i].ID == id {
			return &s.games[i], true
		}
	}
	return nil, false
}

func (s *Store) CreateGame(_ context.Context, game *models.Game, newArgs func(gameID uint) models.GameArgs, seats []models.GamePlayer) (models.GameArgs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	game.ID = s.id()
	game.CreatedAt = time.Now()
	game.UpdatedAt = game.CreatedAt
	s.games = append(s.games, *game)

	args := newArgs(game.ID)
	args.ID = s.id()
	args.GameID = game.ID
	s.gameArgs = append(s.gameArgs, args)

	for _, seat := range seats {
		s.gamePlayers = append(s.gamePlayers, models.GamePlayer{
			ID:       s.id(),
			GameID:   game.ID,
			PlayerID: seat.PlayerID,
			Team:     seat.Team,
		})
	}
	return args, nil
}

func (s *Store) Game(_ context.Context, id uint) (models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.game(id)
	if !ok {
		return models.Game{}, store.ErrNotFound
	}
	return *g, nil
}

func (s *Store) GameArgs(_ context.Context, gameID uint) (models.GameArgs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.gameArgs {
		if a.GameID == gameID {
			return a, nil
		}
	}
	return models.GameArgs{}, store.ErrNotFound
}

func (s *Store) roster(gameID uint, arrivedOnly bool) ([]models.RosterEntry, error) {
	var out []models.RosterEntry
	for _, gp := range s.gamePlayers {
		if gp.GameID != gameID || (arrivedOnly && !gp.Arrived) {
			continue
		}
		for _, p := range s.players {
			if p.ID == gp.PlayerID {
				out = append(out, models.RosterEntry{
					PlayerID:  p.ID,
					DiscordID: p.DiscordID,
					SteamID:   p.SteamID,
					MMR:       p.MMR,
					Team:      gp.Team,
					Arrived:   gp.Arrived,
				})
			}
		}
	}
	if len(out) == 0 {
		return nil, store.ErrNotFound
	}
	return out, nil
}

func (s *Store) Roster(_ context.Context, gameID uint) ([]models.RosterEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster(gameID, false)
}

func (s *Store) ArrivedPlayers(_ context.Context, gameID uint) ([]models.RosterEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster(gameID, true)
}

func (s *Store) FirstGameWithStatus(_ context.Context, status models.GameStatus) (models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.games {
		if g.Status == status {
			return g, nil
		}
	}
	return models.Game{}, store.ErrNotFound
}

func (s *Store) GamesWithStatus(_ context.Context, status models.GameStatus) ([]models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Game
	for _, g := range s.games {
		if g.Status == status {
			out = append(out, g)
		}
	}
	if len(out) == 0 {
		return nil, store.ErrNotFound
	}
	return out, nil
}

func (s *Store) UpdateGameStatus(_ context.Context, id uint, from, to models.GameStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.game(id)
	if !ok || g.Status != from {
		return store.ErrNoRowsModified
	}
	g.Status = to
	g.UpdatedAt = time.Now()
	return nil
}

func (s *Store) ScoreGame(_ context.Context, id uint, result models.Side, steamMatchID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.game(id)
	if !ok || g.Status != models.StatusStarted {
		return store.ErrNoRowsModified
	}
	g.Status = models.StatusOver
	g.Result = &result
	g.SteamMatchID = nil
	if steamMatchID != 0 {
		g.SteamMatchID = &steamMatchID
	}
	return nil
}

func (s *Store) SetArrived(_ context.Context, gameID, playerID uint, arrived bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.gamePlayers {
		gp := &s.gamePlayers[i]
		if gp.GameID == gameID && gp.PlayerID == playerID {
			gp.Arrived = arrived
			return nil
		}
	}
	return store.ErrNoRowsModified
}

func (s *Store) ResetArrivals(_ context.Context, gameID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for i := range s.gamePlayers {
		if s.gamePlayers[i].GameID == gameID {
			s.gamePlayers[i].Arrived = false
			n++
		}
	}
	if n == 0 {
		return store.ErrNoRowsModified
	}
	return nil
}

func (s *Store) ScoredMatchIDs(_ context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []int64
	for _, g := range s.games {
		if g.Status == models.StatusOver && g.SteamMatchID != nil {
			out = append(out, *g.SteamMatchID)
		}
	}
	if len(out) == 0 {
		return nil, store.ErrNotFound
	}
	return out, nil
}

func (s *Store) ResetLeague(_ context.Context, baseline int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games = nil
	s.gamePlayers = nil
	s.gameArgs = nil
	for i := range s.players {
		s.players[i].MMR = baseline
	}
	return nil
}

func (s *Store) ExportHistory(_ context.Context) (models.LeagueSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.LeagueSnapshot{
		Players:     append([]models.Player(nil), s.players...),
		Games:       append([]models.Game(nil), s.games...),
		GamePlayers: append([]models.GamePlayer(nil), s.gamePlayers...),
		GameArgs:    append([]models.GameArgs(nil), s.gameArgs...),
	}, nil
}

// SetStatus forces a game's status, bypassing the lifecycle. Test helper.
func (s *Store) SetStatus(id uint, status models.GameStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.game(id); ok {
		g.Status = status
	}
}

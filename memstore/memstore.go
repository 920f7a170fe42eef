// Package memstore is an in-memory league store with the same error contract
// as the Postgres gateway. It backs service, worker and handler tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"league-orchestrator/models"
	"league-orchestrator/store"
)

type Store struct {
	mu sync.Mutex

	players     []models.Player
	roles       []models.PlayerRole
	games       []models.Game
	gamePlayers []models.GamePlayer
	gameArgs    []models.GameArgs
	bots        []models.SteamBot

	nextID uint
}

func New() *Store {
	return &Store{}
}

func (s *Store) id() uint {
	s.nextID++
	return s.nextID
}

// ---- players ----

func (s *Store) CreatePlayer(_ context.Context, p *models.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.players {
		if existing.DiscordID == p.DiscordID {
			return store.ErrNoRowsModified
		}
	}
	p.ID = s.id()
	p.CreatedAt = time.Now()
	s.players = append(s.players, *p)
	return nil
}

func (s *Store) PlayerByDiscordID(_ context.Context, discordID string) (models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.players {
		if p.DiscordID == discordID {
			return p, nil
		}
	}
	return models.Player{}, store.ErrNotFound
}

func (s *Store) PlayersByDiscordIDs(_ context.Context, discordIDs []string) ([]models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := make(map[string]bool, len(discordIDs))
	for _, id := range discordIDs {
		want[id] = true
	}
	var out []models.Player
	for _, p := range s.players {
		if want[p.DiscordID] {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, store.ErrNotFound
	}
	return out, nil
}

func (s *Store) AllPlayers(_ context.Context) ([]models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.players) == 0 {
		return nil, store.ErrNotFound
	}
	return append([]models.Player(nil), s.players...), nil
}

// Player is a test helper returning a player by id.
func (s *Store) Player(id uint) (models.Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.players {
		if p.ID == id {
			return p, true
		}
	}
	return models.Player{}, false
}

func (s *Store) MarkCaptain(_ context.Context, playerID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.players {
		if s.players[i].ID == playerID {
			s.players[i].Captain = true
			return nil
		}
	}
	return store.ErrNoRowsModified
}

func (s *Store) DeleteRoles(_ context.Context, playerID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.roles[:0]
	for _, r := range s.roles {
		if r.PlayerID != playerID {
			kept = append(kept, r)
		}
	}
	removed := len(s.roles) - len(kept)
	s.roles = kept
	if removed == 0 {
		return store.ErrNoRowsModified
	}
	return nil
}

func (s *Store) AddRole(_ context.Context, playerID uint, role int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles = append(s.roles, models.PlayerRole{ID: s.id(), PlayerID: playerID, Role: role})
	return nil
}

func (s *Store) Roles(_ context.Context, playerID uint) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []int
	for _, r := range s.roles {
		if r.PlayerID == playerID {
			out = append(out, r.Role)
		}
	}
	if len(out) == 0 {
		return nil, store.ErrNotFound
	}
	sort.Ints(out)
	return out, nil
}

func (s *Store) AdjustRatings(_ context.Context, playerIDs []uint, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := make(map[uint]bool, len(playerIDs))
	for _, id := range playerIDs {
		want[id] = true
	}
	n := 0
	for i := range s.players {
		if want[s.players[i].ID] {
			s.players[i].MMR += delta
			n++
		}
	}
	if n == 0 {
		return store.ErrNoRowsModified
	}
	return nil
}

func (s *Store) ResetRatings(_ context.Context, baseline int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.players) == 0 {
		return store.ErrNoRowsModified
	}
	for i := range s.players {
		s.players[i].MMR = baseline
	}
	return nil
}

// ---- stats ----

func (s *Store) playedOver(playerID uint) (played, wins int64) {
	for _, gp := range s.gamePlayers {
		if gp.PlayerID != playerID {
			continue
		}
		g, ok := s.game(gp.GameID)
		if !ok || g.Status != models.StatusOver {
			continue
		}
		played++
		if g.Result != nil && *g.Result == gp.Team {
			wins++
		}
	}
	return played, wins
}

func (s *Store) PlayerRecord(_ context.Context, playerID uint) (models.PlayerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var me *models.Player
	for i := range s.players {
		if s.players[i].ID == playerID {
			me = &s.players[i]
		}
	}
	if me == nil {
		return models.PlayerRecord{}, store.ErrNotFound
	}
	played, wins := s.playedOver(playerID)
	rec := models.PlayerRecord{Played: played, Wins: wins, Losses: played - wins, Rank: 1}
	for _, p := range s.players {
		if n, _ := s.playedOver(p.ID); n > 0 && p.MMR > me.MMR {
			rec.Rank++
		}
	}
	return rec, nil
}

func (s *Store) Leaderboard(_ context.Context) ([]models.Standing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ranked []models.Player
	for _, p := range s.players {
		if n, _ := s.playedOver(p.ID); n > 0 {
			ranked = append(ranked, p)
		}
	}
	if len(ranked) == 0 {
		return nil, store.ErrNotFound
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].MMR > ranked[j].MMR })
	out := make([]models.Standing, len(ranked))
	for i, p := range ranked {
		out[i] = models.Standing{DiscordID: p.DiscordID, MMR: p.MMR}
	}
	return out, nil
}

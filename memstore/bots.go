package memstore

import (
	"context"

	"league-orchestrator/models"
	"league-orchestrator/store"
)

func (s *Store) AddBot(_ context.Context, bot *models.SteamBot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bots {
		if b.Username == bot.Username {
			return store.ErrNoRowsModified
		}
	}
	bot.ID = s.id()
	s.bots = append(s.bots, *bot)
	return nil
}

func (s *Store) FreeBot(_ context.Context) (models.SteamBot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bots {
		if b.Status == models.BotFree {
			return b, nil
		}
	}
	return models.SteamBot{}, store.ErrNotFound
}

func (s *Store) Bot(_ context.Context, id uint) (models.SteamBot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bots {
		if b.ID == id {
			return b, nil
		}
	}
	return models.SteamBot{}, store.ErrNotFound
}

func (s *Store) ReserveBot(_ context.Context, id, gameID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.bots {
		b := &s.bots[i]
		if b.ID == id && b.Status == models.BotFree {
			b.Status = models.BotReserved
			b.ReservedFor = &gameID
			return nil
		}
	}
	return store.ErrNoRowsModified
}

func (s *Store) ClaimFreeBot(_ context.Context, gameID uint) (models.SteamBot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.bots {
		b := &s.bots[i]
		if b.Status == models.BotFree {
			b.Status = models.BotReserved
			b.ReservedFor = &gameID
			return *b, nil
		}
	}
	return models.SteamBot{}, store.ErrNotFound
}

func (s *Store) ReleaseBot(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.bots {
		b := &s.bots[i]
		if b.Username == username && b.Status == models.BotReserved {
			b.Status = models.BotFree
			b.ReservedFor = nil
			return nil
		}
	}
	return store.ErrNoRowsModified
}

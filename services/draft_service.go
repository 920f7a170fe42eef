package services

import (
	"context"
	"math/rand"
	"sync"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"league-orchestrator/models"
)

// GameCreator persists a finished team split as a new game.
type GameCreator interface {
	Create(ctx context.Context, typ models.GameType, teams [2][]uint) (models.Game, models.GameArgs, error)
}

// DraftService keeps the live drafts of the front-end process.
type DraftService struct {
	mu     sync.Mutex
	drafts map[string]*Draft
	rng    *rand.Rand
	games  GameCreator
	log    zerolog.Logger
}

func NewDraftService(games GameCreator, rng *rand.Rand, log zerolog.Logger) *DraftService {
	return &DraftService{
		drafts: make(map[string]*Draft),
		rng:    rng,
		games:  games,
		log:    log,
	}
}

// Start opens a draft for the given players.
func (s *DraftService) Start(players []models.Player) (DraftSnapshot, error) {
	in := make([]DraftPlayer, len(players))
	for i, p := range players {
		in[i] = DraftPlayer{ID: p.ID, DiscordID: p.DiscordID, MMR: p.MMR, Captain: p.Captain}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := NewDraft(in, s.rng)
	if err != nil {
		return DraftSnapshot{}, err
	}
	id := uuid.NewString()
	s.drafts[id] = d

	snap := d.Snapshot()
	snap.ID = id
	s.log.Info().Str("draft_id", id).Str("drafter", snap.Drafter.DiscordID).Int("players", len(players)).Msg("draft started")
	return snap, nil
}

func (s *DraftService) get(id string) (*Draft, error) {
	d, ok := s.drafts[id]
	if !ok {
		return nil, reject("no draft with id %s", id)
	}
	return d, nil
}

func (s *DraftService) Snapshot(id string) (DraftSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.get(id)
	if err != nil {
		return DraftSnapshot{}, err
	}
	snap := d.Snapshot()
	snap.ID = id
	return snap, nil
}

// Active lists the ids of drafts still in progress.
func (s *DraftService) Active() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.drafts))
	for id := range s.drafts {
		ids = append(ids, id)
	}
	return ids
}

func (s *DraftService) ToggleHandoff(id, actor string) (DraftSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.get(id)
	if err != nil {
		return DraftSnapshot{}, err
	}
	if err := d.ToggleHandoff(actor); err != nil {
		return DraftSnapshot{}, err
	}
	snap := d.Snapshot()
	snap.ID = id
	return snap, nil
}

// Pick applies one pick. When it completes the draft, the rosters become a
// DRAFT game and the draft is dropped. A draft whose game could not be created
// stays open, and any later pick (or Finish) retries the creation.
func (s *DraftService) Pick(ctx context.Context, id, actor string, target uint) (DraftSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.get(id)
	if err != nil {
		return DraftSnapshot{}, err
	}
	if d.Done() {
		return s.finish(ctx, id, d)
	}
	done, err := d.Pick(actor, target)
	if err != nil {
		return DraftSnapshot{}, err
	}
	if !done {
		snap := d.Snapshot()
		snap.ID = id
		return snap, nil
	}
	return s.finish(ctx, id, d)
}

// Finish creates the game of a completed draft.
func (s *DraftService) Finish(ctx context.Context, id string) (DraftSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.get(id)
	if err != nil {
		return DraftSnapshot{}, err
	}
	if !d.Done() {
		return DraftSnapshot{}, reject("the draft still has %d players to pick", len(d.pool))
	}
	return s.finish(ctx, id, d)
}

func (s *DraftService) finish(ctx context.Context, id string, d *Draft) (DraftSnapshot, error) {
	snap := d.Snapshot()
	snap.ID = id
	game, _, err := s.games.Create(ctx, models.GameTypeDraft, d.Rosters())
	if err != nil {
		s.log.Error().Err(err).Str("draft_id", id).Msg("draft finished but the game was not created")
		return snap, eris.Wrapf(err, "draft %s finished but the game was not created", id)
	}
	delete(s.drafts, id)
	snap.GameID = game.ID
	s.log.Info().Str("draft_id", id).Uint("game_id", game.ID).Msg("draft complete")
	return snap, nil
}

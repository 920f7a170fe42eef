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

const lobbyPasswordLength = 8

// GameService owns every status change of a game. Each change re-reads the
// current status, checks the edge and writes with the prior status in the
// predicate.
type GameService struct {
	store      GameStore
	ratings    *RatingEngine
	namePrefix string
	log        zerolog.Logger
}

func NewGameService(s GameStore, ratings *RatingEngine, namePrefix string, log zerolog.Logger) *GameService {
	return &GameService{store: s, ratings: ratings, namePrefix: namePrefix, log: log}
}

// Create writes a PREGAME game with its lobby credentials and seats.
func (s *GameService) Create(ctx context.Context, typ models.GameType, teams [2][]uint) (models.Game, models.GameArgs, error) {
	game := models.Game{Status: models.StatusPregame, Type: typ}
	var seats []models.GamePlayer
	for side, ids := range teams {
		for _, id := range ids {
			seats = append(seats, models.GamePlayer{PlayerID: id, Team: models.Side(side)})
		}
	}
	args, err := s.store.CreateGame(ctx, &game, func(gameID uint) models.GameArgs {
		return models.GameArgs{
			LobbyName:     utils.LobbyName(s.namePrefix, gameID),
			LobbyPassword: utils.LobbyPassword(lobbyPasswordLength),
		}
	}, seats)
	if err != nil {
		return game, args, eris.Wrap(err, "failed to create game")
	}
	s.log.Info().Uint("game_id", game.ID).Str("type", string(typ)).Int("players", len(seats)).Msg("game created")
	return game, args, nil
}

func (s *GameService) load(ctx context.Context, id uint) (models.Game, error) {
	g, err := s.store.Game(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return g, reject("no game with id %d", id)
	}
	return g, err
}

func (s *GameService) swap(ctx context.Context, id uint, from, to models.GameStatus) error {
	if !from.CanTransition(to) {
		return reject("game %d cannot move from %s to %s", id, from, to)
	}
	err := s.store.UpdateGameStatus(ctx, id, from, to)
	if errors.Is(err, store.ErrNoRowsModified) {
		return transitionLost("game %d %s -> %s", id, from, to)
	}
	if err != nil {
		return err
	}
	s.log.Info().Uint("game_id", id).Str("from", string(from)).Str("to", string(to)).Msg("game status changed")
	return nil
}

// Transition moves the game to `to` from whatever status it is in now.
func (s *GameService) Transition(ctx context.Context, id uint, to models.GameStatus) error {
	g, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	return s.swap(ctx, id, g.Status, to)
}

// TransitionFrom moves the game only if it is still in `from`.
func (s *GameService) TransitionFrom(ctx context.Context, id uint, from, to models.GameStatus) error {
	return s.swap(ctx, id, from, to)
}

// Status reads the current status.
func (s *GameService) Status(ctx context.Context, id uint) (models.GameStatus, error) {
	g, err := s.load(ctx, id)
	return g.Status, err
}

// Score closes a STARTED game with its winner and applies the rating change.
// The two steps are separate writes; a crash in between leaves the game OVER
// with ratings untouched until the next recompute.
func (s *GameService) Score(ctx context.Context, id uint, winner models.Side, steamMatchID int64) (int, error) {
	g, err := s.load(ctx, id)
	if err != nil {
		return 0, err
	}
	if g.Status.Closed() {
		return 0, reject("game %d is already scored or aborted", id)
	}
	if g.Status != models.StatusStarted {
		return 0, reject("game %d has not started (status %s)", id, g.Status)
	}

	err = s.store.ScoreGame(ctx, id, winner, steamMatchID)
	if errors.Is(err, store.ErrNoRowsModified) {
		return 0, transitionLost("scoring game %d", id)
	}
	if err != nil {
		return 0, eris.Wrapf(err, "failed to score game %d", id)
	}

	roster, err := s.store.Roster(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		s.log.Warn().Uint("game_id", id).Msg("scored game has no players")
		return 0, nil
	}
	if err != nil {
		return 0, eris.Wrapf(err, "failed to load roster of game %d", id)
	}
	delta, err := s.ratings.ApplyMatch(ctx, roster, winner)
	if err != nil {
		return 0, err
	}
	s.log.Info().Uint("game_id", id).Str("winner", winner.String()).Int("delta", delta).Msg("game scored")
	return delta, nil
}

// Cancel marks the game CANCEL and returns it together with the players that
// had already arrived. A running Session Host notices on its next poll.
func (s *GameService) Cancel(ctx context.Context, id uint) (models.Game, []models.RosterEntry, error) {
	g, err := s.load(ctx, id)
	if err != nil {
		return g, nil, err
	}
	if g.Status.Closed() {
		return g, nil, reject("game %d is already over or aborted", id)
	}
	if g.Status == models.StatusCancel {
		return g, nil, reject("game %d is already cancelled", id)
	}
	if err := s.swap(ctx, id, g.Status, models.StatusCancel); err != nil {
		return g, nil, err
	}
	g.Status = models.StatusCancel

	arrived, err := s.arrived(ctx, id)
	return g, arrived, err
}

// Rehost clears every arrival and sends a PREGAME game back through REHOST.
// It returns the full roster.
func (s *GameService) Rehost(ctx context.Context, id uint) (models.Game, []models.RosterEntry, error) {
	g, err := s.load(ctx, id)
	if err != nil {
		return g, nil, err
	}
	if !g.Status.CanTransition(models.StatusRehost) {
		return g, nil, reject("game %d cannot be rehosted (status %s)", id, g.Status)
	}
	if err := s.store.ResetArrivals(ctx, id); err != nil && !errors.Is(err, store.ErrNoRowsModified) {
		return g, nil, eris.Wrapf(err, "failed to reset arrivals of game %d", id)
	}
	if err := s.swap(ctx, id, g.Status, models.StatusRehost); err != nil {
		return g, nil, err
	}
	g.Status = models.StatusRehost

	roster, err := s.store.Roster(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return g, nil, nil
	}
	return g, roster, err
}

// AbortTimedOut closes a TIMEOUT game as ABORTED and returns who had arrived.
func (s *GameService) AbortTimedOut(ctx context.Context, id uint) ([]models.RosterEntry, error) {
	arrived, err := s.arrived(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.swap(ctx, id, models.StatusTimeout, models.StatusAborted); err != nil {
		return nil, err
	}
	return arrived, nil
}

// WithStatus lists games in a status, oldest first. None is not an error.
func (s *GameService) WithStatus(ctx context.Context, status models.GameStatus) ([]models.Game, error) {
	games, err := s.store.GamesWithStatus(ctx, status)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return games, err
}

func (s *GameService) arrived(ctx context.Context, id uint) ([]models.RosterEntry, error) {
	arrived, err := s.store.ArrivedPlayers(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "failed to load arrivals of game %d", id)
	}
	return arrived, nil
}

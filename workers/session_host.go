package workers

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"league-orchestrator/models"
	"league-orchestrator/services"
	"league-orchestrator/store"
)

// Lobby drives an in-game lobby through the game client.
type Lobby interface {
	Create(ctx context.Context, req LobbyRequest) (string, error)
	Invite(ctx context.Context, lobbyID string, steamIDs []int64) error
	// Members lists who currently sits in a team slot of the lobby.
	Members(ctx context.Context, lobbyID string) ([]services.Seat, error)
	Launch(ctx context.Context, lobbyID string) error
	Destroy(ctx context.Context, lobbyID string) error
}

// LobbyRequest is everything the game client needs to open a lobby.
type LobbyRequest struct {
	BotUsername string `json:"bot_username"`
	BotPassword string `json:"bot_password"`
	Name        string `json:"name"`
	Password    string `json:"password"`
	GameMode    int    `json:"game_mode"`
	LeagueID    int    `json:"league_id"`
}

// HostStore is the slice of the store a Session Host touches.
type HostStore interface {
	GameArgs(ctx context.Context, gameID uint) (models.GameArgs, error)
	Roster(ctx context.Context, gameID uint) ([]models.RosterEntry, error)
	SetArrived(ctx context.Context, gameID, playerID uint, arrived bool) error
}

type SessionHostConfig struct {
	MemberPoll time.Duration
	CancelPoll time.Duration
}

// SessionHost runs one match lobby from creation until the game starts,
// times out or is cancelled. It is the body of `league host`.
type SessionHost struct {
	store HostStore
	games *services.GameService
	bots  *services.BotPool
	lobby Lobby
	cfg   SessionHostConfig
	log   zerolog.Logger
}

func NewSessionHost(s HostStore, games *services.GameService, bots *services.BotPool, lobby Lobby, cfg SessionHostConfig, log zerolog.Logger) *SessionHost {
	if cfg.MemberPoll <= 0 {
		cfg.MemberPoll = 2 * time.Second
	}
	if cfg.CancelPoll <= 0 {
		cfg.CancelPoll = 15 * time.Second
	}
	return &SessionHost{store: s, games: games, bots: bots, lobby: lobby, cfg: cfg, log: log}
}

// Run hosts spec.GameID and returns the status the game was left in. The bot
// is released on every path.
func (h *SessionHost) Run(ctx context.Context, spec services.HostSpec) (models.GameStatus, error) {
	log := h.log.With().Uint("game_id", spec.GameID).Uint("bot_id", spec.BotID).Logger()

	bot, err := h.bots.Bot(ctx, spec.BotID)
	if err != nil {
		return "", eris.Wrapf(err, "failed to load bot %d", spec.BotID)
	}
	defer func() {
		// The parent context may be gone by now; the bot must still go back.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.bots.Release(releaseCtx, bot.Username); err != nil {
			log.Error().Err(err).Str("bot", bot.Username).Msg("failed to release bot")
		}
	}()

	current, err := h.awaitHosted(ctx, log, spec)
	if err != nil {
		return "", err
	}
	if current != models.StatusHosted && current != models.StatusCancel {
		log.Warn().Str("status", string(current)).Msg("game was not handed to this host, stopping")
		return current, nil
	}

	args, err := h.store.GameArgs(ctx, spec.GameID)
	if err != nil {
		return h.abort(ctx, log, spec.GameID, eris.Wrap(err, "failed to load lobby arguments"))
	}
	roster, err := h.store.Roster(ctx, spec.GameID)
	if err != nil {
		return h.abort(ctx, log, spec.GameID, eris.Wrap(err, "failed to load roster"))
	}

	lobbyID, err := h.lobby.Create(ctx, LobbyRequest{
		BotUsername: bot.Username,
		BotPassword: bot.Password,
		Name:        args.LobbyName,
		Password:    args.LobbyPassword,
		GameMode:    spec.GameMode,
		LeagueID:    spec.LeagueID,
	})
	if err != nil {
		return h.abort(ctx, log, spec.GameID, eris.Wrap(err, "failed to create lobby"))
	}
	log = log.With().Str("lobby_id", lobbyID).Logger()
	log.Info().Str("lobby", args.LobbyName).Msg("lobby created")

	launched := false
	defer func() {
		if launched {
			return
		}
		destroyCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.lobby.Destroy(destroyCtx, lobbyID); err != nil {
			log.Warn().Err(err).Msg("failed to destroy lobby")
		}
	}()

	steamIDs := make([]int64, len(roster))
	for i, r := range roster {
		steamIDs[i] = r.SteamID
	}
	if err := h.lobby.Invite(ctx, lobbyID, steamIDs); err != nil {
		return h.abort(ctx, log, spec.GameID, eris.Wrap(err, "failed to invite players"))
	}

	timeout := time.NewTimer(spec.LobbyTimeout)
	defer timeout.Stop()
	members := time.NewTicker(h.cfg.MemberPoll)
	defer members.Stop()
	status := time.NewTicker(h.cfg.CancelPoll)
	defer status.Stop()

	arrived := make(map[uint]bool, len(roster))
	for _, r := range roster {
		arrived[r.PlayerID] = r.Arrived
	}

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()

		case <-timeout.C:
			log.Warn().Dur("timeout", spec.LobbyTimeout).Msg("lobby timed out")
			if err := h.games.TransitionFrom(ctx, spec.GameID, models.StatusHosted, models.StatusTimeout); err != nil {
				return "", err
			}
			return models.StatusTimeout, nil

		case <-status.C:
			current, err := h.games.Status(ctx, spec.GameID)
			if err != nil {
				log.Warn().Err(err).Msg("failed to read game status")
				continue
			}
			switch current {
			case models.StatusHosted:
			case models.StatusCancel:
				log.Info().Msg("game cancelled, closing lobby")
				if err := h.games.TransitionFrom(ctx, spec.GameID, models.StatusCancel, models.StatusAborted); err != nil &&
					!errors.Is(err, services.ErrTransitionLost) {
					return "", err
				}
				return models.StatusAborted, nil
			default:
				log.Warn().Str("status", string(current)).Msg("game left HOSTED elsewhere, stopping")
				return current, nil
			}

		case <-members.C:
			seats, err := h.lobby.Members(ctx, lobbyID)
			if err != nil {
				log.Warn().Err(err).Msg("failed to read lobby members")
				continue
			}
			all, err := h.syncArrivals(ctx, spec.GameID, roster, seats, arrived)
			if err != nil {
				return "", err
			}
			if !all {
				continue
			}
			if err := h.lobby.Launch(ctx, lobbyID); err != nil {
				return h.abort(ctx, log, spec.GameID, eris.Wrap(err, "failed to launch game"))
			}
			launched = true
			if err := h.games.TransitionFrom(ctx, spec.GameID, models.StatusHosted, models.StatusStarted); err != nil {
				return "", err
			}
			log.Info().Msg("all players arrived, game started")
			return models.StatusStarted, nil
		}
	}
}

// awaitHosted waits out the window between the orchestrator starting this
// process and its PREGAME to HOSTED swap. Nothing is written to the game
// before that swap lands, so an early failure cannot be overwritten by it.
func (h *SessionHost) awaitHosted(ctx context.Context, log zerolog.Logger, spec services.HostSpec) (models.GameStatus, error) {
	deadline := time.NewTimer(spec.LobbyTimeout)
	defer deadline.Stop()
	for {
		current, err := h.games.Status(ctx, spec.GameID)
		if err != nil {
			return "", eris.Wrapf(err, "failed to read status of game %d", spec.GameID)
		}
		if current != models.StatusPregame {
			return current, nil
		}
		log.Debug().Msg("waiting for the game to be handed over")
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-deadline.C:
			return "", eris.Errorf("game %d was never moved out of PREGAME", spec.GameID)
		case <-time.After(h.cfg.MemberPoll):
		}
	}
}

// syncArrivals writes every arrival change and reports whether the whole
// roster is present on its assigned side.
func (h *SessionHost) syncArrivals(ctx context.Context, gameID uint, roster []models.RosterEntry, seats []services.Seat, arrived map[uint]bool) (bool, error) {
	present := make(map[services.Seat]bool, len(seats))
	for _, s := range seats {
		present[s] = true
	}
	all := true
	for _, r := range roster {
		now := present[services.Seat{SteamID: r.SteamID, Team: r.Team}]
		if !now {
			all = false
		}
		if now == arrived[r.PlayerID] {
			continue
		}
		err := h.store.SetArrived(ctx, gameID, r.PlayerID, now)
		if err != nil && !errors.Is(err, store.ErrNoRowsModified) {
			return false, eris.Wrapf(err, "failed to record arrival of %s", r.DiscordID)
		}
		arrived[r.PlayerID] = now
		h.log.Debug().Uint("game_id", gameID).Str("player", r.DiscordID).Bool("arrived", now).Msg("arrival changed")
	}
	return all, nil
}

// abort closes the game as ABORTED after a lobby failure. A cancel that
// landed meanwhile is closed the same way.
func (h *SessionHost) abort(ctx context.Context, log zerolog.Logger, gameID uint, cause error) (models.GameStatus, error) {
	log.Error().Err(cause).Msg("session host failed")
	err := h.games.TransitionFrom(ctx, gameID, models.StatusHosted, models.StatusAborted)
	if errors.Is(err, services.ErrTransitionLost) {
		err = h.games.TransitionFrom(ctx, gameID, models.StatusCancel, models.StatusAborted)
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to abort game")
	}
	return models.StatusAborted, cause
}

package services

import (
	"context"
	"errors"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"league-orchestrator/models"
	"league-orchestrator/store"
)

// FormedMatch is what a full queue turned into: a NORMAL game or a live draft.
type FormedMatch struct {
	Kind  QueueKind        `json:"kind"`
	Game  *models.Game     `json:"game,omitempty"`
	Args  *models.GameArgs `json:"-"`
	Draft *DraftSnapshot   `json:"draft,omitempty"`
	Diff  int              `json:"diff,omitempty"`
}

// Matchmaker owns both queues of the front-end process. All queue changes go
// through it one at a time.
type Matchmaker struct {
	mu        sync.Mutex
	queues    map[QueueKind]Queue
	players   PlayerStore
	games     *GameService
	drafts    *DraftService
	balancer  *Balancer
	lobbySize int
	log       zerolog.Logger
}

func NewMatchmaker(
	normal, draft Queue,
	players PlayerStore,
	games *GameService,
	drafts *DraftService,
	balancer *Balancer,
	lobbySize int,
	log zerolog.Logger,
) *Matchmaker {
	return &Matchmaker{
		queues:    map[QueueKind]Queue{QueueNormal: normal, QueueDraft: draft},
		players:   players,
		games:     games,
		drafts:    drafts,
		balancer:  balancer,
		lobbySize: lobbySize,
		log:       log,
	}
}

func kindForGame(typ models.GameType) QueueKind {
	if typ == models.GameTypeDraft {
		return QueueDraft
	}
	return QueueNormal
}

// Join queues a vouched player and forms a match if the queue is now full.
func (m *Matchmaker) Join(ctx context.Context, discordID string, kind QueueKind) (*FormedMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.players.PlayerByDiscordID(ctx, discordID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, reject("<@%s> is not vouched", discordID)
		}
		return nil, err
	}
	joined, err := m.queues[kind].Join(ctx, discordID)
	if err != nil {
		return nil, err
	}
	if !joined {
		return nil, reject("you are already in the %s queue", kind)
	}
	m.log.Debug().Str("player", discordID).Str("queue", string(kind)).Msg("joined queue")
	return m.fill(ctx, kind)
}

// LeaveAll removes the player from every queue and reports which ones they were in.
func (m *Matchmaker) LeaveAll(ctx context.Context, discordID string) ([]QueueKind, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var left []QueueKind
	for _, kind := range queueKinds {
		ok, err := m.queues[kind].Leave(ctx, discordID)
		if err != nil {
			return left, err
		}
		if ok {
			left = append(left, kind)
		}
	}
	if len(left) == 0 {
		return nil, reject("you are not in any queue")
	}
	return left, nil
}

func (m *Matchmaker) Clear(ctx context.Context, kind QueueKind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queues[kind].Clear(ctx)
}

// Snapshot returns the members of both queues.
func (m *Matchmaker) Snapshot(ctx context.Context) (map[QueueKind][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[QueueKind][]string, len(queueKinds))
	for _, kind := range queueKinds {
		members, err := m.queues[kind].Members(ctx)
		if err != nil {
			return nil, err
		}
		out[kind] = members
	}
	return out, nil
}

// fill pops a full lobby, if there is one, and turns it into a match. The
// popped players are put back at the front if that fails, and only leave the
// other queue once the match exists.
func (m *Matchmaker) fill(ctx context.Context, kind QueueKind) (*FormedMatch, error) {
	ids, err := m.queues[kind].PopIfFull(ctx, m.lobbySize)
	if err != nil || ids == nil {
		return nil, err
	}

	formed, err := m.form(ctx, kind, ids)
	if err != nil {
		if perr := m.queues[kind].Prepend(ctx, ids); perr != nil {
			m.log.Error().Err(perr).Strs("players", ids).Msg("failed to requeue players")
		}
		return nil, err
	}
	for _, id := range ids {
		if _, err := m.queues[kind.Other()].Leave(ctx, id); err != nil {
			m.log.Warn().Err(err).Str("player", id).Msg("failed to leave other queue")
		}
	}
	return formed, nil
}

func (m *Matchmaker) form(ctx context.Context, kind QueueKind, ids []string) (*FormedMatch, error) {
	found, err := m.players.PlayersByDiscordIDs(ctx, ids)
	if err != nil {
		return nil, eris.Wrap(err, "failed to load queued players")
	}
	byDiscord := make(map[string]models.Player, len(found))
	for _, p := range found {
		byDiscord[p.DiscordID] = p
	}
	players := make([]models.Player, 0, len(ids))
	for _, id := range ids {
		p, ok := byDiscord[id]
		if !ok {
			return nil, eris.Errorf("queued player %s is not vouched", id)
		}
		players = append(players, p)
	}

	if kind == QueueDraft {
		snap, err := m.drafts.Start(players)
		if err != nil {
			return nil, err
		}
		return &FormedMatch{Kind: kind, Draft: &snap}, nil
	}

	rated := make([]Rated, len(players))
	for i, p := range players {
		rated[i] = Rated{ID: p.ID, Rating: p.MMR}
	}
	split, err := m.balancer.Balance(rated)
	if err != nil {
		return nil, err
	}
	var teams [2][]uint
	for side, members := range split.Sides {
		for _, r := range members {
			teams[side] = append(teams[side], r.ID)
		}
	}
	game, args, err := m.games.Create(ctx, models.GameTypeNormal, teams)
	if err != nil {
		return nil, err
	}
	m.log.Info().Uint("game_id", game.ID).Int("diff", split.Diff).Int("best_diff", split.BestDiff).Msg("teams balanced")
	return &FormedMatch{Kind: kind, Game: &game, Args: &args, Diff: split.Diff}, nil
}

// returnPlayers puts players back at the front of a queue and re-checks it.
func (m *Matchmaker) returnPlayers(ctx context.Context, kind QueueKind, roster []models.RosterEntry) (*FormedMatch, error) {
	if len(roster) == 0 {
		return nil, nil
	}
	ids := make([]string, len(roster))
	for i, r := range roster {
		ids[i] = r.DiscordID
	}
	if err := m.queues[kind].Prepend(ctx, ids); err != nil {
		return nil, err
	}
	m.log.Info().Strs("players", ids).Str("queue", string(kind)).Msg("players returned to queue")
	return m.fill(ctx, kind)
}

// Cancel cancels a game and returns its arrived players to their queue.
func (m *Matchmaker) Cancel(ctx context.Context, gameID uint) (*FormedMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	game, arrived, err := m.games.Cancel(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return m.returnPlayers(ctx, kindForGame(game.Type), arrived)
}

// Rehost sends a game back to the pregame pool. Its players stop waiting in
// any queue since they are in a game again.
func (m *Matchmaker) Rehost(ctx context.Context, gameID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, roster, err := m.games.Rehost(ctx, gameID)
	if err != nil {
		return err
	}
	for _, r := range roster {
		for _, kind := range queueKinds {
			if _, err := m.queues[kind].Leave(ctx, r.DiscordID); err != nil {
				return err
			}
		}
	}
	return nil
}

// HandleTimeouts closes every TIMEOUT game as ABORTED and requeues whoever had
// arrived. It returns how many games were closed.
func (m *Matchmaker) HandleTimeouts(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	games, err := m.games.WithStatus(ctx, models.StatusTimeout)
	if err != nil {
		return 0, err
	}
	closed := 0
	for _, g := range games {
		arrived, err := m.games.AbortTimedOut(ctx, g.ID)
		if errors.Is(err, ErrTransitionLost) {
			continue
		}
		if err != nil {
			return closed, err
		}
		closed++
		m.log.Info().Uint("game_id", g.ID).Int("arrived", len(arrived)).Msg("timed out game aborted")
		if _, err := m.returnPlayers(ctx, kindForGame(g.Type), arrived); err != nil {
			return closed, err
		}
	}
	return closed, nil
}

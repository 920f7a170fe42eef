package services

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"league-orchestrator/models"
	"league-orchestrator/store"
)

// Seat is one player of an external match, identified by steam64 id.
type Seat struct {
	SteamID int64
	Team    models.Side
}

// ExternalMatch is a league match as reported by the game network.
type ExternalMatch struct {
	MatchID int64
	Seats   []Seat
}

// MatchHistorySource reads league results from the game network.
type MatchHistorySource interface {
	LeagueMatches(ctx context.Context, leagueID int) ([]ExternalMatch, error)
	MatchWinner(ctx context.Context, matchID int64) (models.Side, error)
}

type ScoredMatch struct {
	MatchID int64       `json:"match_id"`
	GameID  uint        `json:"game_id"`
	Winner  models.Side `json:"winner"`
	Delta   int         `json:"delta"`
}

// AutoscoreReport lists what one run did with every unseen external match.
type AutoscoreReport struct {
	Scored    []ScoredMatch `json:"scored"`
	Unmatched []int64       `json:"unmatched"`
	Ambiguous []int64       `json:"ambiguous"`
}

// Autoscorer scores STARTED games by matching their rosters against the
// league's external match history.
type Autoscorer struct {
	games    GameStore
	scorer   *GameService
	source   MatchHistorySource
	leagueID int
	skip     map[int64]bool
	running  atomic.Bool
	log      zerolog.Logger
}

func NewAutoscorer(games GameStore, scorer *GameService, source MatchHistorySource, leagueID int, skip []int64, log zerolog.Logger) *Autoscorer {
	a := &Autoscorer{
		games:    games,
		scorer:   scorer,
		source:   source,
		leagueID: leagueID,
		skip:     make(map[int64]bool, len(skip)),
		log:      log,
	}
	for _, id := range skip {
		a.skip[id] = true
	}
	return a
}

type seatSet map[Seat]struct{}

func newSeatSet(seats []Seat) seatSet {
	set := make(seatSet, len(seats))
	for _, s := range seats {
		set[s] = struct{}{}
	}
	return set
}

func (s seatSet) equal(other seatSet) bool {
	if len(s) != len(other) {
		return false
	}
	for k := range s {
		if _, ok := other[k]; !ok {
			return false
		}
	}
	return true
}

// Run performs one autoscore pass. Only one pass runs at a time.
func (a *Autoscorer) Run(ctx context.Context) (AutoscoreReport, error) {
	var report AutoscoreReport
	if a.leagueID == 0 {
		return report, reject("league id not set, autoscore can not be used")
	}
	if !a.running.CompareAndSwap(false, true) {
		return report, reject("autoscoring already in progress")
	}
	defer a.running.Store(false)

	matches, err := a.source.LeagueMatches(ctx, a.leagueID)
	if err != nil {
		return report, eris.Wrap(err, "failed to fetch league matches")
	}
	if len(matches) == 0 {
		return report, reject("no matches found in league %d", a.leagueID)
	}

	active, err := a.games.GamesWithStatus(ctx, models.StatusStarted)
	if errors.Is(err, store.ErrNotFound) {
		return report, reject("no games in progress")
	}
	if err != nil {
		return report, err
	}

	rosters := make(map[uint]seatSet, len(active))
	for _, g := range active {
		roster, err := a.games.Roster(ctx, g.ID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return report, err
		}
		seats := make([]Seat, len(roster))
		for i, r := range roster {
			seats[i] = Seat{SteamID: r.SteamID, Team: r.Team}
		}
		rosters[g.ID] = newSeatSet(seats)
	}

	skip := make(map[int64]bool, len(a.skip))
	for id := range a.skip {
		skip[id] = true
	}
	scored, err := a.games.ScoredMatchIDs(ctx)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return report, err
	}
	for _, id := range scored {
		skip[id] = true
	}

	for _, m := range matches {
		if len(rosters) == 0 {
			break
		}
		if skip[m.MatchID] {
			continue
		}
		seats := newSeatSet(m.Seats)
		var candidates []uint
		for gameID, roster := range rosters {
			if roster.equal(seats) {
				candidates = append(candidates, gameID)
			}
		}

		switch len(candidates) {
		case 0:
			report.Unmatched = append(report.Unmatched, m.MatchID)
			continue
		case 1:
		default:
			report.Ambiguous = append(report.Ambiguous, m.MatchID)
			for _, id := range candidates {
				delete(rosters, id)
			}
			continue
		}

		gameID := candidates[0]
		delete(rosters, gameID)
		winner, err := a.source.MatchWinner(ctx, m.MatchID)
		if err != nil {
			return report, eris.Wrapf(err, "failed to fetch result of match %d", m.MatchID)
		}
		delta, err := a.scorer.Score(ctx, gameID, winner, m.MatchID)
		if err != nil {
			return report, err
		}
		report.Scored = append(report.Scored, ScoredMatch{MatchID: m.MatchID, GameID: gameID, Winner: winner, Delta: delta})
	}

	a.log.Info().
		Int("scored", len(report.Scored)).
		Int("unmatched", len(report.Unmatched)).
		Int("ambiguous", len(report.Ambiguous)).
		Msg("autoscore finished")
	return report, nil
}

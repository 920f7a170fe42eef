package services

import (
	"context"
	"errors"
	"math"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"league-orchestrator/models"
	"league-orchestrator/store"
)

const (
	// KFactor scales every rating change.
	KFactor = 50
	// emptySideDelta applies when one side has nobody to average.
	emptySideDelta = 25
)

// MatchDelta returns the flat rating change for a match between two team
// averages. Every winner gains it and every loser loses it.
func MatchDelta(radiantAvg, direAvg float64, winner models.Side) int {
	expected := 1 / (1 + math.Pow(10, (direAvg-radiantAvg)/400))
	actual := 0.0
	if winner == models.SideRadiant {
		actual = 1
	}
	// Equal averages fall through with expected 0.5, so the winner always moves
	// by exactly K/2.
	change := KFactor * (actual - expected)
	return int(math.RoundToEven(math.Abs(change)))
}

// teamAverage rounds half to even. ok is false for an empty side.
func teamAverage(roster []models.RosterEntry, side models.Side) (avg float64, ok bool) {
	sum, n := 0, 0
	for _, r := range roster {
		if r.Team == side {
			sum += r.MMR
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return math.RoundToEven(float64(sum) / float64(n)), true
}

// RosterDelta computes the delta for a seated roster.
func RosterDelta(roster []models.RosterEntry, winner models.Side) int {
	radiant, okR := teamAverage(roster, models.SideRadiant)
	dire, okD := teamAverage(roster, models.SideDire)
	if !okR || !okD {
		return emptySideDelta
	}
	return MatchDelta(radiant, dire, winner)
}

type RatingEngine struct {
	store    RatingStore
	baseline int
	log      zerolog.Logger
}

func NewRatingEngine(s RatingStore, baseline int, log zerolog.Logger) *RatingEngine {
	return &RatingEngine{store: s, baseline: baseline, log: log}
}

// ApplyMatch moves every winner up and every loser down by the same delta.
func (e *RatingEngine) ApplyMatch(ctx context.Context, roster []models.RosterEntry, winner models.Side) (int, error) {
	delta := RosterDelta(roster, winner)

	var winners, losers []uint
	for _, r := range roster {
		if r.Team == winner {
			winners = append(winners, r.PlayerID)
		} else {
			losers = append(losers, r.PlayerID)
		}
	}
	if len(winners) > 0 {
		if err := e.store.AdjustRatings(ctx, winners, delta); err != nil {
			return 0, eris.Wrap(err, "failed to credit winners")
		}
	}
	if len(losers) > 0 {
		if err := e.store.AdjustRatings(ctx, losers, -delta); err != nil {
			return 0, eris.Wrap(err, "failed to debit losers")
		}
	}
	return delta, nil
}

// Recompute resets every rating to the baseline and replays all scored games
// in ascending id order. It returns the number of games replayed.
func (e *RatingEngine) Recompute(ctx context.Context) (int, error) {
	if err := e.store.ResetRatings(ctx, e.baseline); err != nil {
		if errors.Is(err, store.ErrNoRowsModified) {
			return 0, nil
		}
		return 0, eris.Wrap(err, "failed to reset ratings")
	}

	games, err := e.store.GamesWithStatus(ctx, models.StatusOver)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, eris.Wrap(err, "failed to list scored games")
	}

	replayed := 0
	for _, g := range games {
		if g.Result == nil {
			e.log.Warn().Uint("game_id", g.ID).Msg("scored game without result, skipping")
			continue
		}
		roster, err := e.store.Roster(ctx, g.ID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return replayed, eris.Wrapf(err, "failed to load roster of game %d", g.ID)
		}
		if _, err := e.ApplyMatch(ctx, roster, *g.Result); err != nil {
			return replayed, eris.Wrapf(err, "failed to replay game %d", g.ID)
		}
		replayed++
	}
	e.log.Info().Int("games", replayed).Int("baseline", e.baseline).Msg("ratings recomputed")
	return replayed, nil
}

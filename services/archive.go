package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Uploader stores an archive object and returns where it lives.
type Uploader interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// LeagueReset wipes the match history, archiving it first when an uploader
// is configured.
type LeagueReset struct {
	games    GameStore
	uploader Uploader
	league   string
	baseline int
	log      zerolog.Logger
}

// NewLeagueReset accepts a nil uploader, in which case nothing is archived.
func NewLeagueReset(games GameStore, uploader Uploader, league string, baseline int, log zerolog.Logger) *LeagueReset {
	return &LeagueReset{games: games, uploader: uploader, league: league, baseline: baseline, log: log}
}

// Reset returns the archive location, or "" when archiving is off.
func (r *LeagueReset) Reset(ctx context.Context) (string, error) {
	location := ""
	if r.uploader != nil {
		snap, err := r.games.ExportHistory(ctx)
		if err != nil {
			return "", eris.Wrap(err, "failed to export league history")
		}
		snap.TakenAt = time.Now().UTC()
		body, err := json.Marshal(snap)
		if err != nil {
			return "", eris.Wrap(err, "failed to encode league history")
		}
		key := fmt.Sprintf("archives/%s/%s-%s.json",
			slug.Make(r.league), snap.TakenAt.Format("20060102T150405Z"), uuid.NewString())
		location, err = r.uploader.Upload(ctx, key, body, "application/json")
		if err != nil {
			return "", err
		}
		r.log.Info().Str("location", location).Int("games", len(snap.Games)).Msg("league history archived")
	}

	if err := r.games.ResetLeague(ctx, r.baseline); err != nil {
		return location, eris.Wrap(err, "failed to reset league")
	}
	r.log.Warn().Int("baseline", r.baseline).Msg("league reset")
	return location, nil
}

package workers

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// TimeoutHandler closes TIMEOUT games and requeues their players.
type TimeoutHandler interface {
	HandleTimeouts(ctx context.Context) (int, error)
}

// PollTimeouts runs handler every interval until ctx is done.
func PollTimeouts(ctx context.Context, handler TimeoutHandler, interval time.Duration, log zerolog.Logger) {
	log.Info().Dur("interval", interval).Msg("timeout poller started")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("timeout poller stopped")
			return
		case <-ticker.C:
			n, err := handler.HandleTimeouts(ctx)
			if err != nil {
				log.Error().Err(err).Msg("failed to handle timed out games")
				continue
			}
			if n > 0 {
				log.Info().Int("games", n).Msg("timed out games closed")
			}
		}
	}
}

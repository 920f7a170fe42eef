// services/scheduler.go
package services

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"league-orchestrator/models"
	"league-orchestrator/store"
)

// HostSpec is what a Session Host is started with.
type HostSpec struct {
	GameID       uint
	BotID        uint
	LeagueID     int
	GameMode     int
	LobbyTimeout time.Duration
}

// HostProcess is a running Session Host.
type HostProcess interface {
	Kill() error
}

// Launcher starts Session Hosts out of band.
type Launcher interface {
	Launch(ctx context.Context, spec HostSpec) (HostProcess, error)
}

type OrchestratorConfig struct {
	Interval     time.Duration
	LeagueID     int
	GameMode     int
	LobbyTimeout time.Duration
}

// Orchestrator hosts PREGAME games and recycles REHOST games on a fixed poll.
type Orchestrator struct {
	games     GameStore
	lifecycle *GameService
	bots      *BotPool
	launcher  Launcher
	cfg       OrchestratorConfig
	log       zerolog.Logger
}

func NewOrchestrator(games GameStore, lifecycle *GameService, bots *BotPool, launcher Launcher, cfg OrchestratorConfig, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		games:     games,
		lifecycle: lifecycle,
		bots:      bots,
		launcher:  launcher,
		cfg:       cfg,
		log:       log,
	}
}

// Tick runs one poll: host the oldest PREGAME game, then recycle the oldest
// REHOST game. A missing bot skips hosting until the next tick.
func (o *Orchestrator) Tick(ctx context.Context) error {
	hostErr := o.hostNext(ctx)
	if errors.Is(hostErr, ErrResourceExhausted) {
		o.log.Debug().Msg("no free bot, waiting for next poll")
		hostErr = nil
	}
	rehostErr := o.recycleNext(ctx)
	return errors.Join(hostErr, rehostErr)
}

func (o *Orchestrator) hostNext(ctx context.Context) error {
	game, err := o.games.FirstGameWithStatus(ctx, models.StatusPregame)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return eris.Wrap(err, "failed to find pregame game")
	}

	bot, err := o.bots.Claim(ctx, game.ID)
	if err != nil {
		return err
	}

	proc, err := o.launcher.Launch(ctx, HostSpec{
		GameID:       game.ID,
		BotID:        bot.ID,
		LeagueID:     o.cfg.LeagueID,
		GameMode:     o.cfg.GameMode,
		LobbyTimeout: o.cfg.LobbyTimeout,
	})
	if err != nil {
		o.release(ctx, bot.Username)
		return eris.Wrapf(err, "failed to launch host for game %d", game.ID)
	}

	if err := o.lifecycle.TransitionFrom(ctx, game.ID, models.StatusPregame, models.StatusHosted); err != nil {
		// Someone else moved the game first; this host must not run.
		if kerr := proc.Kill(); kerr != nil {
			o.log.Error().Err(kerr).Uint("game_id", game.ID).Msg("failed to stop surplus host")
		}
		o.release(ctx, bot.Username)
		if errors.Is(err, ErrTransitionLost) {
			o.log.Warn().Uint("game_id", game.ID).Msg("game left PREGAME before it was hosted")
			return nil
		}
		return err
	}
	o.log.Info().Uint("game_id", game.ID).Str("bot", bot.Username).Msg("session host launched")
	return nil
}

func (o *Orchestrator) release(ctx context.Context, username string) {
	if err := o.bots.Release(ctx, username); err != nil {
		o.log.Error().Err(err).Str("bot", username).Msg("failed to release bot")
	}
}

func (o *Orchestrator) recycleNext(ctx context.Context) error {
	game, err := o.games.FirstGameWithStatus(ctx, models.StatusRehost)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return eris.Wrap(err, "failed to find rehost game")
	}
	err = o.lifecycle.TransitionFrom(ctx, game.ID, models.StatusRehost, models.StatusPregame)
	if errors.Is(err, ErrTransitionLost) {
		return nil
	}
	return err
}

// Start schedules Tick every interval. Overlapping runs are skipped.
func (o *Orchestrator) Start(ctx context.Context) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, eris.Wrap(err, "failed to create scheduler")
	}
	_, err = sched.NewJob(
		gocron.DurationJob(o.cfg.Interval),
		gocron.NewTask(func() {
			if err := o.Tick(ctx); err != nil {
				ev := o.log.Warn()
				if errors.Is(err, store.ErrStoreBusy) {
					ev = o.log.Error()
				}
				ev.Err(err).Msg("orchestrator poll failed")
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return nil, eris.Wrap(err, "failed to schedule orchestrator")
	}
	sched.Start()
	o.log.Info().Dur("interval", o.cfg.Interval).Msg("orchestrator started")
	return sched, nil
}

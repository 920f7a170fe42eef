package cmd

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"league-orchestrator/config"
	"league-orchestrator/handlers"
	"league-orchestrator/services"
	"league-orchestrator/utils"
	"league-orchestrator/workers"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run the front-end API, the queues and the timeout poller",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := flags.load("api")
			if err != nil {
				return err
			}
			if cfg.Env.ServiceToken == "" {
				return eris.New("SERVICE_TOKEN environment variable is required")
			}
			return serve(cmd.Context(), cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		return err
	}
	lg := newLeague(st, cfg.Settings, log)

	normal, draft, closeQueues, err := openQueues(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeQueues()

	drafts := services.NewDraftService(lg.games, newRand(), log)
	mm := services.NewMatchmaker(normal, draft, st, lg.games, drafts, services.NewBalancer(newRand()), cfg.Settings.LobbySize, log)

	reset, err := newLeagueReset(ctx, st, cfg, log)
	if err != nil {
		return err
	}

	api := &handlers.API{
		Players:    lg.players,
		Games:      lg.games,
		Matchmaker: mm,
		Drafts:     drafts,
		Ratings:    lg.ratings,
		Autoscore: services.NewAutoscorer(st, lg.games, workers.NewSteamAPI(cfg.Env.SteamAPIKey),
			cfg.Settings.LeagueID, cfg.Settings.SkipMatches, log),
		Reset: reset,
		Log:   log,
	}
	app := handlers.NewApp(api, handlers.AppConfig{
		ServiceToken:   cfg.Env.ServiceToken,
		AllowedOrigins: cfg.Env.AllowOrigins,
	})

	go workers.PollTimeouts(ctx, mm, cfg.Settings.TimeoutPollInterval, log)

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Env.ListenAddr).Msg("api listening")
		errc <- app.Listen(cfg.Env.ListenAddr)
	}()

	select {
	case err := <-errc:
		return eris.Wrap(err, "api server stopped")
	case <-ctx.Done():
		log.Info().Msg("shutting down api")
		return app.ShutdownWithTimeout(10 * time.Second)
	}
}

// openQueues persists the queues in Redis when REDIS_ADDRESS is set so they
// survive an API restart; otherwise they live in memory.
func openQueues(ctx context.Context, cfg config.Config, log zerolog.Logger) (normal, draft services.Queue, closeFn func(), err error) {
	if cfg.Env.RedisAddress == "" {
		log.Info().Msg("REDIS_ADDRESS not set, queues are kept in memory")
		return services.NewMemoryQueue(), services.NewMemoryQueue(), func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Env.RedisAddress,
		Password: cfg.Env.RedisPassword,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, nil, eris.Wrapf(err, "failed to reach redis at %s", cfg.Env.RedisAddress)
	}
	name := cfg.Settings.Name()
	closeFn = func() {
		if err := client.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close redis client")
		}
	}
	return services.NewRedisQueue(client, name, services.QueueNormal),
		services.NewRedisQueue(client, name, services.QueueDraft), closeFn, nil
}

func newLeagueReset(ctx context.Context, st services.GameStore, cfg config.Config, log zerolog.Logger) (*services.LeagueReset, error) {
	var uploader services.Uploader
	if cfg.Env.R2.Enabled() {
		r2, err := utils.NewR2(ctx, cfg.Env.R2)
		if err != nil {
			return nil, err
		}
		uploader = r2
	} else {
		log.Info().Msg("R2 not configured, league resets are not archived")
	}
	return services.NewLeagueReset(st, uploader, cfg.Settings.Name(), cfg.Settings.StartingMMR, log), nil
}

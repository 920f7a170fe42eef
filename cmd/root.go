// Package cmd is the `league` command line: one binary for the API, the
// orchestrator, the per-match session hosts and the admin tasks.
package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"league-orchestrator/config"
	"league-orchestrator/logging"
	"league-orchestrator/services"
	"league-orchestrator/store"
)

type rootFlags struct {
	dev      bool
	settings string
	envFile  string
}

func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "league",
		Short:         "in-house league matchmaking and match orchestration",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	pf := root.PersistentFlags()
	pf.BoolVar(&flags.dev, "dev", false, "use the dev env and settings files and console logging")
	pf.StringVar(&flags.settings, "settings", "", "league settings yaml (default league_settings.yaml)")
	pf.StringVar(&flags.envFile, "env-file", "", "env file to load (default .env)")

	root.AddCommand(
		newServeCmd(flags),
		newOrchestrateCmd(flags),
		newHostCmd(flags),
		newMigrateCmd(flags),
		newRegisterBotsCmd(flags),
		newRecomputeCmd(flags),
		newResetLeagueCmd(flags),
	)
	return root
}

// Execute runs the command line until it finishes or the process is signalled.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (f *rootFlags) load(component string) (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(config.Options{Dev: f.dev, EnvFile: f.envFile, SettingsFile: f.settings})
	if err != nil {
		return cfg, zerolog.Nop(), err
	}
	return cfg, logging.New(component, cfg.Env.LogLevel, cfg.Dev), nil
}

func openStore(ctx context.Context, cfg config.Config, log zerolog.Logger) (*store.Store, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	return store.Open(ctx, cfg.Env.DatabaseURL, store.WithLogger(log))
}

// league is the service graph shared by every process.
type league struct {
	store   *store.Store
	players *services.PlayerService
	ratings *services.RatingEngine
	games   *services.GameService
	bots    *services.BotPool
}

func newLeague(st *store.Store, s config.Settings, log zerolog.Logger) *league {
	ratings := services.NewRatingEngine(st, s.StartingMMR, log)
	return &league{
		store:   st,
		players: services.NewPlayerService(st, s.StartingMMR, log),
		ratings: ratings,
		games:   services.NewGameService(st, ratings, s.GameNamePrefix, log),
		bots:    services.NewBotPool(st, log),
	}
}

func newRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

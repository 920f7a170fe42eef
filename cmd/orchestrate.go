package cmd

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"league-orchestrator/services"
	"league-orchestrator/workers"
)

func newOrchestrateCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "orchestrate",
		Short: "host PREGAME games and recycle REHOST games on a fixed poll",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := flags.load("orchestrator")
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			st, err := openStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer st.Close()
			lg := newLeague(st, cfg.Settings, log)

			var extra []string
			if flags.dev {
				extra = append(extra, "--dev")
			}
			if flags.envFile != "" {
				extra = append(extra, "--env-file", flags.envFile)
			}
			if flags.settings != "" {
				extra = append(extra, "--settings", flags.settings)
			}
			launcher, err := workers.NewProcessLauncher(extra, log)
			if err != nil {
				return err
			}

			orch := services.NewOrchestrator(st, lg.games, lg.bots, launcher, services.OrchestratorConfig{
				Interval:     cfg.Settings.OrchestratorInterval,
				LeagueID:     cfg.Settings.LeagueID,
				GameMode:     cfg.Settings.GameMode,
				LobbyTimeout: cfg.Settings.LobbyTimeout(),
			}, log)
			sched, err := orch.Start(ctx)
			if err != nil {
				return err
			}
			<-ctx.Done()
			log.Info().Msg("stopping orchestrator")
			return eris.Wrap(sched.Shutdown(), "failed to stop scheduler")
		},
	}
}

package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"league-orchestrator/services"
	"league-orchestrator/workers"
)

func newHostCmd(flags *rootFlags) *cobra.Command {
	var spec services.HostSpec
	cmd := &cobra.Command{
		Use:   "host",
		Short: "run the lobby of one game until it starts, times out or is cancelled",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := flags.load("host")
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

			lobby, err := workers.NewBridgeLobby(cfg.Env.BridgeURL, cfg.Env.ServiceToken)
			if err != nil {
				return err
			}
			host := workers.NewSessionHost(st, lg.games, lg.bots, lobby, workers.SessionHostConfig{
				CancelPoll: cfg.Settings.CancelPollInterval,
			}, log)
			status, err := host.Run(ctx, spec)
			if err != nil {
				return err
			}
			log.Info().Uint("game_id", spec.GameID).Str("status", string(status)).Msg("host finished")
			return nil
		},
	}
	f := cmd.Flags()
	f.UintVar(&spec.GameID, "game", 0, "game id to host")
	f.UintVar(&spec.BotID, "bot", 0, "steam bot id reserved for the game")
	f.IntVar(&spec.LeagueID, "league", 0, "league id the lobby is created under")
	f.IntVar(&spec.GameMode, "game-mode", 0, "game mode of the lobby")
	f.DurationVar(&spec.LobbyTimeout, "lobby-timeout", 5*time.Minute, "time players have to join before the game times out")
	_ = cmd.MarkFlagRequired("game")
	_ = cmd.MarkFlagRequired("bot")
	return cmd
}

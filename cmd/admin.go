package cmd

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

func newMigrateCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "create or update the league schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := flags.load("admin")
			if err != nil {
				return err
			}
			st, err := openStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Migrate(cmd.Context()); err != nil {
				return err
			}
			log.Info().Msg("schema migrated")
			return nil
		},
	}
}

func newRegisterBotsCmd(flags *rootFlags) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "register-bots",
		Short: "import steam bot credentials from a json file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := flags.load("admin")
			if err != nil {
				return err
			}
			st, err := openStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer st.Close()
			n, err := newLeague(st, cfg.Settings, log).bots.Register(cmd.Context(), file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %d bots\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "steam_bot_acc.json", "credential file: [{\"username\", \"password\"}]")
	return cmd
}

func newRecomputeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "recompute",
		Short: "reset every rating and replay all scored games",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := flags.load("admin")
			if err != nil {
				return err
			}
			st, err := openStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer st.Close()
			n, err := newLeague(st, cfg.Settings, log).ratings.Recompute(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "replayed %d games\n", n)
			return nil
		},
	}
}

func newResetLeagueCmd(flags *rootFlags) *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "reset-league",
		Short: "archive and wipe the match history, resetting every rating",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirm {
				return eris.New("refusing to reset the league without --yes")
			}
			cfg, log, err := flags.load("admin")
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			st, err := openStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer st.Close()
			reset, err := newLeagueReset(ctx, st, cfg, log)
			if err != nil {
				return err
			}
			location, err := reset.Reset(ctx)
			if err != nil {
				return err
			}
			if location != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "history archived to %s\n", location)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "league reset")
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirm, "yes", false, "confirm the reset")
	return cmd
}

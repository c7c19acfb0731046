package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/despuyt/mmsync/pkg/db"
	"github.com/despuyt/mmsync/pkg/purge"
)

var (
	purgeYes bool

	purgeCmd = &cobra.Command{
		Use:   "purge",
		Short: "Permanently delete rows from the Mattermost database",
		Long:  "purge removes users or teams straight from the database. There is no undo.",
	}

	purgeUserCmd = &cobra.Command{
		Use:   "user <username-or-email>",
		Short: "Hard delete a user and everything they own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPurge(cmd.Context(), func(ctx context.Context, p *purge.Purger) error {
				return p.User(ctx, args[0])
			})
		},
	}

	purgeTeamCmd = &cobra.Command{
		Use:   "team <name-or-display-name>",
		Short: "Hard delete a team, its channels, and their content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPurge(cmd.Context(), func(ctx context.Context, p *purge.Purger) error {
				return p.Team(ctx, args[0])
			})
		},
	}
)

func init() {
	purgeCmd.PersistentFlags().BoolVar(&purgeYes, "yes", false, "confirm the permanent delete")
	purgeCmd.AddCommand(purgeUserCmd, purgeTeamCmd)
}

func runPurge(ctx context.Context, fn func(context.Context, *purge.Purger) error) error {
	if !purgeYes {
		return errors.New("refusing to delete without --yes")
	}
	if cfg.DB.DataSource == "" {
		return errors.New("no database data source configured")
	}

	dbx, err := db.Open(ctx, cfg.DB.DataSource, logger)
	if err != nil {
		return err
	}
	defer dbx.Close() // nolint: errcheck

	return fn(ctx, purge.NewPurger(dbx, logger))
}

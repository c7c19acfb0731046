package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/despuyt/mmsync/pkg/mail"
	"github.com/despuyt/mmsync/pkg/mattermost"
	"github.com/despuyt/mmsync/pkg/roster"
)

var (
	importDryRun  bool
	importExecute bool
	importSync    bool

	importCmd = &cobra.Command{
		Use:   "import <users.csv>",
		Short: "Reconcile accounts and memberships from an import CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, err := runMode(importDryRun, importExecute)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			rows, err := roster.ReadFile(args[0], logger)
			if err != nil {
				return err
			}

			client, err := newClient(ctx)
			if err != nil {
				return err
			}

			rec := roster.NewReconciler(client, cfg, logger, dryRun)
			if cfg.Mail.Enabled && !dryRun {
				rec.Mailer = mail.NewSender(cfg.Mail, logger)
			}

			// Removals run before additions.
			if importSync {
				team, err := rec.DefaultTeam(ctx)
				switch {
				case errors.Is(err, mattermost.ErrNotFound):
					logger.Warn("default team does not exist yet, skipping sync")
				case err != nil:
					return err
				default:
					sync := roster.NewTeamSync(client, logger, dryRun)
					if err := sync.Run(ctx, team, rows); err != nil {
						return err
					}
				}
			}

			rec.Run(ctx, rows)
			return nil
		},
	}
)

func init() {
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", true, "report changes without applying them")
	importCmd.Flags().BoolVar(&importExecute, "execute", false, "apply changes to the server")
	importCmd.Flags().BoolVar(&importSync, "sync", false, "remove default-team members missing from the CSV first")
	importCmd.MarkFlagsMutuallyExclusive("dry-run", "execute")
}

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/despuyt/mmsync/pkg/export"
	"github.com/despuyt/mmsync/pkg/mattermost"
	"github.com/despuyt/mmsync/pkg/roster"
)

var (
	channelEmail   string
	channelTeam    string
	channelName    string
	channelAction  string
	channelExecute bool

	channelCmd = &cobra.Command{
		Use:   "channel",
		Short: "Add a user to a channel or remove them from it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if channelAction != "add" && channelAction != "remove" {
				return fmt.Errorf("invalid action %q: must be add or remove", channelAction)
			}

			dryRun, err := runMode(true, channelExecute)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			client, err := newClient(ctx)
			if err != nil {
				return err
			}

			user, err := client.UserByEmail(ctx, channelEmail)
			if err != nil {
				if errors.Is(err, mattermost.ErrNotFound) {
					return fmt.Errorf("no user with email %s", channelEmail)
				}
				return err
			}

			team, err := client.TeamByName(ctx, roster.Slugify(channelTeam))
			if err != nil {
				if errors.Is(err, mattermost.ErrNotFound) {
					return fmt.Errorf("no team named %s", channelTeam)
				}
				return err
			}

			ch, err := client.ChannelByName(ctx, team.ID, roster.Slugify(channelName))
			if err != nil {
				if errors.Is(err, mattermost.ErrNotFound) {
					return fmt.Errorf("no channel named %s in team %s", channelName, channelTeam)
				}
				return err
			}

			if dryRun {
				logger.Info("would change membership",
					"action", channelAction, "email", channelEmail, "channel", ch.Name)
				return nil
			}

			if channelAction == "remove" {
				if err := client.RemoveChannelMember(ctx, ch.ID, user.ID); err != nil {
					return err
				}
				logger.Info("removed from channel", "email", channelEmail, "channel", ch.Name)
				return nil
			}

			if err := client.AddChannelMember(ctx, ch.ID, user.ID); err != nil {
				return err
			}
			logger.Info("added to channel", "email", channelEmail, "channel", ch.Name)

			// Members of a playing-team channel run it themselves.
			if export.IsTeamCode(channelName) {
				if err := client.UpdateChannelMemberRoles(ctx, ch.ID, user.ID, "channel_user channel_admin"); err != nil {
					return err
				}
				logger.Info("granted channel admin", "email", channelEmail, "channel", ch.Name)
			}

			return nil
		},
	}
)

func init() {
	channelCmd.Flags().StringVar(&channelEmail, "email", "", "email address of the user")
	channelCmd.Flags().StringVar(&channelTeam, "team", "", "team the channel belongs to")
	channelCmd.Flags().StringVar(&channelName, "channel", "", "channel name")
	channelCmd.Flags().StringVar(&channelAction, "action", "add", "add or remove")
	channelCmd.Flags().BoolVar(&channelExecute, "execute", false, "apply changes to the server")
	for _, name := range []string{"email", "team", "channel"} {
		_ = channelCmd.MarkFlagRequired(name)
	}
}

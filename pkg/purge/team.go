package purge

import (
	"context"
	"errors"
	"fmt"

	"github.com/despuyt/mmsync/pkg/db"
)

// Team is the subset of the Teams row a purge needs.
type Team struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	DisplayName string `db:"displayname"`
}

type channel struct {
	ID   string `db:"id"`
	Name string `db:"name"`
}

// FindTeam looks up a team row by name or display name.
func (p *Purger) FindTeam(ctx context.Context, identifier string) (Team, error) {
	var t Team
	err := p.db.GetContext(ctx, &t,
		"SELECT Id, Name, DisplayName FROM Teams WHERE Name = $1 OR DisplayName = $1",
		identifier)
	if err != nil {
		if errors.Is(db.WrapError(err), db.ErrRecordNotFound) {
			return Team{}, ErrNotFound
		}
		return Team{}, fmt.Errorf("find team: %w", err)
	}
	return t, nil
}

// Team permanently deletes a team, its channels, and everything under
// them. Reactions and files are removed before their posts so the
// post-id subqueries still match.
func (p *Purger) Team(ctx context.Context, identifier string) error {
	t, err := p.FindTeam(ctx, identifier)
	if err != nil {
		return err
	}

	p.logger.Info("found team", "id", t.ID, "name", t.Name, "display_name", t.DisplayName)

	var channels []channel
	err = p.db.SelectContext(ctx, &channels,
		"SELECT Id, Name FROM Channels WHERE TeamId = $1", t.ID)
	if err != nil {
		return fmt.Errorf("list channels: %w", err)
	}

	for _, ch := range channels {
		p.logger.Info("deleting channel", "name", ch.Name, "id", ch.ID)
		if err := p.deleteChannel(ctx, ch.ID); err != nil {
			return err
		}
	}

	if _, err := p.db.ExecContext(ctx, "DELETE FROM TeamMembers WHERE TeamId = $1", t.ID); err != nil {
		return fmt.Errorf("delete team members: %w", err)
	}
	if _, err := p.db.ExecContext(ctx, "DELETE FROM Teams WHERE Id = $1", t.ID); err != nil {
		return fmt.Errorf("delete team row: %w", err)
	}

	p.logger.Info("team purged", "name", t.Name)
	return nil
}

func (p *Purger) deleteChannel(ctx context.Context, channelID string) error {
	steps := []struct {
		desc  string
		query string
	}{
		{"reactions", "DELETE FROM Reactions WHERE PostId IN (SELECT Id FROM Posts WHERE ChannelId = $1)"},
		{"files", "DELETE FROM FileInfo WHERE PostId IN (SELECT Id FROM Posts WHERE ChannelId = $1)"},
		{"posts", "DELETE FROM Posts WHERE ChannelId = $1"},
		{"members", "DELETE FROM ChannelMembers WHERE ChannelId = $1"},
		{"channel", "DELETE FROM Channels WHERE Id = $1"},
	}

	for _, s := range steps {
		if _, err := p.db.ExecContext(ctx, s.query, channelID); err != nil {
			return fmt.Errorf("delete channel %s: %w", s.desc, err)
		}
	}
	return nil
}

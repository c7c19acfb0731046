package mattermost

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Team is a Mattermost team.
type Team struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`
}

// TeamMember is a membership of a user in a team.
type TeamMember struct {
	TeamID string `json:"team_id"`
	UserID string `json:"user_id"`
	Roles  string `json:"roles"`
}

// TeamByName returns the team with the given slug, or ErrNotFound.
func (c *Client) TeamByName(ctx context.Context, name string) (*Team, error) {
	var t Team
	path := "/teams/name/" + url.PathEscape(name)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &t); err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// CreateTeam creates a new open team.
func (c *Client) CreateTeam(ctx context.Context, name, displayName string) (*Team, error) {
	req := struct {
		Name        string `json:"name"`
		DisplayName string `json:"display_name"`
		Type        string `json:"type"`
	}{name, displayName, "O"}

	var t Team
	if err := c.do(ctx, http.MethodPost, "/teams", nil, req, &t); err != nil {
		return nil, fmt.Errorf("create team %s: %w", name, err)
	}
	return &t, nil
}

// TeamMembers returns the full roster of a team, following pagination.
func (c *Client) TeamMembers(ctx context.Context, teamID string) ([]TeamMember, error) {
	var members []TeamMember
	opts := ListOptions{Page: 0, PerPage: 200}
	path := fmt.Sprintf("/teams/%s/members", teamID)
	for {
		var page []TeamMember
		if err := c.do(ctx, http.MethodGet, path, opts, nil, &page); err != nil {
			return nil, fmt.Errorf("team members %s: %w", teamID, err)
		}
		members = append(members, page...)
		if len(page) < opts.PerPage {
			return members, nil
		}
		opts.Page++
	}
}

// AddTeamMember adds a user to a team. Adding a user that is already a
// member is not an error. A team at its member limit returns ErrTeamFull.
func (c *Client) AddTeamMember(ctx context.Context, teamID, userID string) error {
	req := struct {
		TeamID string `json:"team_id"`
		UserID string `json:"user_id"`
	}{teamID, userID}

	path := fmt.Sprintf("/teams/%s/members", teamID)
	err := c.do(ctx, http.MethodPost, path, nil, req, nil)
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if strings.Contains(apiErr.ID, "max_accounts") {
			return fmt.Errorf("add team member %s: %w", userID, ErrTeamFull)
		}
		// The server answers 400 for duplicate memberships.
		if apiErr.StatusCode == http.StatusBadRequest ||
			strings.Contains(apiErr.ID, "join_user_to_team.save_member") {
			if c.logger != nil {
				c.logger.Debug("user already in team", "user", userID, "team", teamID)
			}
			return nil
		}
	}

	return fmt.Errorf("add team member %s: %w", userID, err)
}

// RemoveTeamMember removes a user from a team.
func (c *Client) RemoveTeamMember(ctx context.Context, teamID, userID string) error {
	path := fmt.Sprintf("/teams/%s/members/%s", teamID, userID)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("remove team member %s: %w", userID, err)
	}
	return nil
}

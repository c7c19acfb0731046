package mattermost

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Channel is a Mattermost channel.
type Channel struct {
	ID          string `json:"id"`
	TeamID      string `json:"team_id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`
}

// ChannelByName returns the channel with the given slug within a team, or
// ErrNotFound.
func (c *Client) ChannelByName(ctx context.Context, teamID, name string) (*Channel, error) {
	var ch Channel
	path := fmt.Sprintf("/teams/%s/channels/name/%s", teamID, url.PathEscape(name))
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &ch); err != nil {
		return nil, notFound(err)
	}
	return &ch, nil
}

// CreateChannel creates a new open channel in a team.
func (c *Client) CreateChannel(ctx context.Context, teamID, name, displayName string) (*Channel, error) {
	req := struct {
		TeamID      string `json:"team_id"`
		Name        string `json:"name"`
		DisplayName string `json:"display_name"`
		Type        string `json:"type"`
	}{teamID, name, displayName, "O"}

	var ch Channel
	if err := c.do(ctx, http.MethodPost, "/channels", nil, req, &ch); err != nil {
		return nil, fmt.Errorf("create channel %s: %w", name, err)
	}
	return &ch, nil
}

// AddChannelMember adds a user to a channel. Adding a user that is already
// a member is not an error.
func (c *Client) AddChannelMember(ctx context.Context, channelID, userID string) error {
	req := struct {
		UserID string `json:"user_id"`
	}{userID}

	path := fmt.Sprintf("/channels/%s/members", channelID)
	err := c.do(ctx, http.MethodPost, path, nil, req, nil)
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusBadRequest ||
			strings.Contains(apiErr.ID, "user_already_in_channel") {
			if c.logger != nil {
				c.logger.Debug("user already in channel", "user", userID, "channel", channelID)
			}
			return nil
		}
	}

	return fmt.Errorf("add channel member %s: %w", userID, err)
}

// RemoveChannelMember removes a user from a channel. Removing a user that
// is not a member is not an error.
func (c *Client) RemoveChannelMember(ctx context.Context, channelID, userID string) error {
	path := fmt.Sprintf("/channels/%s/members/%s", channelID, userID)
	err := c.do(ctx, http.MethodDelete, path, nil, nil, nil)
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return nil
	}

	return fmt.Errorf("remove channel member %s: %w", userID, err)
}

// UpdateChannelMemberRoles sets the roles of a channel member.
func (c *Client) UpdateChannelMemberRoles(ctx context.Context, channelID, userID, roles string) error {
	req := struct {
		Roles string `json:"roles"`
	}{roles}

	path := fmt.Sprintf("/channels/%s/members/%s/roles", channelID, userID)
	if err := c.do(ctx, http.MethodPut, path, nil, req, nil); err != nil {
		return fmt.Errorf("update channel member roles %s: %w", userID, err)
	}
	return nil
}

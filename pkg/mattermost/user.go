package mattermost

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// User is a Mattermost user.
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Nickname  string `json:"nickname"`
	Position  string `json:"position"`
	Roles     string `json:"roles"`
	DeleteAt  int64  `json:"delete_at"`
}

// IsActive returns whether the user is active. Deactivated users carry a
// non-zero deletion timestamp.
func (u *User) IsActive() bool {
	return u.DeleteAt == 0
}

// IsAdmin returns whether the user holds the system admin role.
func (u *User) IsAdmin() bool {
	for _, role := range strings.Fields(u.Roles) {
		if role == "system_admin" {
			return true
		}
	}
	return false
}

// CreateUserRequest is the payload for creating a user.
type CreateUserRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Nickname  string `json:"nickname"`
	Position  string `json:"position"`
	Password  string `json:"password"`
}

// PatchUserRequest is the payload for patching a user profile.
type PatchUserRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Nickname  string `json:"nickname"`
	Position  string `json:"position"`
}

// UserByEmail returns the user with the given email, or ErrNotFound.
func (c *Client) UserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	path := "/users/email/" + url.PathEscape(email)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// UserByUsername returns the user with the given username, or ErrNotFound.
func (c *Client) UserByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	path := "/users/username/" + url.PathEscape(username)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// UsersByIDs returns the users with the given ids.
func (c *Client) UsersByIDs(ctx context.Context, ids []string) ([]User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []User
	if err := c.do(ctx, http.MethodPost, "/users/ids", nil, ids, &users); err != nil {
		return nil, fmt.Errorf("users by ids: %w", err)
	}
	return users, nil
}

// CreateUser creates a new user.
func (c *Client) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodPost, "/users", nil, req, &u); err != nil {
		return nil, fmt.Errorf("create user %s: %w", req.Email, err)
	}
	return &u, nil
}

// PatchUser updates the profile fields of an existing user.
func (c *Client) PatchUser(ctx context.Context, userID string, req PatchUserRequest) (*User, error) {
	var u User
	path := fmt.Sprintf("/users/%s/patch", userID)
	if err := c.do(ctx, http.MethodPut, path, nil, req, &u); err != nil {
		return nil, fmt.Errorf("patch user %s: %w", userID, err)
	}
	return &u, nil
}

// UpdateUserActive activates or deactivates a user.
func (c *Client) UpdateUserActive(ctx context.Context, userID string, active bool) error {
	body := struct {
		Active bool `json:"active"`
	}{active}
	path := fmt.Sprintf("/users/%s/active", userID)
	if err := c.do(ctx, http.MethodPut, path, nil, body, nil); err != nil {
		return fmt.Errorf("update user active %s: %w", userID, err)
	}
	return nil
}

package mattermost

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a user, team, or channel does not
	// exist. It is distinct from transport failures so that callers can
	// not mistake a timeout for absence.
	ErrNotFound = errors.New("not found")

	// ErrTeamFull is returned when a team has reached its member limit.
	ErrTeamFull = errors.New("team is full")

	// ErrNoToken is returned when a login succeeds but the server does
	// not return a session token.
	ErrNoToken = errors.New("login succeeded but no token returned")
)

// APIError is an error response from the Mattermost API.
type APIError struct {
	ID         string `json:"id"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

// Error implements error.
func (e *APIError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("api error: %s (%s)", e.Message, e.ID)
	}
	return fmt.Sprintf("api error: %s (status %d)", e.Message, e.StatusCode)
}

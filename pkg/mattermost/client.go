// Package mattermost implements a typed client for the parts of the
// Mattermost v4 REST API that mmsync uses: users, teams, channels, and
// their memberships.
package mattermost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/go-querystring/query"
)

const apiPrefix = "/api/v4"

// ListOptions are pagination parameters for list endpoints.
type ListOptions struct {
	Page    int `url:"page"`
	PerPage int `url:"per_page"`
}

// Client is a Mattermost API client.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *log.Logger
}

// NewClient returns a client authenticated with the given access token.
func NewClient(url, token string, logger *log.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(url, "/") + apiPrefix,
		token:   token,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// Login authenticates with a login id and password and returns a client
// carrying the session token from the response headers.
func Login(ctx context.Context, url, loginID, password string, logger *log.Logger) (*Client, error) {
	c := NewClient(url, "", logger)
	body := struct {
		LoginID  string `json:"login_id"`
		Password string `json:"password"`
	}{loginID, password}

	res, err := c.send(ctx, http.MethodPost, "/users/login", nil, body)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	defer res.Body.Close() // nolint: errcheck

	token := res.Header.Get("Token")
	if token == "" {
		return nil, ErrNoToken
	}

	c.token = token
	return c, nil
}

// send performs a request and returns the raw response. A non-2xx status
// is decoded into an *APIError.
func (c *Client) send(ctx context.Context, method, path string, opts any, body any) (*http.Response, error) {
	url := c.baseURL + path
	if opts != nil {
		v, err := query.Values(opts)
		if err != nil {
			return nil, fmt.Errorf("encode query: %w", err)
		}
		url += "?" + v.Encode()
	}

	var rdr io.Reader
	if body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		rdr = &buf
	}

	if c.logger != nil {
		c.logger.Debug("request", "method", method, "url", url)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	req.Header.Set("Content-Type", "application/json")
	// The Mattermost API rejects some session-token requests without it.
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	if res.StatusCode >= http.StatusBadRequest {
		defer res.Body.Close() // nolint: errcheck
		return nil, decodeAPIError(res)
	}

	return res, nil
}

// do performs a request and decodes the JSON response into out, which may
// be nil when the response body is irrelevant.
func (c *Client) do(ctx context.Context, method, path string, opts any, body any, out any) error {
	res, err := c.send(ctx, method, path, opts, body)
	if err != nil {
		return err
	}
	defer res.Body.Close() // nolint: errcheck

	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func decodeAPIError(res *http.Response) error {
	apiErr := &APIError{StatusCode: res.StatusCode}
	if err := json.NewDecoder(res.Body).Decode(apiErr); err != nil {
		apiErr.Message = res.Status
	}
	apiErr.StatusCode = res.StatusCode
	return apiErr
}

// notFound maps a 404 API error to ErrNotFound and passes every other
// error through unchanged.
func notFound(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return err
}

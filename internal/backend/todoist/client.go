// Package todoist implements the service.Service interface using the Todoist sync API.
package todoist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"followup/internal/config"
	"followup/internal/service"
)

const (
	// GetItemPath is the endpoint returning an item with its ancestors.
	GetItemPath = "/items/get"

	// SyncPath is the batch command endpoint.
	SyncPath = "/sync"

	formContentType = "application/x-www-form-urlencoded"
)

// Client implements service.Service against the Todoist sync API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
}

// New creates a Todoist client that attaches cfg.APIToken as a bearer
// credential to every request.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cfg.APIToken,
		TokenType:   "Bearer",
	})

	return NewWithHTTPClient(oauth2.NewClient(ctx, tokenSource), cfg.BaseURL, cfg.APITimeout), nil
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
// The HTTP client is responsible for authentication.
func NewWithHTTPClient(httpClient *http.Client, baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = config.DefaultAPITimeout
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
	}
}

// GetItem fetches an item and its ancestor chain.
func (c *Client) GetItem(ctx context.Context, itemID string) (*service.ItemWithAncestors, error) {
	body, err := c.post(ctx, GetItemPath, url.Values{"item_id": {itemID}})
	if err != nil {
		return nil, err
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	var result *service.ItemWithAncestors
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("invalid item response: %w", err)
	}
	return result, nil
}

// Sync submits commands as one batch. The response body is discarded.
func (c *Client) Sync(ctx context.Context, commands []service.Command) error {
	encoded, err := json.Marshal(commands)
	if err != nil {
		return fmt.Errorf("failed to encode commands: %w", err)
	}

	_, err = c.post(ctx, SyncPath, url.Values{"commands": {string(encoded)}})
	return err
}

// post sends a form-encoded request bounded by the client timeout and
// returns the response body of a 2xx reply.
func (c *Client) post(ctx context.Context, path string, form url.Values) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", formContentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, wrapError(err)
	}
	defer resp.Body.Close()

	if err := googleapi.CheckResponse(resp); err != nil {
		return nil, wrapError(err)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapError(err)
	}
	return body, nil
}

// wrapError maps transport and status errors onto the service sentinels.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", service.ErrTimeout, err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", service.ErrUnauthorized, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", service.ErrNotFound, err)
		}
	}

	return err
}

// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package panel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"chainquest-cms/internal/middleware"
	"chainquest-cms/internal/model"
)

// ErrUnauthenticated reports that the server rejected the session
// outright. Unlike a transport failure this confirms the cached session
// is invalid.
var ErrUnauthenticated = errors.New("session rejected by server")

// UserFetcher retrieves the authoritative user record for a session.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID int64) (*model.AuthUser, error)
}

// UnreadFetcher retrieves the authoritative unread notification count.
type UnreadFetcher interface {
	FetchUnreadCount(ctx context.Context, userID int64) (int64, error)
}

// Notifier surfaces one-time user-visible messages (toasts). Clients
// provide their own rendering.
type Notifier interface {
	Toast(level, message string)
}

// NopNotifier discards all toasts.
type NopNotifier struct{}

// Toast implements Notifier.
func (NopNotifier) Toast(string, string) {}

// Client fetches session and notification state over HTTP. Requests
// carry the session's user id in the identity header; the deployment
// must front the API with transport-level protection (session cookie or
// reverse proxy) since the header itself is spoofable.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client against baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// FetchUser implements UserFetcher via GET /api/auth/me.
func (c *Client) FetchUser(ctx context.Context, userID int64) (*model.AuthUser, error) {
	var body struct {
		User *model.AuthUser `json:"user"`
	}
	if err := c.get(ctx, "/api/auth/me", userID, &body); err != nil {
		return nil, err
	}
	if body.User == nil {
		return nil, errors.New("session fetch returned no user")
	}
	return body.User, nil
}

// FetchUnreadCount implements UnreadFetcher via the unread-count
// endpoint.
func (c *Client) FetchUnreadCount(ctx context.Context, userID int64) (int64, error) {
	var body struct {
		Count int64 `json:"count"`
	}
	if err := c.get(ctx, "/api/admin/notifications/unread-count", userID, &body); err != nil {
		return 0, err
	}
	return body.Count, nil
}

func (c *Client) get(ctx context.Context, path string, userID int64, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set(middleware.IdentityHeader, strconv.FormatInt(userID, 10))

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthenticated
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("GET %s: decoding response: %w", path, err)
	}
	return nil
}

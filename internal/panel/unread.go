// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package panel

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// UnreadCounter tracks the unread notification badge. It observes the
// notification broadcast independently of the permission channel; the
// two carry no ordering guarantee relative to each other.
type UnreadCounter struct {
	count       atomic.Int64
	fetcher     UnreadFetcher
	session     sessionSource
	logger      *slog.Logger
	unsubscribe func()
}

// NewUnreadCounter creates a counter that refreshes from the server
// whenever a notification broadcast fires on bus.
func NewUnreadCounter(src sessionSource, fetcher UnreadFetcher, bus *Bus, logger *slog.Logger) *UnreadCounter {
	if logger == nil {
		logger = slog.Default()
	}
	c := &UnreadCounter{
		fetcher: fetcher,
		session: src,
		logger:  logger,
	}
	if bus != nil {
		c.unsubscribe = bus.Subscribe(EventNotificationCreated, func() {
			c.Refresh(context.Background())
		})
	}
	return c
}

// Close detaches the counter from the broadcast bus.
func (c *UnreadCounter) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
}

// Count returns the current unread count.
func (c *UnreadCounter) Count() int64 {
	return c.count.Load()
}

// Increment bumps the count by one.
func (c *UnreadCounter) Increment() {
	c.count.Add(1)
}

// Decrement lowers the count by one, clamping at zero.
func (c *UnreadCounter) Decrement() {
	if c.count.Add(-1) < 0 {
		c.count.Store(0)
	}
}

// Set overwrites the count.
func (c *UnreadCounter) Set(n int64) {
	c.count.Store(n)
}

// Refresh re-fetches the authoritative unread count. A fetch failure
// keeps the last-known count.
func (c *UnreadCounter) Refresh(ctx context.Context) {
	user := c.session.Current()
	if user == nil {
		c.count.Store(0)
		return
	}

	n, err := c.fetcher.FetchUnreadCount(ctx, user.ID)
	if err != nil {
		c.logger.Warn("failed to refresh unread count", "error", err)
		return
	}
	c.count.Store(n)
}

// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package panel

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"chainquest-cms/internal/model"
)

// DefaultSyncInterval is the poll interval for background session
// synchronization.
const DefaultSyncInterval = 10 * time.Second

// Syncer keeps the session store converged with server truth without
// requiring re-authentication. It adopts the cached session
// optimistically on start, fetches the authoritative record immediately,
// then polls on a fixed interval while running. A permission change
// replaces the session wholesale, fires one broadcast, and surfaces one
// toast.
//
// Overlapping fetches (a manual refresh racing the timer tick) are
// serialized by a monotonic sequence: a completed fetch is discarded if
// a later-issued fetch already applied its result.
type Syncer struct {
	store    SessionStore
	fetcher  UserFetcher
	bus      *Bus
	notifier Notifier
	logger   *slog.Logger
	interval time.Duration

	mu         sync.Mutex
	current    *model.AuthUser
	loaded     bool // initial load finished (cache adoption or first fetch)
	nextSeq    uint64
	appliedSeq uint64
	retryUsed  bool
}

// SyncerConfig configures a Syncer. Fetcher and Store are required;
// everything else has defaults.
type SyncerConfig struct {
	Store    SessionStore
	Fetcher  UserFetcher
	Bus      *Bus
	Notifier Notifier
	Logger   *slog.Logger
	Interval time.Duration
}

// NewSyncer creates a Syncer.
func NewSyncer(cfg SyncerConfig) *Syncer {
	if cfg.Bus == nil {
		cfg.Bus = NewBus()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = NopNotifier{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultSyncInterval
	}
	return &Syncer{
		store:    cfg.Store,
		fetcher:  cfg.Fetcher,
		bus:      cfg.Bus,
		notifier: cfg.Notifier,
		logger:   cfg.Logger,
		interval: cfg.Interval,
	}
}

// Bus returns the broadcast bus shared by the syncer's consumers.
func (s *Syncer) Bus() *Bus {
	return s.bus
}

// Current returns the active session, or nil when unauthenticated.
func (s *Syncer) Current() *model.AuthUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Loaded reports whether the initial session load has finished. Gates
// render nothing until it has.
func (s *Syncer) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Adopt replaces the active session after an interactive login and
// persists it.
func (s *Syncer) Adopt(user *model.AuthUser) error {
	s.mu.Lock()
	s.current = user
	s.loaded = true
	s.mu.Unlock()
	return s.store.Save(user)
}

// Logout clears the active session and the durable cache.
func (s *Syncer) Logout() error {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	return s.store.Clear()
}

// Run adopts any cached session, performs an immediate sync, then polls
// until ctx is cancelled. Polling stops when the session becomes
// unauthenticated; callers restart Run after the next login. Run must
// only be invoked while the protected panel area is active, never on
// public pages.
func (s *Syncer) Run(ctx context.Context) {
	if cached := s.store.Load(); cached != nil {
		s.mu.Lock()
		s.current = cached
		s.mu.Unlock()
	}
	s.mu.Lock()
	s.loaded = true
	s.mu.Unlock()

	s.Sync(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.Current() == nil {
				return
			}
			s.Sync(ctx)
		}
	}
}

// Sync performs one fetch-compare-replace-broadcast cycle. Transport
// failures are logged and the last-known-good session is retained; only
// a confirmed rejection by the server clears the session.
func (s *Syncer) Sync(ctx context.Context) {
	s.mu.Lock()
	current := s.current
	if current == nil {
		s.mu.Unlock()
		return
	}
	s.nextSeq++
	seq := s.nextSeq
	s.mu.Unlock()

	fetched, err := s.fetcher.FetchUser(ctx, current.ID)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			s.logger.Info("session rejected by server, clearing cache")
			_ = s.Logout()
			s.bus.Publish(EventPermissionsUpdated)
			return
		}
		// Can't confirm freshness; that is not confirmed invalidity.
		s.logger.Warn("session sync failed, retaining cached session", "error", err)
		return
	}

	s.apply(seq, fetched)
}

// apply installs a fetch result unless a later-issued fetch already won.
func (s *Syncer) apply(seq uint64, fetched *model.AuthUser) {
	s.mu.Lock()
	if seq <= s.appliedSeq {
		s.mu.Unlock()
		return
	}
	s.appliedSeq = seq

	changed := s.current == nil || roleChanged(s.current.Role, fetched.Role)
	s.current = fetched
	s.mu.Unlock()

	if !changed {
		return
	}

	if err := s.store.Save(fetched); err != nil {
		s.logger.Error("failed to persist refreshed session", "error", err)
	}
	s.bus.Publish(EventPermissionsUpdated)
	s.notifier.Toast("info", "Your permissions have been updated")
}

// roleChanged compares role identity and permission sets. Permission
// order carries no meaning, so sets are compared sorted.
func roleChanged(cached, fetched *model.AuthRole) bool {
	if cached == nil || fetched == nil {
		return cached != fetched
	}
	if cached.ID != fetched.ID {
		return true
	}
	a := slices.Clone(cached.Permissions)
	b := slices.Clone(fetched.Permissions)
	slices.Sort(a)
	slices.Sort(b)
	return !slices.Equal(a, b)
}

// ForceRefresh performs the sync cycle immediately, independent of the
// timer. Used when a guarded action is rejected by the server so the
// client can self-heal from a stale cache without logging out.
func (s *Syncer) ForceRefresh(ctx context.Context) {
	s.Sync(ctx)
}

// HandleForbidden reacts to a 403 from a guarded API call: it forces one
// refresh and reports whether the caller should retry the request. At
// most one automatic retry is allowed until ResetRetry is called, so a
// genuinely forbidden action cannot loop.
func (s *Syncer) HandleForbidden(ctx context.Context) bool {
	s.mu.Lock()
	if s.retryUsed {
		s.mu.Unlock()
		return false
	}
	s.retryUsed = true
	s.mu.Unlock()

	s.ForceRefresh(ctx)
	return true
}

// ResetRetry re-arms the one-shot 403 retry. Called on the next
// user-initiated action.
func (s *Syncer) ResetRetry() {
	s.mu.Lock()
	s.retryUsed = false
	s.mu.Unlock()
}

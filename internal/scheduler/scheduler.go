// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"chainquest-cms/internal/store"
)

// Retention windows for maintenance jobs.
const (
	EventRetention        = 90 * 24 * time.Hour
	NotificationRetention = 30 * 24 * time.Hour
)

// Scheduler handles scheduled maintenance tasks: purging old events and
// notifications and deactivating expired API keys.
type Scheduler struct {
	db     *sql.DB
	cron   *cron.Cron
	logger *slog.Logger
}

// New creates a new scheduler instance.
func New(db *sql.DB, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		db:     db,
		cron:   cron.New(),
		logger: logger,
	}
}

// Start registers the maintenance jobs and begins the cron loop.
func (s *Scheduler) Start() error {
	// Hourly: deactivate expired API keys
	if _, err := s.cron.AddFunc("@hourly", func() {
		if err := s.expireAPIKeys(); err != nil {
			s.logger.Error("failed to deactivate expired API keys", "error", err)
		}
	}); err != nil {
		return err
	}

	// Daily: purge old events and notifications
	if _, err := s.cron.AddFunc("@daily", func() {
		if err := s.purgeOld(); err != nil {
			s.logger.Error("failed to purge old records", "error", err)
		}
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) expireAPIKeys() error {
	ctx := context.Background()
	queries := store.New(s.db)

	n, err := queries.DeactivateExpiredAPIKeys(ctx, time.Now())
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("deactivated expired API keys", "count", n)
	}
	return nil
}

func (s *Scheduler) purgeOld() error {
	ctx := context.Background()
	queries := store.New(s.db)

	if err := queries.DeleteOldEvents(ctx, time.Now().Add(-EventRetention)); err != nil {
		return err
	}
	return queries.DeleteOldNotifications(ctx, time.Now().Add(-NotificationRetention))
}

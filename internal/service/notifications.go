// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"time"

	"chainquest-cms/internal/model"
	"chainquest-cms/internal/store"
)

// NotificationService manages panel notifications and unread counts.
type NotificationService struct {
	queries *store.Queries
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(db *sql.DB) *NotificationService {
	return &NotificationService{
		queries: store.New(db),
	}
}

// Notify creates a notification for one user.
func (s *NotificationService) Notify(ctx context.Context, userID int64, level, title, message string) (model.Notification, error) {
	return s.queries.CreateNotification(ctx, store.CreateNotificationParams{
		UserID:    sql.NullInt64{Int64: userID, Valid: true},
		Level:     level,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

// Broadcast creates a notification visible to every panel user.
func (s *NotificationService) Broadcast(ctx context.Context, level, title, message string) (model.Notification, error) {
	return s.queries.CreateNotification(ctx, store.CreateNotificationParams{
		Level:     level,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

// UnreadCount returns the authoritative unread count for a user.
func (s *NotificationService) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	return s.queries.CountUnreadForUser(ctx, userID)
}

// MarkRead marks one notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, id int64) error {
	return s.queries.MarkNotificationRead(ctx, id)
}

// MarkAllRead marks all of a user's notifications as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) error {
	return s.queries.MarkAllNotificationsRead(ctx, userID)
}

// List returns a page of the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID, limit, offset int64) ([]model.Notification, error) {
	return s.queries.ListNotificationsForUser(ctx, store.ListNotificationsParams{
		UserID: userID,
		Limit:  limit,
		Offset: offset,
	})
}

// DeleteOld removes notifications older than the specified duration.
func (s *NotificationService) DeleteOld(ctx context.Context, olderThan time.Duration) error {
	return s.queries.DeleteOldNotifications(ctx, time.Now().Add(-olderThan))
}

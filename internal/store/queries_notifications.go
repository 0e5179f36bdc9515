// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"chainquest-cms/internal/model"
)

const notificationColumns = `id, user_id, level, title, message, is_read, created_at`

func scanNotification(row interface{ Scan(...any) error }) (model.Notification, error) {
	var n model.Notification
	err := row.Scan(&n.ID, &n.UserID, &n.Level, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt)
	return n, err
}

// CreateNotificationParams holds parameters for CreateNotification.
type CreateNotificationParams struct {
	UserID    sql.NullInt64 // invalid = broadcast to all panel users
	Level     string
	Title     string
	Message   string
	CreatedAt time.Time
}

// CreateNotification inserts a new notification and returns the created record.
func (q *Queries) CreateNotification(ctx context.Context, arg CreateNotificationParams) (model.Notification, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, level, title, message, is_read, created_at)
		 VALUES (?, ?, ?, ?, 0, ?)`,
		arg.UserID, arg.Level, arg.Title, arg.Message, arg.CreatedAt)
	if err != nil {
		return model.Notification{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Notification{}, err
	}
	return scanNotification(q.db.QueryRowContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id))
}

// ListNotificationsParams holds parameters for ListNotificationsForUser.
type ListNotificationsParams struct {
	UserID int64
	Limit  int64
	Offset int64
}

// ListNotificationsForUser returns a user's notifications, newest first.
// Broadcast notifications (null user_id) are included.
func (q *Queries) ListNotificationsForUser(ctx context.Context, arg ListNotificationsParams) ([]model.Notification, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications
		 WHERE user_id = ? OR user_id IS NULL
		 ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		arg.UserID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

// CountUnreadForUser returns the user's unread notification count,
// broadcasts included.
func (q *Queries) CountUnreadForUser(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications
		 WHERE is_read = 0 AND (user_id = ? OR user_id IS NULL)`, userID).Scan(&n)
	return n, err
}

// MarkNotificationRead marks one notification as read.
func (q *Queries) MarkNotificationRead(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
	return err
}

// MarkAllNotificationsRead marks all of a user's notifications as read.
func (q *Queries) MarkAllNotificationsRead(ctx context.Context, userID int64) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE user_id = ? OR user_id IS NULL`, userID)
	return err
}

// DeleteOldNotifications removes notifications created before the cutoff.
func (q *Queries) DeleteOldNotifications(ctx context.Context, cutoff time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE created_at < ?`, cutoff)
	return err
}

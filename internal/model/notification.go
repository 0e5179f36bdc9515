// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Notification levels.
const (
	NotificationLevelInfo    = "info"
	NotificationLevelWarning = "warning"
	NotificationLevelError   = "error"
)

// Notification represents an admin panel notification. A null UserID
// means the notification is broadcast to every panel user.
type Notification struct {
	ID        int64         `json:"id"`
	UserID    sql.NullInt64 `json:"user_id,omitempty"`
	Level     string        `json:"level"`
	Title     string        `json:"title"`
	Message   string        `json:"message"`
	IsRead    bool          `json:"is_read"`
	CreatedAt time.Time     `json:"created_at"`
}

// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"slices"
	"strings"

	"chainquest-cms/internal/middleware"
	"chainquest-cms/internal/model"
	"chainquest-cms/internal/service"
)

// NotificationHandler serves panel notifications and the unread counter.
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(ns *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: ns}
}

// List handles GET /api/admin/notifications.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r, 20)

	items, err := h.notifications.List(r.Context(), middleware.GetUserID(r), limit, offset)
	if err != nil {
		logAndInternalError(w, "failed to list notifications", "error", err)
		return
	}

	if items == nil {
		items = []model.Notification{}
	}
	writeJSONSuccess(w, map[string]any{"notifications": items})
}

// UnreadCount handles GET /api/admin/notifications/unread-count. This is
// the authoritative counter the panel badge synchronizes against.
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.notifications.UnreadCount(r.Context(), middleware.GetUserID(r))
	if err != nil {
		logAndInternalError(w, "failed to count unread notifications", "error", err)
		return
	}

	writeJSONSuccess(w, map[string]any{"count": count})
}

// MarkRead handles PUT /api/admin/notifications/{id}/read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	if err := h.notifications.MarkRead(r.Context(), id); err != nil {
		logAndInternalError(w, "failed to mark notification read", "error", err)
		return
	}

	writeJSONSuccess(w, nil)
}

// MarkAllRead handles PUT /api/admin/notifications/read-all.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	if err := h.notifications.MarkAllRead(r.Context(), middleware.GetUserID(r)); err != nil {
		logAndInternalError(w, "failed to mark notifications read", "error", err)
		return
	}

	writeJSONSuccess(w, nil)
}

type createNotificationRequest struct {
	UserID  int64  `json:"user_id"` // 0 broadcasts to everyone
	Level   string `json:"level"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

var validNotificationLevels = []string{
	model.NotificationLevelInfo,
	model.NotificationLevelWarning,
	model.NotificationLevelError,
}

// Create handles POST /api/admin/notifications. Super-admin surface for
// announcing maintenance windows and the like.
func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createNotificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeJSONError(w, http.StatusBadRequest, "Title is required")
		return
	}
	if req.Level == "" {
		req.Level = model.NotificationLevelInfo
	}
	if !slices.Contains(validNotificationLevels, req.Level) {
		writeJSONError(w, http.StatusBadRequest, "Invalid level")
		return
	}

	var (
		n   model.Notification
		err error
	)
	if req.UserID > 0 {
		n, err = h.notifications.Notify(r.Context(), req.UserID, req.Level, req.Title, req.Message)
	} else {
		n, err = h.notifications.Broadcast(r.Context(), req.Level, req.Title, req.Message)
	}
	if err != nil {
		logAndInternalError(w, "failed to create notification", "error", err)
		return
	}

	writeJSONStatus(w, http.StatusCreated, map[string]any{"notification": n})
}

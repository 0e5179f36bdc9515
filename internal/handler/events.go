// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"net/http"

	"chainquest-cms/internal/model"
	"chainquest-cms/internal/store"
)

// EventHandler serves the audit event log.
type EventHandler struct {
	queries *store.Queries
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(db *sql.DB) *EventHandler {
	return &EventHandler{queries: store.New(db)}
}

// List handles GET /api/admin/events.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r, 50)

	events, err := h.queries.ListEvents(r.Context(), store.ListEventsParams{Limit: limit, Offset: offset})
	if err != nil {
		logAndInternalError(w, "failed to list events", "error", err)
		return
	}

	total, err := h.queries.CountEvents(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to count events", "error", err)
		return
	}

	if events == nil {
		events = []model.Event{}
	}
	writeJSONSuccess(w, map[string]any{"events": events, "total": total})
}

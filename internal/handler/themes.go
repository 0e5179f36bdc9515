// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"chainquest-cms/internal/middleware"
	"chainquest-cms/internal/model"
	"chainquest-cms/internal/service"
	"chainquest-cms/internal/store"
	"chainquest-cms/internal/util"
)

// ThemeHandler handles theme preset management and the public active
// theme endpoint.
type ThemeHandler struct {
	queries *store.Queries
	events  *service.EventService
}

// NewThemeHandler creates a new ThemeHandler.
func NewThemeHandler(db *sql.DB, events *service.EventService) *ThemeHandler {
	return &ThemeHandler{queries: store.New(db), events: events}
}

// themeResponse is the wire shape for a preset with parsed colors.
type themeResponse struct {
	model.ThemePreset
	Colors map[string]string `json:"colors"`
}

func toThemeResponse(t model.ThemePreset) themeResponse {
	colors := t.GetColors()
	if colors == nil {
		colors = map[string]string{}
	}
	return themeResponse{ThemePreset: t, Colors: colors}
}

// List handles GET /api/admin/themes.
func (h *ThemeHandler) List(w http.ResponseWriter, r *http.Request) {
	presets, err := h.queries.ListThemePresets(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list theme presets", "error", err)
		return
	}

	out := make([]themeResponse, 0, len(presets))
	for _, t := range presets {
		out = append(out, toThemeResponse(t))
	}
	writeJSONSuccess(w, map[string]any{"themes": out})
}

type themeRequest struct {
	Name   string            `json:"name"`
	Colors map[string]string `json:"colors"`
}

// Create handles POST /api/admin/themes.
func (h *ThemeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req themeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSONError(w, http.StatusBadRequest, "Name is required")
		return
	}

	slug := util.Slugify(req.Name)
	if slug == "" {
		writeJSONError(w, http.StatusBadRequest, "Name does not produce a valid slug")
		return
	}

	preset, err := h.queries.CreateThemePreset(r.Context(), store.CreateThemePresetParams{
		Name:      req.Name,
		Slug:      slug,
		Colors:    model.ColorsToJSON(req.Colors),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			writeJSONError(w, http.StatusConflict, "A theme with that name already exists")
			return
		}
		logAndInternalError(w, "failed to create theme preset", "error", err)
		return
	}

	writeJSONStatus(w, http.StatusCreated, map[string]any{"theme": toThemeResponse(preset)})
}

// Update handles PUT /api/admin/themes/{id}.
func (h *ThemeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req themeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	preset, err := h.queries.GetThemePresetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONError(w, http.StatusNotFound, "Theme not found")
			return
		}
		logAndInternalError(w, "failed to get theme preset", "error", err)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSONError(w, http.StatusBadRequest, "Name is required")
		return
	}
	slug := util.Slugify(req.Name)
	if slug == "" {
		writeJSONError(w, http.StatusBadRequest, "Name does not produce a valid slug")
		return
	}

	err = h.queries.UpdateThemePreset(r.Context(), store.UpdateThemePresetParams{
		ID:        preset.ID,
		Name:      req.Name,
		Slug:      slug,
		Colors:    model.ColorsToJSON(req.Colors),
		UpdatedAt: time.Now(),
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			writeJSONError(w, http.StatusConflict, "A theme with that name already exists")
			return
		}
		logAndInternalError(w, "failed to update theme preset", "error", err)
		return
	}

	updated, err := h.queries.GetThemePresetByID(r.Context(), preset.ID)
	if err != nil {
		logAndInternalError(w, "failed to reload theme preset", "error", err)
		return
	}
	writeJSONSuccess(w, map[string]any{"theme": toThemeResponse(updated)})
}

// Activate handles PUT /api/admin/themes/{id}/activate.
func (h *ThemeHandler) Activate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	preset, err := h.queries.GetThemePresetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONError(w, http.StatusNotFound, "Theme not found")
			return
		}
		logAndInternalError(w, "failed to get theme preset", "error", err)
		return
	}

	if err := h.queries.ActivateThemePreset(r.Context(), preset.ID, time.Now()); err != nil {
		logAndInternalError(w, "failed to activate theme preset", "error", err)
		return
	}

	_ = h.events.LogSystemEvent(r.Context(), model.EventLevelInfo, "Theme activated",
		middleware.GetUserIDPtr(r), clientIP(r), map[string]any{"theme_id": preset.ID, "slug": preset.Slug})

	writeJSONSuccess(w, nil)
}

// Delete handles DELETE /api/admin/themes/{id}. The active preset cannot
// be deleted.
func (h *ThemeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	preset, err := h.queries.GetThemePresetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONError(w, http.StatusNotFound, "Theme not found")
			return
		}
		logAndInternalError(w, "failed to get theme preset", "error", err)
		return
	}

	if preset.IsActive {
		writeJSONError(w, http.StatusBadRequest, "The active theme cannot be deleted")
		return
	}

	if err := h.queries.DeleteThemePreset(r.Context(), preset.ID); err != nil {
		logAndInternalError(w, "failed to delete theme preset", "error", err)
		return
	}

	writeJSONSuccess(w, nil)
}

// PublicActive handles GET /api/theme - the active preset consumed by
// the landing page.
func (h *ThemeHandler) PublicActive(w http.ResponseWriter, r *http.Request) {
	preset, err := h.queries.GetActiveThemePreset(r.Context())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONError(w, http.StatusNotFound, "No active theme")
			return
		}
		logAndInternalError(w, "failed to get active theme", "error", err)
		return
	}

	writeJSONSuccess(w, map[string]any{"theme": toThemeResponse(preset)})
}

// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"chainquest-cms/internal/middleware"
	"chainquest-cms/internal/model"
	"chainquest-cms/internal/service"
	"chainquest-cms/internal/store"
)

// APIKeyHandler handles API key management for the public content API.
type APIKeyHandler struct {
	queries *store.Queries
	events  *service.EventService
}

// NewAPIKeyHandler creates a new APIKeyHandler.
func NewAPIKeyHandler(db *sql.DB, events *service.EventService) *APIKeyHandler {
	return &APIKeyHandler{queries: store.New(db), events: events}
}

// apiKeyResponse is the wire shape for an API key with parsed permissions.
type apiKeyResponse struct {
	model.APIKey
	Permissions []string `json:"permissions"`
}

func toAPIKeyResponse(k model.APIKey) apiKeyResponse {
	perms := k.GetPermissions()
	if perms == nil {
		perms = []string{}
	}
	return apiKeyResponse{APIKey: k, Permissions: perms}
}

// List handles GET /api/admin/api-keys.
func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	keys, err := h.queries.ListAPIKeys(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list api keys", "error", err)
		return
	}

	out := make([]apiKeyResponse, 0, len(keys))
	for _, k := range keys {
		out = append(out, toAPIKeyResponse(k))
	}
	writeJSONSuccess(w, map[string]any{"api_keys": out})
}

type createAPIKeyRequest struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
	ExpiresAt   string   `json:"expires_at"` // RFC 3339, optional
}

// Create handles POST /api/admin/api-keys. The raw key is returned once
// and never stored.
func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAPIKeyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSONError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if len(req.Permissions) == 0 {
		writeJSONError(w, http.StatusBadRequest, "At least one permission is required")
		return
	}
	for _, p := range req.Permissions {
		if !slices.Contains(model.AllAPIPermissions(), p) {
			writeJSONError(w, http.StatusBadRequest, "Unknown API permission: "+p)
			return
		}
	}

	var expiresAt sql.NullTime
	if req.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "expires_at must be RFC 3339")
			return
		}
		if t.Before(time.Now()) {
			writeJSONError(w, http.StatusBadRequest, "expires_at must be in the future")
			return
		}
		expiresAt = sql.NullTime{Time: t, Valid: true}
	}

	rawKey, prefix, err := model.GenerateAPIKey()
	if err != nil {
		logAndInternalError(w, "failed to generate api key", "error", err)
		return
	}

	key, err := h.queries.CreateAPIKey(r.Context(), store.CreateAPIKeyParams{
		Name:        req.Name,
		KeyHash:     model.HashAPIKey(rawKey),
		KeyPrefix:   prefix,
		Permissions: model.PermissionsToJSON(req.Permissions),
		ExpiresAt:   expiresAt,
		CreatedBy:   middleware.GetUserID(r),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	})
	if err != nil {
		logAndInternalError(w, "failed to create api key", "error", err)
		return
	}

	_ = h.events.LogEvent(r.Context(), model.EventLevelInfo, model.EventCategoryAPIKey,
		"API key created", middleware.GetUserIDPtr(r), clientIP(r),
		map[string]any{"key_id": key.ID, "name": key.Name})

	writeJSONStatus(w, http.StatusCreated, map[string]any{
		"api_key": toAPIKeyResponse(key),
		"raw_key": rawKey,
	})
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

// SetActive handles PUT /api/admin/api-keys/{id}/active.
func (h *APIKeyHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req setActiveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := h.queries.GetAPIKeyByID(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONError(w, http.StatusNotFound, "API key not found")
			return
		}
		logAndInternalError(w, "failed to get api key", "error", err)
		return
	}

	if err := h.queries.SetAPIKeyActive(r.Context(), id, req.Active, time.Now()); err != nil {
		logAndInternalError(w, "failed to update api key", "error", err)
		return
	}

	_ = h.events.LogEvent(r.Context(), model.EventLevelInfo, model.EventCategoryAPIKey,
		"API key active flag changed", middleware.GetUserIDPtr(r), clientIP(r),
		map[string]any{"key_id": id, "active": req.Active})

	writeJSONSuccess(w, nil)
}

// Delete handles DELETE /api/admin/api-keys/{id}.
func (h *APIKeyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	if _, err := h.queries.GetAPIKeyByID(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONError(w, http.StatusNotFound, "API key not found")
			return
		}
		logAndInternalError(w, "failed to get api key", "error", err)
		return
	}

	if err := h.queries.DeleteAPIKey(r.Context(), id); err != nil {
		logAndInternalError(w, "failed to delete api key", "error", err)
		return
	}

	_ = h.events.LogEvent(r.Context(), model.EventLevelWarning, model.EventCategoryAPIKey,
		"API key deleted", middleware.GetUserIDPtr(r), clientIP(r),
		map[string]any{"key_id": id})

	writeJSONSuccess(w, nil)
}

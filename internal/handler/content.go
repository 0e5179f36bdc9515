// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"chainquest-cms/internal/cache"
	"chainquest-cms/internal/markdown"
	"chainquest-cms/internal/middleware"
	"chainquest-cms/internal/model"
	"chainquest-cms/internal/service"
	"chainquest-cms/internal/store"
)

// ContentHandler handles landing page content, both the admin editing
// surface and the cached public read endpoints.
type ContentHandler struct {
	queries *store.Queries
	events  *service.EventService
	cache   cache.Cache
}

// NewContentHandler creates a new ContentHandler.
func NewContentHandler(db *sql.DB, events *service.EventService, c cache.Cache) *ContentHandler {
	return &ContentHandler{queries: store.New(db), events: events, cache: c}
}

// contentResponse is the wire shape for a content record with its parsed
// payload.
type contentResponse struct {
	model.Content
	Payload model.ContentPayload `json:"payload"`
}

func toContentResponse(c model.Content) contentResponse {
	return contentResponse{Content: c, Payload: c.GetPayload()}
}

// contentTypeParam normalizes and validates the {type} URL parameter.
func contentTypeParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	t := strings.ToUpper(chi.URLParam(r, "type"))
	if !model.IsValidContentType(t) {
		writeJSONError(w, http.StatusBadRequest, "Unknown content type")
		return "", false
	}
	return t, true
}

// AdminList handles GET /api/admin/content.
func (h *ContentHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	records, err := h.queries.ListContent(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list content", "error", err)
		return
	}

	out := make([]contentResponse, 0, len(records))
	for _, c := range records {
		out = append(out, toContentResponse(c))
	}
	writeJSONSuccess(w, map[string]any{"content": out})
}

// AdminGet handles GET /api/admin/content/{type}.
func (h *ContentHandler) AdminGet(w http.ResponseWriter, r *http.Request) {
	contentType, ok := contentTypeParam(w, r)
	if !ok {
		return
	}

	c, err := h.queries.GetContentByType(r.Context(), contentType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// No record yet for this type; return an empty document so
			// the editor can start from scratch.
			writeJSONSuccess(w, map[string]any{"content": contentResponse{
				Content: model.Content{Type: contentType},
			}})
			return
		}
		logAndInternalError(w, "failed to get content", "error", err)
		return
	}

	writeJSONSuccess(w, map[string]any{"content": toContentResponse(c)})
}

// Update handles PUT /api/admin/content/{type}. Content is replaced
// wholesale per type; the public cache entry is invalidated on success.
func (h *ContentHandler) Update(w http.ResponseWriter, r *http.Request) {
	contentType, ok := contentTypeParam(w, r)
	if !ok {
		return
	}

	var payload model.ContentPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	if err := payload.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid payload: "+err.Error())
		return
	}

	// Strip any markup smuggled into free-text fields.
	payload.Title = markdown.Sanitize(payload.Title)
	payload.Subtitle = markdown.Sanitize(payload.Subtitle)
	for i := range payload.Items {
		payload.Items[i].Title = markdown.Sanitize(payload.Items[i].Title)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		logAndInternalError(w, "failed to marshal payload", "error", err)
		return
	}

	var updatedBy sql.NullInt64
	if id := middleware.GetUserID(r); id != 0 {
		updatedBy = sql.NullInt64{Int64: id, Valid: true}
	}

	c, err := h.queries.UpsertContent(r.Context(), store.UpsertContentParams{
		Type:      contentType,
		Payload:   string(raw),
		UpdatedBy: updatedBy,
		Now:       time.Now(),
	})
	if err != nil {
		logAndInternalError(w, "failed to save content", "error", err)
		return
	}

	h.invalidate(r, contentType)

	_ = h.events.LogContentEvent(r.Context(), model.EventLevelInfo, "Content updated",
		middleware.GetUserIDPtr(r), clientIP(r), map[string]any{"type": contentType})

	writeJSONSuccess(w, map[string]any{"content": toContentResponse(c)})
}

func (h *ContentHandler) invalidate(r *http.Request, contentType string) {
	if h.cache == nil {
		return
	}
	_ = h.cache.Delete(r.Context(), contentCacheKey(contentType))
	_ = h.cache.Delete(r.Context(), contentCacheKeyAll)
}

const contentCacheKeyAll = "content:all"

func contentCacheKey(contentType string) string {
	return "content:" + contentType
}

// PublicGet handles GET /api/content/{type}. Responses are cached; FAQ
// answer bodies are rendered from Markdown to sanitized HTML.
func (h *ContentHandler) PublicGet(w http.ResponseWriter, r *http.Request) {
	contentType, ok := contentTypeParam(w, r)
	if !ok {
		return
	}

	if h.cache != nil {
		if cached, err := h.cache.Get(r.Context(), contentCacheKey(contentType)); err == nil {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Cache", "hit")
			_, _ = w.Write(cached)
			return
		}
	}

	c, err := h.queries.GetContentByType(r.Context(), contentType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONError(w, http.StatusNotFound, "Content not found")
			return
		}
		logAndInternalError(w, "failed to get content", "error", err)
		return
	}

	body, err := h.renderPublic(c)
	if err != nil {
		logAndInternalError(w, "failed to render content", "error", err)
		return
	}

	if h.cache != nil {
		_ = h.cache.Set(r.Context(), contentCacheKey(contentType), body, 0)
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

// PublicList handles GET /api/content - all sections in one response for
// the landing page's initial load.
func (h *ContentHandler) PublicList(w http.ResponseWriter, r *http.Request) {
	if h.cache != nil {
		if cached, err := h.cache.Get(r.Context(), contentCacheKeyAll); err == nil {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Cache", "hit")
			_, _ = w.Write(cached)
			return
		}
	}

	records, err := h.queries.ListContent(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list content", "error", err)
		return
	}

	sections := make(map[string]model.ContentPayload, len(records))
	for _, c := range records {
		payload, err := publicPayload(c)
		if err != nil {
			logAndInternalError(w, "failed to render content", "error", err, "type", c.Type)
			return
		}
		sections[c.Type] = payload
	}

	body, err := json.Marshal(map[string]any{"success": true, "sections": sections})
	if err != nil {
		logAndInternalError(w, "failed to marshal content", "error", err)
		return
	}

	if h.cache != nil {
		_ = h.cache.Set(r.Context(), contentCacheKeyAll, body, 0)
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func (h *ContentHandler) renderPublic(c model.Content) ([]byte, error) {
	payload, err := publicPayload(c)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]any{
		"success": true,
		"type":    c.Type,
		"payload": payload,
	})
}

// publicPayload prepares a payload for public consumption. FAQ item
// bodies are authored as Markdown and served as HTML.
func publicPayload(c model.Content) (model.ContentPayload, error) {
	payload := c.GetPayload()
	if c.Type != model.ContentTypeFAQ {
		return payload, nil
	}
	for i, item := range payload.Items {
		rendered, err := markdown.ToHTML(item.Body)
		if err != nil {
			return payload, err
		}
		payload.Items[i].Body = rendered
	}
	return payload, nil
}

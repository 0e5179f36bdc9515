// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"chainquest-cms/internal/imaging"
	"chainquest-cms/internal/middleware"
	"chainquest-cms/internal/model"
	"chainquest-cms/internal/service"
)

// maxUploadBytes caps media uploads.
const maxUploadBytes = 10 << 20 // 10 MB

// MediaHandler handles media uploads for landing page imagery.
type MediaHandler struct {
	processor *imaging.Processor
	uploadDir string
	events    *service.EventService
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(uploadDir string, events *service.EventService) *MediaHandler {
	return &MediaHandler{
		processor: imaging.NewProcessor(uploadDir),
		uploadDir: uploadDir,
		events:    events,
	}
}

// mediaFile is the wire shape for a stored media file.
type mediaFile struct {
	Path      string `json:"path"`
	ThumbPath string `json:"thumb_path,omitempty"`
	Size      int64  `json:"size"`
	URL       string `json:"url"`
}

// Upload handles POST /api/admin/media. Accepts multipart form data with
// a "file" field; images are auto-rotated, stripped of metadata, and
// thumbnailed.
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid multipart form or file too large")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	id := uuid.New().String()
	result, err := h.processor.ProcessImage(file, id, header.Filename)
	if err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, "Cannot process image: "+err.Error())
		return
	}

	_ = h.events.LogContentEvent(r.Context(), model.EventLevelInfo, "Media uploaded",
		middleware.GetUserIDPtr(r), clientIP(r), map[string]any{
			"path": result.FilePath, "mime": result.MimeType, "size": result.Size,
		})

	writeJSONStatus(w, http.StatusCreated, map[string]any{"media": mediaFile{
		Path:      result.FilePath,
		ThumbPath: result.ThumbPath,
		Size:      result.Size,
		URL:       mediaURL(result.FilePath),
	}})
}

// List handles GET /api/admin/media. Media is stored on disk only; the
// listing walks the upload directory, skipping thumbnails.
func (h *MediaHandler) List(w http.ResponseWriter, r *http.Request) {
	var files []mediaFile

	err := filepath.WalkDir(h.uploadDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(h.uploadDir, path)
		if err != nil {
			return nil
		}
		if strings.Contains(rel, "_thumb") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, mediaFile{
			Path:      rel,
			ThumbPath: thumbPathFor(rel),
			Size:      info.Size(),
			URL:       mediaURL(rel),
		})
		return nil
	})
	if err != nil {
		logAndInternalError(w, "failed to walk upload directory", "error", err)
		return
	}

	if files == nil {
		files = []mediaFile{}
	}
	writeJSONSuccess(w, map[string]any{"media": files})
}

type deleteMediaRequest struct {
	Path string `json:"path"`
}

// Delete handles DELETE /api/admin/media. Removes a file and its
// thumbnail; the path must stay inside the upload directory.
func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req deleteMediaRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rel := filepath.Clean(req.Path)
	if rel == "" || rel == "." || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		writeJSONError(w, http.StatusBadRequest, "Invalid path")
		return
	}

	if err := h.processor.Remove(rel, thumbPathFor(rel)); err != nil {
		logAndInternalError(w, "failed to remove media", "error", err)
		return
	}

	_ = h.events.LogContentEvent(r.Context(), model.EventLevelWarning, "Media deleted",
		middleware.GetUserIDPtr(r), clientIP(r), map[string]any{"path": rel})

	writeJSONSuccess(w, nil)
}

// thumbPathFor derives the thumbnail path the processor would have
// written for an original.
func thumbPathFor(rel string) string {
	ext := filepath.Ext(rel)
	return strings.TrimSuffix(rel, ext) + "_thumb" + ext
}

func mediaURL(rel string) string {
	return "/media/" + filepath.ToSlash(rel)
}

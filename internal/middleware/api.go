// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"chainquest-cms/internal/model"
	"chainquest-cms/internal/store"
)

// ContextKeyAPIKey is the context key for API key data.
const ContextKeyAPIKey ContextKey = "api_key"

// APIError represents a JSON error response for the API.
type APIError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// WriteAPIError writes a JSON error response.
func WriteAPIError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	apiErr := APIError{}
	apiErr.Error.Code = code
	apiErr.Error.Message = message

	_ = json.NewEncoder(w).Encode(apiErr)
}

// RequireAPIKey creates middleware that authenticates requests with a
// bearer API key carrying the given permission.
func RequireAPIKey(db *sql.DB, permission string) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey, ok := validateAPIKey(w, r, queries)
			if !ok {
				return
			}

			if !apiKey.HasPermission(permission) {
				WriteAPIError(w, http.StatusForbidden, "forbidden", "API key lacks required permission")
				return
			}

			// Best-effort usage stamp; failures don't block the request.
			if err := queries.TouchAPIKeyLastUsed(r.Context(), apiKey.ID, time.Now()); err != nil {
				slog.Debug("failed to stamp API key usage", "error", err, "key_id", apiKey.ID)
			}

			ctx := context.WithValue(r.Context(), ContextKeyAPIKey, apiKey)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validateAPIKey parses the Authorization header and validates the API
// key. When validation fails an error response is written and ok=false
// is returned.
func validateAPIKey(w http.ResponseWriter, r *http.Request, queries *store.Queries) (*model.APIKey, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Missing Authorization header")
		return nil, false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Invalid Authorization header format. Use: Bearer <api_key>")
		return nil, false
	}

	rawKey := parts[1]
	if rawKey == "" {
		WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "API key is empty")
		return nil, false
	}

	keyHash := model.HashAPIKey(rawKey)
	apiKey, err := queries.GetAPIKeyByHash(r.Context(), keyHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Invalid API key")
		} else {
			slog.Error("failed to validate API key", "error", err)
			WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to validate API key")
		}
		return nil, false
	}

	if !apiKey.IsActive {
		WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "API key is inactive")
		return nil, false
	}

	if apiKey.IsExpired() {
		WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "API key has expired")
		return nil, false
	}

	return &apiKey, true
}

// GetAPIKey retrieves the authenticated API key from the request context.
func GetAPIKey(r *http.Request) *model.APIKey {
	key, ok := r.Context().Value(ContextKeyAPIKey).(*model.APIKey)
	if !ok {
		return nil
	}
	return key
}

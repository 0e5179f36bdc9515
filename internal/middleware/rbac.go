// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"chainquest-cms/internal/rbac"
	"chainquest-cms/internal/service"
)

// PermissionMode selects how a required permission set is evaluated.
type PermissionMode int

// Permission evaluation modes.
const (
	RequireAll PermissionMode = iota
	RequireAny
)

// Error codes returned by authorization middleware. "unauthorized"
// distinguishes "not an admin at all" from "forbidden" (admin missing a
// specific permission); panel clients route to different destinations
// per code.
const (
	CodeUnauthenticated = "unauthenticated"
	CodeUnauthorized    = "unauthorized"
	CodeForbidden       = "forbidden"
)

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"code":    code,
		"error":   message,
	})
}

// RequirePanelAccess creates middleware requiring an authenticated user
// whose role holds the baseline panel.access permission. This check
// always precedes fine-grained permission checks.
func RequirePanelAccess(eventService *service.EventService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r)
			if user == nil {
				writeAuthError(w, http.StatusUnauthorized, CodeUnauthenticated, "Authentication required")
				return
			}

			if !rbac.Has(user, rbac.PermPanelAccess) {
				logDenied(r, eventService, rbac.PermPanelAccess, CodeUnauthorized)
				writeAuthError(w, http.StatusForbidden, CodeUnauthorized, "Admin panel access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission creates middleware requiring specific permissions in
// addition to panel access. Use RequireAll to demand every permission,
// RequireAny to accept any one of them.
func RequirePermission(mode PermissionMode, eventService *service.EventService, permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r)
			if user == nil {
				writeAuthError(w, http.StatusUnauthorized, CodeUnauthenticated, "Authentication required")
				return
			}

			// Baseline check precedes fine-grained checks.
			if !rbac.Has(user, rbac.PermPanelAccess) {
				logDenied(r, eventService, rbac.PermPanelAccess, CodeUnauthorized)
				writeAuthError(w, http.StatusForbidden, CodeUnauthorized, "Admin panel access required")
				return
			}

			granted := rbac.HasAll(user, permissions)
			if mode == RequireAny {
				granted = rbac.HasAny(user, permissions)
			}

			if !granted {
				for _, p := range permissions {
					logDenied(r, eventService, p, CodeForbidden)
					break
				}
				writeAuthError(w, http.StatusForbidden, CodeForbidden, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// logDenied records a 403 both in application logs and the event log for
// security monitoring.
func logDenied(r *http.Request, eventService *service.EventService, permission, code string) {
	user := GetUser(r)

	slog.Warn("access denied",
		"status", http.StatusForbidden,
		"method", r.Method,
		"path", r.URL.Path,
		"user_id", user.ID,
		"role", user.Role.Slug,
		"permission", permission,
		"remote_addr", r.RemoteAddr,
	)

	if eventService != nil {
		userID := user.ID
		metadata := map[string]any{
			"method":     r.Method,
			"status":     http.StatusForbidden,
			"role":       user.Role.Slug,
			"permission": permission,
			"code":       code,
		}
		_ = eventService.LogAuthEvent(r.Context(), "warning", "Access denied: insufficient permissions",
			&userID, r.RemoteAddr, metadata)
	}
}

// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// authorization, and request context handling.
package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"

	"github.com/alexedwards/scs/v2"

	"chainquest-cms/internal/model"
	"chainquest-cms/internal/store"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys for request-scoped data.
const (
	ContextKeyUser        ContextKey = "user"
	ContextKeyRequestPath ContextKey = "request_path"
)

// SessionKeyUserID is the session key holding the authenticated user id.
const SessionKeyUserID = "user_id"

// IdentityHeader carries the session's user id on API requests. Trust is
// delegated to whatever transport-level protection surrounds the header
// (reverse proxy, session cookie); the application does not prevent
// spoofing itself, which is why honoring it is gated behind configuration.
const IdentityHeader = "X-User-ID"

// ResolveUserID extracts the request's user id from the session, or from
// the identity header when trustHeader is enabled. Returns 0 when the
// request is unauthenticated.
func ResolveUserID(r *http.Request, sm *scs.SessionManager, trustHeader bool) int64 {
	if id := sm.GetInt64(r.Context(), SessionKeyUserID); id != 0 {
		return id
	}
	if trustHeader {
		if raw := r.Header.Get(IdentityHeader); raw != "" {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
				return id
			}
		}
	}
	return 0
}

// LoadUser creates middleware that resolves the request identity and
// loads the user-plus-role projection into the request context. Requests
// without a resolvable or valid identity continue without user context;
// authorization middleware downstream decides whether that is fatal.
func LoadUser(sm *scs.SessionManager, db *sql.DB, trustHeader bool) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := ResolveUserID(r, sm, trustHeader)
			if userID == 0 {
				next.ServeHTTP(w, r)
				return
			}

			user, err := queries.GetUserByID(r.Context(), userID)
			if err != nil {
				// Stale session pointing at a deleted user: drop it.
				_ = sm.Destroy(r.Context())
				next.ServeHTTP(w, r)
				return
			}

			role, err := queries.GetRoleByID(r.Context(), user.RoleID)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, model.NewAuthUser(user, role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser retrieves the current user from the request context.
// Returns nil if no user is in context.
func GetUser(r *http.Request) *model.AuthUser {
	user, ok := r.Context().Value(ContextKeyUser).(*model.AuthUser)
	if !ok {
		return nil
	}
	return user
}

// GetUserID returns the current user's ID from context, or 0 if not found.
func GetUserID(r *http.Request) int64 {
	if user := GetUser(r); user != nil {
		return user.ID
	}
	return 0
}

// GetUserIDPtr returns a pointer to the current user's ID from context,
// or nil if not found. Useful for optional user ID parameters in event
// logging.
func GetUserIDPtr(r *http.Request) *int64 {
	if user := GetUser(r); user != nil {
		id := user.ID
		return &id
	}
	return nil
}

// RequestPath creates middleware that stores the request path in the context.
func RequestPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ContextKeyRequestPath, r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestPath retrieves the request path from the context.
func GetRequestPath(ctx context.Context) string {
	path, ok := ctx.Value(ContextKeyRequestPath).(string)
	if !ok {
		return ""
	}
	return path
}

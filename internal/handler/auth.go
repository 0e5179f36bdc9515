// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/mileusna/useragent"

	"chainquest-cms/internal/auth"
	"chainquest-cms/internal/geoip"
	"chainquest-cms/internal/middleware"
	"chainquest-cms/internal/model"
	"chainquest-cms/internal/service"
	"chainquest-cms/internal/store"
)

// AuthHandler handles login, logout, and the session fetch endpoint.
type AuthHandler struct {
	queries        *store.Queries
	sessionManager *scs.SessionManager
	events         *service.EventService
	protection     *middleware.LoginProtection
	geo            *geoip.Resolver
}

// NewAuthHandler creates a new AuthHandler. geo may be nil when GeoIP is
// not configured.
func NewAuthHandler(db *sql.DB, sm *scs.SessionManager, events *service.EventService, lp *middleware.LoginProtection, geo *geoip.Resolver) *AuthHandler {
	return &AuthHandler{
		queries:        store.New(db),
		sessionManager: sm,
		events:         events,
		protection:     lp,
		geo:            geo,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)

	if h.protection != nil && !h.protection.CheckIPRateLimit(ip) {
		writeJSONError(w, http.StatusTooManyRequests, "Too many login attempts, slow down")
		return
	}

	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		writeJSONError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	if h.protection != nil && h.protection.IsAccountLocked(req.Email) {
		writeJSONError(w, http.StatusTooManyRequests, "Account temporarily locked, try again later")
		return
	}

	user, err := h.queries.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.failLogin(w, r, req.Email, ip, "unknown email")
			return
		}
		logAndInternalError(w, "failed to look up user", "error", err)
		return
	}

	if !user.PasswordHash.Valid {
		h.failLogin(w, r, req.Email, ip, "no password set")
		return
	}

	ok, err := auth.CheckPassword(req.Password, user.PasswordHash.String)
	if err != nil || !ok {
		h.failLogin(w, r, req.Email, ip, "bad password")
		return
	}

	if !user.IsActive() {
		writeJSONError(w, http.StatusForbidden, "Account is inactive")
		return
	}

	if h.protection != nil {
		h.protection.RecordSuccess(req.Email)
	}

	// Renew the session token on privilege change.
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, "failed to renew session token", "error", err)
		return
	}
	h.sessionManager.Put(r.Context(), middleware.SessionKeyUserID, user.ID)

	now := time.Now()
	if err := h.queries.UpdateUserLastLogin(r.Context(), user.ID, now); err != nil {
		// Not fatal for the login itself.
		h.events.LogAuthEvent(r.Context(), model.EventLevelWarning, "Failed to stamp last login",
			&user.ID, ip, map[string]any{"error": err.Error()})
	}

	ua := useragent.Parse(r.UserAgent())
	metadata := map[string]any{
		"browser": ua.Name,
		"os":      ua.OS,
		"mobile":  ua.Mobile,
	}
	if country := h.geo.CountryCode(ip); country != "" {
		metadata["country"] = country
	}
	_ = h.events.LogAuthEvent(r.Context(), model.EventLevelInfo, "User logged in", &user.ID, ip, metadata)

	role, err := h.queries.GetRoleByID(r.Context(), user.RoleID)
	if err != nil {
		logAndInternalError(w, "failed to load role after login", "error", err)
		return
	}

	writeJSONSuccess(w, map[string]any{"user": model.NewAuthUser(user, role)})
}

// failLogin records a failed attempt and writes a uniform 401 so the
// response doesn't leak which part of the credentials was wrong.
func (h *AuthHandler) failLogin(w http.ResponseWriter, r *http.Request, email, ip, reason string) {
	if h.protection != nil {
		h.protection.RecordFailedAttempt(email)
	}
	_ = h.events.LogAuthEvent(r.Context(), model.EventLevelWarning, "Failed login attempt",
		nil, ip, map[string]any{"email": email, "reason": reason})
	writeJSONError(w, http.StatusUnauthorized, "Invalid email or password")
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDPtr(r)

	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		logAndInternalError(w, "failed to destroy session", "error", err)
		return
	}

	_ = h.events.LogAuthEvent(r.Context(), model.EventLevelInfo, "User logged out",
		userID, clientIP(r), nil)

	writeJSONSuccess(w, nil)
}

// Me handles GET /api/auth/me - the session fetch endpoint polled by the
// panel synchronizer. Returns the authoritative user record with its
// nested role and permission set.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		writeJSONError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	writeJSONSuccess(w, map[string]any{"user": user})
}

// clientIP extracts the client address without the port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

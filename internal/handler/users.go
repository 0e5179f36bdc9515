// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"chainquest-cms/internal/auth"
	"chainquest-cms/internal/middleware"
	"chainquest-cms/internal/model"
	"chainquest-cms/internal/service"
	"chainquest-cms/internal/store"
)

// UserHandler handles admin user management.
type UserHandler struct {
	queries *store.Queries
	events  *service.EventService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(db *sql.DB, events *service.EventService) *UserHandler {
	return &UserHandler{queries: store.New(db), events: events}
}

// List handles GET /api/admin/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r, 50)

	users, err := h.queries.ListUsers(r.Context(), store.ListUsersParams{Limit: limit, Offset: offset})
	if err != nil {
		logAndInternalError(w, "failed to list users", "error", err)
		return
	}

	total, err := h.queries.CountUsers(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to count users", "error", err)
		return
	}

	if users == nil {
		users = []model.User{}
	}
	writeJSONSuccess(w, map[string]any{"users": users, "total": total})
}

// Get handles GET /api/admin/users/{id}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	user, err := h.queries.GetUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONError(w, http.StatusNotFound, "User not found")
			return
		}
		logAndInternalError(w, "failed to get user", "error", err)
		return
	}

	writeJSONSuccess(w, map[string]any{"user": user})
}

type createUserRequest struct {
	Email         string `json:"email"`
	Name          string `json:"name"`
	WalletAddress string `json:"wallet_address"`
	AuthMethod    string `json:"auth_method"`
	Password      string `json:"password"`
	RoleID        int64  `json:"role_id"`
}

// Create handles POST /api/admin/users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	req.WalletAddress = strings.TrimSpace(req.WalletAddress)
	if req.AuthMethod == "" {
		req.AuthMethod = model.AuthMethodEmail
	}

	if req.Name == "" {
		writeJSONError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if !slices.Contains(model.ValidAuthMethods, req.AuthMethod) {
		writeJSONError(w, http.StatusBadRequest, "Invalid auth method")
		return
	}
	if req.AuthMethod != model.AuthMethodWallet {
		if req.Email == "" {
			writeJSONError(w, http.StatusBadRequest, "Email is required for this auth method")
			return
		}
		if len(req.Password) < 8 {
			writeJSONError(w, http.StatusBadRequest, "Password must be at least 8 characters")
			return
		}
	}
	if req.AuthMethod != model.AuthMethodEmail && req.WalletAddress == "" {
		writeJSONError(w, http.StatusBadRequest, "Wallet address is required for this auth method")
		return
	}

	if _, err := h.queries.GetRoleByID(r.Context(), req.RoleID); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Role does not exist")
		return
	}

	params := store.CreateUserParams{
		Name:       req.Name,
		AuthMethod: req.AuthMethod,
		Status:     model.StatusActive,
		RoleID:     req.RoleID,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if req.Email != "" {
		params.Email = sql.NullString{String: req.Email, Valid: true}
	}
	if req.WalletAddress != "" {
		params.WalletAddress = sql.NullString{String: req.WalletAddress, Valid: true}
	}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			logAndInternalError(w, "failed to hash password", "error", err)
			return
		}
		params.PasswordHash = sql.NullString{String: hash, Valid: true}
	}

	user, err := h.queries.CreateUser(r.Context(), params)
	if err != nil {
		if store.IsUniqueViolation(err) {
			writeJSONError(w, http.StatusConflict, "A user with that email or wallet already exists")
			return
		}
		logAndInternalError(w, "failed to create user", "error", err)
		return
	}

	_ = h.events.LogUserEvent(r.Context(), model.EventLevelInfo, "User created",
		middleware.GetUserIDPtr(r), clientIP(r), map[string]any{"user_id": user.ID, "name": user.Name})

	writeJSONStatus(w, http.StatusCreated, map[string]any{"user": user})
}

type updateUserRequest struct {
	Email         *string `json:"email"`
	Name          *string `json:"name"`
	WalletAddress *string `json:"wallet_address"`
	AuthMethod    *string `json:"auth_method"`
	Status        *string `json:"status"`
	Password      *string `json:"password"`
	RoleID        *int64  `json:"role_id"`
}

// Update handles PUT /api/admin/users/{id}.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req updateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.queries.GetUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONError(w, http.StatusNotFound, "User not found")
			return
		}
		logAndInternalError(w, "failed to get user", "error", err)
		return
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			writeJSONError(w, http.StatusBadRequest, "Name cannot be empty")
			return
		}
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*req.Email))
		user.Email = sql.NullString{String: email, Valid: email != ""}
	}
	if req.WalletAddress != nil {
		wallet := strings.TrimSpace(*req.WalletAddress)
		user.WalletAddress = sql.NullString{String: wallet, Valid: wallet != ""}
	}
	if req.AuthMethod != nil {
		if !slices.Contains(model.ValidAuthMethods, *req.AuthMethod) {
			writeJSONError(w, http.StatusBadRequest, "Invalid auth method")
			return
		}
		user.AuthMethod = *req.AuthMethod
	}
	if req.Status != nil {
		if *req.Status != model.StatusActive && *req.Status != model.StatusInactive {
			writeJSONError(w, http.StatusBadRequest, "Invalid status")
			return
		}
		// An admin cannot deactivate their own account.
		if *req.Status == model.StatusInactive && middleware.GetUserID(r) == id {
			writeJSONError(w, http.StatusBadRequest, "You cannot deactivate your own account")
			return
		}
		user.Status = *req.Status
	}
	if req.RoleID != nil {
		if _, err := h.queries.GetRoleByID(r.Context(), *req.RoleID); err != nil {
			writeJSONError(w, http.StatusBadRequest, "Role does not exist")
			return
		}
		user.RoleID = *req.RoleID
	}

	err = h.queries.UpdateUser(r.Context(), store.UpdateUserParams{
		ID:            user.ID,
		Email:         user.Email,
		Name:          user.Name,
		WalletAddress: user.WalletAddress,
		AuthMethod:    user.AuthMethod,
		Status:        user.Status,
		RoleID:        user.RoleID,
		UpdatedAt:     time.Now(),
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			writeJSONError(w, http.StatusConflict, "A user with that email or wallet already exists")
			return
		}
		logAndInternalError(w, "failed to update user", "error", err)
		return
	}

	if req.Password != nil && *req.Password != "" {
		if len(*req.Password) < 8 {
			writeJSONError(w, http.StatusBadRequest, "Password must be at least 8 characters")
			return
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			logAndInternalError(w, "failed to hash password", "error", err)
			return
		}
		if err := h.queries.UpdateUserPassword(r.Context(), user.ID, hash, time.Now()); err != nil {
			logAndInternalError(w, "failed to update password", "error", err)
			return
		}
	}

	_ = h.events.LogUserEvent(r.Context(), model.EventLevelInfo, "User updated",
		middleware.GetUserIDPtr(r), clientIP(r), map[string]any{"user_id": user.ID})

	updated, err := h.queries.GetUserByID(r.Context(), user.ID)
	if err != nil {
		logAndInternalError(w, "failed to reload user", "error", err)
		return
	}
	writeJSONSuccess(w, map[string]any{"user": updated})
}

// Delete handles DELETE /api/admin/users/{id}.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	if middleware.GetUserID(r) == id {
		writeJSONError(w, http.StatusBadRequest, "You cannot delete your own account")
		return
	}

	if _, err := h.queries.GetUserByID(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONError(w, http.StatusNotFound, "User not found")
			return
		}
		logAndInternalError(w, "failed to get user", "error", err)
		return
	}

	if err := h.queries.DeleteUser(r.Context(), id); err != nil {
		logAndInternalError(w, "failed to delete user", "error", err)
		return
	}

	_ = h.events.LogUserEvent(r.Context(), model.EventLevelWarning, "User deleted",
		middleware.GetUserIDPtr(r), clientIP(r), map[string]any{"user_id": id})

	writeJSONSuccess(w, nil)
}

// idParam parses the {id} URL parameter, writing a 400 response when it
// is not a positive integer.
func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}

// paginationParams parses limit and offset query parameters.
func paginationParams(r *http.Request, defaultLimit int64) (limit, offset int64) {
	limit = defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil && v > 0 && v <= 200 {
			limit = v
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}

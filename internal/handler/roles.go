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
	"chainquest-cms/internal/rbac"
	"chainquest-cms/internal/service"
	"chainquest-cms/internal/store"
	"chainquest-cms/internal/util"
)

// RoleHandler handles role management and the permission catalogue.
type RoleHandler struct {
	queries *store.Queries
	events  *service.EventService
}

// NewRoleHandler creates a new RoleHandler.
func NewRoleHandler(db *sql.DB, events *service.EventService) *RoleHandler {
	return &RoleHandler{queries: store.New(db), events: events}
}

// roleResponse is the wire shape for a role with parsed permissions.
type roleResponse struct {
	model.Role
	Permissions []string `json:"permissions"`
	UserCount   int64    `json:"user_count,omitempty"`
}

func (h *RoleHandler) toResponse(r model.Role) roleResponse {
	perms := r.GetPermissions()
	if perms == nil {
		perms = []string{}
	}
	return roleResponse{Role: r, Permissions: perms}
}

// List handles GET /api/admin/roles.
func (h *RoleHandler) List(w http.ResponseWriter, r *http.Request) {
	roles, err := h.queries.ListRoles(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list roles", "error", err)
		return
	}

	out := make([]roleResponse, 0, len(roles))
	for _, role := range roles {
		resp := h.toResponse(role)
		if count, err := h.queries.CountUsersByRole(r.Context(), role.ID); err == nil {
			resp.UserCount = count
		}
		out = append(out, resp)
	}

	writeJSONSuccess(w, map[string]any{"roles": out})
}

// Get handles GET /api/admin/roles/{id}.
func (h *RoleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	role, err := h.queries.GetRoleByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONError(w, http.StatusNotFound, "Role not found")
			return
		}
		logAndInternalError(w, "failed to get role", "error", err)
		return
	}

	writeJSONSuccess(w, map[string]any{"role": h.toResponse(role)})
}

type roleRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

// validatePermissions rejects permission strings outside the catalogue.
func validatePermissions(perms []string) (string, bool) {
	for _, p := range perms {
		if !rbac.IsKnownPermission(p) {
			return p, false
		}
	}
	return "", true
}

// Create handles POST /api/admin/roles.
func (h *RoleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSONError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if unknown, ok := validatePermissions(req.Permissions); !ok {
		writeJSONError(w, http.StatusBadRequest, "Unknown permission: "+unknown)
		return
	}

	slug := util.Slugify(req.Name)
	if slug == "" {
		writeJSONError(w, http.StatusBadRequest, "Name does not produce a valid slug")
		return
	}

	role, err := h.queries.CreateRole(r.Context(), store.CreateRoleParams{
		Name:        req.Name,
		Slug:        slug,
		Description: strings.TrimSpace(req.Description),
		Permissions: model.PermissionsToJSON(req.Permissions),
		IsSystem:    false,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			writeJSONError(w, http.StatusConflict, "A role with that name already exists")
			return
		}
		logAndInternalError(w, "failed to create role", "error", err)
		return
	}

	_ = h.events.LogRoleEvent(r.Context(), model.EventLevelInfo, "Role created",
		middleware.GetUserIDPtr(r), clientIP(r), map[string]any{"role_id": role.ID, "slug": role.Slug})

	writeJSONStatus(w, http.StatusCreated, map[string]any{"role": h.toResponse(role)})
}

// Update handles PUT /api/admin/roles/{id}. System roles accept only
// permission changes; their name and slug are fixed.
func (h *RoleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req roleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	role, err := h.queries.GetRoleByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONError(w, http.StatusNotFound, "Role not found")
			return
		}
		logAndInternalError(w, "failed to get role", "error", err)
		return
	}

	if unknown, ok := validatePermissions(req.Permissions); !ok {
		writeJSONError(w, http.StatusBadRequest, "Unknown permission: "+unknown)
		return
	}

	// The super admin role always retains the full permission set.
	if role.IsSuperAdmin() {
		writeJSONError(w, http.StatusBadRequest, "The super admin role cannot be modified")
		return
	}

	permsJSON := model.PermissionsToJSON(req.Permissions)

	if role.IsSystem {
		if err := h.queries.UpdateRolePermissions(r.Context(), role.ID, permsJSON, time.Now()); err != nil {
			logAndInternalError(w, "failed to update role permissions", "error", err)
			return
		}
	} else {
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

		err = h.queries.UpdateRole(r.Context(), store.UpdateRoleParams{
			ID:          role.ID,
			Name:        req.Name,
			Slug:        slug,
			Description: strings.TrimSpace(req.Description),
			Permissions: permsJSON,
			UpdatedAt:   time.Now(),
		})
		if err != nil {
			if store.IsUniqueViolation(err) {
				writeJSONError(w, http.StatusConflict, "A role with that name already exists")
				return
			}
			logAndInternalError(w, "failed to update role", "error", err)
			return
		}
	}

	_ = h.events.LogRoleEvent(r.Context(), model.EventLevelInfo, "Role updated",
		middleware.GetUserIDPtr(r), clientIP(r), map[string]any{"role_id": role.ID, "slug": role.Slug})

	updated, err := h.queries.GetRoleByID(r.Context(), role.ID)
	if err != nil {
		logAndInternalError(w, "failed to reload role", "error", err)
		return
	}
	writeJSONSuccess(w, map[string]any{"role": h.toResponse(updated)})
}

type deleteRoleRequest struct {
	ReassignTo int64 `json:"reassign_to"`
}

// Delete handles DELETE /api/admin/roles/{id}. Roles with assigned users
// require a reassign_to target role; system roles cannot be deleted.
func (h *RoleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	role, err := h.queries.GetRoleByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONError(w, http.StatusNotFound, "Role not found")
			return
		}
		logAndInternalError(w, "failed to get role", "error", err)
		return
	}

	if role.IsSystem {
		writeJSONError(w, http.StatusBadRequest, "System roles cannot be deleted")
		return
	}

	count, err := h.queries.CountUsersByRole(r.Context(), role.ID)
	if err != nil {
		logAndInternalError(w, "failed to count role users", "error", err)
		return
	}

	if count > 0 {
		var req deleteRoleRequest
		if r.Body != nil && r.ContentLength > 0 {
			if !decodeJSON(w, r, &req) {
				return
			}
		}
		if req.ReassignTo == 0 {
			writeJSONError(w, http.StatusConflict, "Role has assigned users; provide reassign_to")
			return
		}
		if req.ReassignTo == role.ID {
			writeJSONError(w, http.StatusBadRequest, "Cannot reassign users to the role being deleted")
			return
		}
		if _, err := h.queries.GetRoleByID(r.Context(), req.ReassignTo); err != nil {
			writeJSONError(w, http.StatusBadRequest, "Reassignment target role does not exist")
			return
		}
		if err := h.queries.ReassignUsersRole(r.Context(), role.ID, req.ReassignTo, time.Now()); err != nil {
			logAndInternalError(w, "failed to reassign users", "error", err)
			return
		}
	}

	if err := h.queries.DeleteRole(r.Context(), role.ID); err != nil {
		logAndInternalError(w, "failed to delete role", "error", err)
		return
	}

	_ = h.events.LogRoleEvent(r.Context(), model.EventLevelWarning, "Role deleted",
		middleware.GetUserIDPtr(r), clientIP(r), map[string]any{"role_id": role.ID, "slug": role.Slug})

	writeJSONSuccess(w, nil)
}

// Permissions handles GET /api/admin/permissions - the static catalogue
// used by the role editor.
func (h *RoleHandler) Permissions(w http.ResponseWriter, _ *http.Request) {
	writeJSONSuccess(w, map[string]any{"groups": rbac.Catalogue()})
}

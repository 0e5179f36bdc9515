// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chainquest-cms/internal/model"
	"chainquest-cms/internal/rbac"
	"chainquest-cms/internal/store"
)

func (e *testEnv) createSystemRole(t *testing.T, name, slug string, perms []string) model.Role {
	t.Helper()
	role, err := e.queries.CreateRole(context.Background(), store.CreateRoleParams{
		Name: name, Slug: slug,
		Permissions: model.PermissionsToJSON(perms),
		IsSystem:    true,
		CreatedAt:   time.Now(), UpdatedAt: time.Now(),
	})
	require.NoError(t, err)
	return role
}

func TestRoleCreate(t *testing.T) {
	e := newTestEnv(t)
	h := NewRoleHandler(e.db, e.events)

	body := `{"name":"Community Manager","permissions":["panel.access","content.view"]}`
	rec := httptest.NewRecorder()
	h.Create(rec, e.jsonRequest(t, http.MethodPost, "/api/admin/roles", body))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Role roleResponse `json:"role"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "community-manager", resp.Role.Slug)
	assert.ElementsMatch(t, []string{"panel.access", "content.view"}, resp.Role.Permissions)
	assert.False(t, resp.Role.IsSystem)
}

func TestRoleCreateRejectsUnknownPermission(t *testing.T) {
	e := newTestEnv(t)
	h := NewRoleHandler(e.db, e.events)

	body := `{"name":"Broken","permissions":["does.not.exist"]}`
	rec := httptest.NewRecorder()
	h.Create(rec, e.jsonRequest(t, http.MethodPost, "/api/admin/roles", body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRoleUpdateSuperAdminImmutable(t *testing.T) {
	e := newTestEnv(t)
	super := e.createSystemRole(t, "Super Admin", model.SuperAdminSlug, rbac.AllPermissions())
	h := NewRoleHandler(e.db, e.events)

	body := `{"name":"Super Admin","permissions":["panel.access"]}`
	r := withURLParam(e.jsonRequest(t, http.MethodPut, "/api/admin/roles/1", body), "id", idString(super.ID))
	rec := httptest.NewRecorder()
	h.Update(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Permissions untouched.
	got, err := e.queries.GetRoleByID(context.Background(), super.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, rbac.AllPermissions(), got.GetPermissions())
}

func TestRoleUpdateSystemRolePermissionsOnly(t *testing.T) {
	e := newTestEnv(t)
	editor := e.createSystemRole(t, "Editor", "editor", []string{rbac.PermPanelAccess})
	h := NewRoleHandler(e.db, e.events)

	// Name changes on system roles are silently ignored; only the
	// permission set is applied.
	body := `{"name":"Renamed Editor","permissions":["panel.access","content.view"]}`
	r := withURLParam(e.jsonRequest(t, http.MethodPut, "/api/admin/roles/1", body), "id", idString(editor.ID))
	rec := httptest.NewRecorder()
	h.Update(rec, r)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got, err := e.queries.GetRoleByID(context.Background(), editor.ID)
	require.NoError(t, err)
	assert.Equal(t, "Editor", got.Name)
	assert.Equal(t, "editor", got.Slug)
	assert.ElementsMatch(t, []string{"panel.access", "content.view"}, got.GetPermissions())
}

func TestRoleDeleteSystemRoleBlocked(t *testing.T) {
	e := newTestEnv(t)
	editor := e.createSystemRole(t, "Editor", "editor", nil)
	h := NewRoleHandler(e.db, e.events)

	r := withURLParam(e.jsonRequest(t, http.MethodDelete, "/api/admin/roles/1", ""), "id", idString(editor.ID))
	rec := httptest.NewRecorder()
	h.Delete(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRoleDeleteWithUsersRequiresReassignment(t *testing.T) {
	e := newTestEnv(t)
	old := e.createRole(t, "Old Role", "old-role", nil)
	target := e.createRole(t, "Target Role", "target-role", nil)
	user := e.createUser(t, "member@example.com", "some password", old.ID)
	h := NewRoleHandler(e.db, e.events)

	// No reassign_to: conflict.
	r := withURLParam(e.jsonRequest(t, http.MethodDelete, "/api/admin/roles/1", ""), "id", idString(old.ID))
	rec := httptest.NewRecorder()
	h.Delete(rec, r)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// With reassign_to: users move, role goes away.
	body := `{"reassign_to":` + idString(target.ID) + `}`
	r = withURLParam(e.jsonRequest(t, http.MethodDelete, "/api/admin/roles/1", body), "id", idString(old.ID))
	rec = httptest.NewRecorder()
	h.Delete(rec, r)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got, err := e.queries.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, target.ID, got.RoleID)

	_, err = e.queries.GetRoleByID(context.Background(), old.ID)
	assert.Error(t, err)
}

func TestPermissionsCatalogue(t *testing.T) {
	e := newTestEnv(t)
	h := NewRoleHandler(e.db, e.events)

	rec := httptest.NewRecorder()
	h.Permissions(rec, httptest.NewRequest(http.MethodGet, "/api/admin/permissions", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Groups []rbac.Group `json:"groups"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Groups)
	assert.Equal(t, "users", body.Groups[0].Resource)
	for _, g := range body.Groups {
		assert.NotEmpty(t, g.Permissions)
	}
}

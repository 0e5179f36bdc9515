// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"encoding/json"
	"testing"
)

func TestNewAuthUserProjection(t *testing.T) {
	u := User{
		ID:         5,
		Email:      sql.NullString{String: "a@b.c", Valid: true},
		Name:       "Alice",
		AuthMethod: AuthMethodEmail,
		Status:     StatusActive,
		RoleID:     2,
	}
	r := Role{ID: 2, Name: "Editor", Slug: "editor", Permissions: `["panel.access","content.view"]`, IsSystem: true}

	au := NewAuthUser(u, r)

	if au.ID != 5 || au.Email != "a@b.c" {
		t.Errorf("unexpected projection: %+v", au)
	}
	if au.Role == nil || au.Role.Slug != "editor" {
		t.Fatalf("role projection missing: %+v", au.Role)
	}
	if len(au.Role.Permissions) != 2 {
		t.Errorf("permissions = %v", au.Role.Permissions)
	}
}

func TestNewAuthUserNeverNilPermissions(t *testing.T) {
	au := NewAuthUser(User{ID: 1}, Role{ID: 1, Slug: "viewer"})

	if au.Role.Permissions == nil {
		t.Fatal("permissions must be an empty slice, not nil")
	}

	// The cached session schema requires a permissions array; a nil
	// slice would serialize as null and fail the structural check.
	data, err := json.Marshal(au)
	if err != nil {
		t.Fatal(err)
	}
	var probe struct {
		Role struct {
			Permissions json.RawMessage `json:"permissions"`
		} `json:"role"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		t.Fatal(err)
	}
	if string(probe.Role.Permissions) != "[]" {
		t.Errorf("permissions serialized as %s, want []", probe.Role.Permissions)
	}
}

func TestRolePermissionsRoundTrip(t *testing.T) {
	perms := []string{"panel.access", "content.view"}
	r := Role{Permissions: PermissionsToJSON(perms)}

	got := r.GetPermissions()
	if len(got) != 2 || got[0] != "panel.access" {
		t.Errorf("GetPermissions = %v", got)
	}

	if PermissionsToJSON(nil) != "[]" {
		t.Error("empty set must serialize as []")
	}
}

func TestRoleIsSuperAdmin(t *testing.T) {
	if !(&Role{Slug: SuperAdminSlug}).IsSuperAdmin() {
		t.Error("super_admin slug must qualify")
	}
	if (&Role{Slug: "admin"}).IsSuperAdmin() {
		t.Error("other slugs must not qualify")
	}
}

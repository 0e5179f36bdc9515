// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package rbac

import (
	"testing"

	"chainquest-cms/internal/model"
)

func user(slug string, perms ...string) *model.AuthUser {
	return &model.AuthUser{
		ID:   1,
		Name: "Test",
		Role: &model.AuthRole{ID: 1, Slug: slug, Permissions: perms},
	}
}

func TestHas(t *testing.T) {
	u := user("editor", PermPanelAccess, PermContentView)

	if !Has(u, PermContentView) {
		t.Error("expected content.view to be held")
	}
	if Has(u, PermContentDelete) {
		t.Error("content.delete must not be held")
	}
}

func TestHasDegradesToFalse(t *testing.T) {
	if Has(nil, PermPanelAccess) {
		t.Error("nil user must evaluate to false")
	}
	if Has(&model.AuthUser{ID: 1}, PermPanelAccess) {
		t.Error("user without role must evaluate to false")
	}
	if Has(user("editor"), PermPanelAccess) {
		t.Error("empty permission set must evaluate to false")
	}
}

func TestHasAny(t *testing.T) {
	u := user("editor", PermContentView)

	if !HasAny(u, []string{PermContentDelete, PermContentView}) {
		t.Error("expected any-match on content.view")
	}
	if HasAny(u, []string{PermUsersView, PermUsersEdit}) {
		t.Error("no overlap must evaluate to false")
	}
	if HasAny(u, nil) {
		t.Error("empty list has no satisfiable element")
	}
}

func TestHasAll(t *testing.T) {
	u := user("editor", PermContentView, PermContentEdit)

	if !HasAll(u, []string{PermContentView, PermContentEdit}) {
		t.Error("expected all-match")
	}
	if HasAll(u, []string{PermContentView, PermContentDelete}) {
		t.Error("missing content.delete must fail all-match")
	}
	if !HasAll(u, nil) {
		t.Error("empty list is trivially satisfied")
	}
}

func TestIsSuperAdminBySlugOnly(t *testing.T) {
	if !IsSuperAdmin(user(model.SuperAdminSlug)) {
		t.Error("super_admin slug must qualify even with no permissions")
	}

	// Full permission coverage does not make a super admin.
	if IsSuperAdmin(user("editor", AllPermissions()...)) {
		t.Error("capability coverage must not imply super admin")
	}

	if IsSuperAdmin(nil) {
		t.Error("nil user is never super admin")
	}
}

func TestCatalogueCoversAllGroups(t *testing.T) {
	groups := Catalogue()
	want := []string{"users", "roles", "content", "media", "apiKeys", "settings"}

	if len(groups) != len(want) {
		t.Fatalf("expected %d groups, got %d", len(want), len(groups))
	}
	for i, g := range groups {
		if g.Resource != want[i] {
			t.Errorf("group %d: expected %q, got %q", i, want[i], g.Resource)
		}
		if len(g.Permissions) == 0 {
			t.Errorf("group %q has no permissions", g.Resource)
		}
	}
}

func TestIsKnownPermission(t *testing.T) {
	if !IsKnownPermission(PermPanelAccess) {
		t.Error("panel.access must be known")
	}
	if !IsKnownPermission(PermAPIKeysDelete) {
		t.Error("apiKeys.delete must be known")
	}
	if IsKnownPermission("content.publish") {
		t.Error("uncatalogued permission must be unknown")
	}
}

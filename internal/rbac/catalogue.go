// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package rbac

// PermPanelAccess is the baseline permission gating all admin panel
// entry. It is checked before any fine-grained permission.
const PermPanelAccess = "panel.access"

// Fine-grained permissions, grouped by resource.
const (
	PermUsersView   = "users.view"
	PermUsersCreate = "users.create"
	PermUsersEdit   = "users.edit"
	PermUsersDelete = "users.delete"

	PermRolesView   = "roles.view"
	PermRolesCreate = "roles.create"
	PermRolesEdit   = "roles.edit"
	PermRolesDelete = "roles.delete"

	PermContentView   = "content.view"
	PermContentEdit   = "content.edit"
	PermContentDelete = "content.delete"

	PermMediaView   = "media.view"
	PermMediaUpload = "media.upload"
	PermMediaDelete = "media.delete"

	PermAPIKeysView   = "apiKeys.view"
	PermAPIKeysCreate = "apiKeys.create"
	PermAPIKeysEdit   = "apiKeys.edit"
	PermAPIKeysDelete = "apiKeys.delete"

	PermSettingsView = "settings.view"
	PermSettingsEdit = "settings.edit"
)

// Group is a resource category of the permission catalogue.
type Group struct {
	Resource    string   `json:"resource"`
	Label       string   `json:"label"`
	Permissions []string `json:"permissions"`
}

// Catalogue returns the static set of all recognized permission strings
// grouped by resource category. It is used to render available-permission
// checkboxes in the role editor; the evaluator itself never consults it.
func Catalogue() []Group {
	return []Group{
		{Resource: "users", Label: "Users", Permissions: []string{
			PermUsersView, PermUsersCreate, PermUsersEdit, PermUsersDelete,
		}},
		{Resource: "roles", Label: "Roles", Permissions: []string{
			PermRolesView, PermRolesCreate, PermRolesEdit, PermRolesDelete,
		}},
		{Resource: "content", Label: "Content", Permissions: []string{
			PermContentView, PermContentEdit, PermContentDelete,
		}},
		{Resource: "media", Label: "Media", Permissions: []string{
			PermMediaView, PermMediaUpload, PermMediaDelete,
		}},
		{Resource: "apiKeys", Label: "API Keys", Permissions: []string{
			PermAPIKeysView, PermAPIKeysCreate, PermAPIKeysEdit, PermAPIKeysDelete,
		}},
		{Resource: "settings", Label: "Settings", Permissions: []string{
			PermSettingsView, PermSettingsEdit,
		}},
	}
}

// AllPermissions returns the full permission universe: every catalogued
// permission plus panel.access.
func AllPermissions() []string {
	perms := []string{PermPanelAccess}
	for _, g := range Catalogue() {
		perms = append(perms, g.Permissions...)
	}
	return perms
}

// IsKnownPermission reports whether p appears in the catalogue or is
// panel.access.
func IsKnownPermission(p string) bool {
	for _, known := range AllPermissions() {
		if known == p {
			return true
		}
	}
	return false
}

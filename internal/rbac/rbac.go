// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

// Package rbac implements the permission evaluator: flat membership
// checks of resource.action strings against a user's role. Absence of
// data degrades to false, never to an error.
package rbac

import "chainquest-cms/internal/model"

// Has returns true iff the user's role contains the permission.
func Has(u *model.AuthUser, permission string) bool {
	if u == nil || u.Role == nil {
		return false
	}
	for _, p := range u.Role.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// HasAny returns true iff the user's role contains at least one of the
// given permissions.
func HasAny(u *model.AuthUser, permissions []string) bool {
	for _, p := range permissions {
		if Has(u, p) {
			return true
		}
	}
	return false
}

// HasAll returns true iff the user's role contains every one of the
// given permissions. An empty list is trivially satisfied.
func HasAll(u *model.AuthUser, permissions []string) bool {
	for _, p := range permissions {
		if !Has(u, p) {
			return false
		}
	}
	return true
}

// IsSuperAdmin returns true iff the user's role slug is exactly
// "super_admin". Slug identity, not capability inference.
func IsSuperAdmin(u *model.AuthUser) bool {
	if u == nil || u.Role == nil {
		return false
	}
	return u.Role.Slug == model.SuperAdminSlug
}

// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"encoding/json"
	"time"
)

// SuperAdminSlug identifies the super admin role. Super admin status is
// decided by slug equality, never inferred from permission coverage.
const SuperAdminSlug = "super_admin"

// Role represents a named bundle of permission strings assigned to users.
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Permissions string    `json:"-"` // JSON array stored as string
	IsSystem    bool      `json:"is_system"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GetPermissions parses the JSON permissions string into a slice.
func (r *Role) GetPermissions() []string {
	var perms []string
	if r.Permissions == "" || r.Permissions == "[]" {
		return perms
	}
	_ = json.Unmarshal([]byte(r.Permissions), &perms)
	return perms
}

// IsSuperAdmin returns true if this is the super admin role.
func (r *Role) IsSuperAdmin() bool {
	return r.Slug == SuperAdminSlug
}

// PermissionsToJSON converts a slice of permissions to a JSON string.
func PermissionsToJSON(perms []string) string {
	if len(perms) == 0 {
		return "[]"
	}
	data, _ := json.Marshal(perms)
	return string(data)
}

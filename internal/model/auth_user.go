// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// AuthRole is the role projection embedded in an AuthUser.
type AuthRole struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Permissions []string `json:"permissions"`
	IsSystem    bool     `json:"is_system"`
}

// AuthUser is the user-plus-role projection returned by the session fetch
// endpoint and cached client-side by the panel session store. It mirrors
// the server record wholesale; permission updates always replace the
// entire Role sub-object, never patch individual fields.
type AuthUser struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email,omitempty"`
	Name          string    `json:"name"`
	WalletAddress string    `json:"wallet_address,omitempty"`
	AuthMethod    string    `json:"auth_method"`
	Status        string    `json:"status"`
	Role          *AuthRole `json:"role"`
}

// NewAuthUser builds the wire projection from a user and its role.
func NewAuthUser(u User, r Role) *AuthUser {
	perms := r.GetPermissions()
	if perms == nil {
		perms = []string{}
	}
	return &AuthUser{
		ID:            u.ID,
		Email:         u.Email.String,
		Name:          u.Name,
		WalletAddress: u.WalletAddress.String,
		AuthMethod:    u.AuthMethod,
		Status:        u.Status,
		Role: &AuthRole{
			ID:          r.ID,
			Name:        r.Name,
			Slug:        r.Slug,
			Permissions: perms,
			IsSystem:    r.IsSystem,
		},
	}
}

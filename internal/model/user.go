// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the
// application including User, Role, Content, and notification structures.
package model

import (
	"database/sql"
	"time"
)

// Authentication methods.
const (
	AuthMethodEmail  = "email"
	AuthMethodWallet = "wallet"
	AuthMethodHybrid = "hybrid"
)

// Account statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// ValidAuthMethods contains all valid authentication methods.
var ValidAuthMethods = []string{AuthMethodEmail, AuthMethodWallet, AuthMethodHybrid}

// User represents an admin panel user.
type User struct {
	ID            int64          `json:"id"`
	Email         sql.NullString `json:"email,omitempty"`
	Name          string         `json:"name"`
	WalletAddress sql.NullString `json:"wallet_address,omitempty"`
	AuthMethod    string         `json:"auth_method"`
	Status        string         `json:"status"`
	PasswordHash  sql.NullString `json:"-"` // Never expose in JSON
	RoleID        int64          `json:"role_id"`
	LastLoginAt   sql.NullTime   `json:"last_login_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// IsActive returns true if the user account is active.
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"chainquest-cms/internal/auth"
	"chainquest-cms/internal/model"
	"chainquest-cms/internal/rbac"
)

// Default admin credentials
const (
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "changeme"
	DefaultAdminName     = "Administrator"
)

// systemRoles are seeded once and persist for the application's lifetime.
var systemRoles = []struct {
	name        string
	slug        string
	description string
	permissions []string
}{
	{
		name:        "Super Admin",
		slug:        model.SuperAdminSlug,
		description: "Full access to every panel feature",
		permissions: rbac.AllPermissions(),
	},
	{
		name:        "Editor",
		slug:        "editor",
		description: "Manages landing page content and media",
		permissions: []string{
			rbac.PermPanelAccess,
			rbac.PermContentView, rbac.PermContentEdit,
			rbac.PermMediaView, rbac.PermMediaUpload,
		},
	},
	{
		name:        "Viewer",
		slug:        "viewer",
		description: "Read-only panel access",
		permissions: []string{
			rbac.PermPanelAccess,
			rbac.PermContentView, rbac.PermMediaView,
		},
	},
}

// Seed creates initial data: system roles, the default admin user, and a
// default theme preset. Safe to run repeatedly.
func Seed(ctx context.Context, db *sql.DB) error {
	queries := New(db)
	now := time.Now()

	// System roles
	for _, sr := range systemRoles {
		_, err := queries.GetRoleBySlug(ctx, sr.slug)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("checking for role %q: %w", sr.slug, err)
		}

		role, err := queries.CreateRole(ctx, CreateRoleParams{
			Name:        sr.name,
			Slug:        sr.slug,
			Description: sr.description,
			Permissions: model.PermissionsToJSON(sr.permissions),
			IsSystem:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("creating role %q: %w", sr.slug, err)
		}
		slog.Info("created system role", "id", role.ID, "slug", role.Slug)
	}

	// Default admin user
	if _, err := queries.GetUserByEmail(ctx, DefaultAdminEmail); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("checking for admin user: %w", err)
		}

		superAdmin, err := queries.GetRoleBySlug(ctx, model.SuperAdminSlug)
		if err != nil {
			return fmt.Errorf("looking up super admin role: %w", err)
		}

		passwordHash, err := auth.HashPassword(DefaultAdminPassword)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}

		user, err := queries.CreateUser(ctx, CreateUserParams{
			Email:        sql.NullString{String: DefaultAdminEmail, Valid: true},
			Name:         DefaultAdminName,
			AuthMethod:   model.AuthMethodEmail,
			Status:       model.StatusActive,
			PasswordHash: sql.NullString{String: passwordHash, Valid: true},
			RoleID:       superAdmin.ID,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return fmt.Errorf("creating admin user: %w", err)
		}

		slog.Info("created default admin user",
			"id", user.ID,
			"email", DefaultAdminEmail,
			"password", DefaultAdminPassword,
		)
	} else {
		slog.Info("admin user already exists, skipping seed")
	}

	// Default theme preset
	if _, err := queries.GetActiveThemePreset(ctx); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("checking for active theme: %w", err)
		}

		preset, err := queries.CreateThemePreset(ctx, CreateThemePresetParams{
			Name: "Neon Night",
			Slug: "neon-night",
			Colors: model.ColorsToJSON(map[string]string{
				"background": "#0a0a14",
				"primary":    "#00e5ff",
				"secondary":  "#b44bff",
				"accent":     "#3eff8b",
			}),
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("creating default theme preset: %w", err)
		}
		if err := queries.ActivateThemePreset(ctx, preset.ID, now); err != nil {
			return fmt.Errorf("activating default theme preset: %w", err)
		}
		slog.Info("created default theme preset", "id", preset.ID, "slug", preset.Slug)
	}

	return nil
}
